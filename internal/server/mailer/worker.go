package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatauth/internal/logging"
	"github.com/hibiken/asynq"
)

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Worker consumes welcome-email tasks and hands them to a Sender.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	composer WelcomeComposer
	sender   Sender
	log      logging.Logger
}

// NewWorker builds a Worker bound to the Redis broker at redisURL.
func NewWorker(redisURL string, concurrency int, composer WelcomeComposer, sender Sender, log logging.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 2
	}

	w := newWorker(composer, sender, log)
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName: 1},
	})
	return w, nil
}

func newWorker(composer WelcomeComposer, sender Sender, log logging.Logger) *Worker {
	if log == nil {
		log = logging.Nop()
	}
	w := &Worker{
		mux:      asynq.NewServeMux(),
		composer: composer,
		sender:   sender,
		log:      log.With("module", "mailer"),
	}
	w.mux.HandleFunc(TaskTypeWelcome, w.handleWelcome)
	return w
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.log.Info(ctx, "mail worker started")

	<-ctx.Done()

	w.server.Shutdown()
	w.log.Info(context.Background(), "mail worker stopped")
	return nil
}

func (w *Worker) handleWelcome(ctx context.Context, task *asynq.Task) error {
	var p WelcomePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode welcome payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Email == "" {
		return fmt.Errorf("welcome payload without email: %w", asynq.SkipRetry)
	}

	msg, err := w.composer.Compose(p)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		var perm *PermanentError
		if errors.As(err, &perm) {
			w.log.Error(ctx, "welcome email rejected", "user_id", p.UserID, "error", err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		w.log.Warn(ctx, "welcome email delivery failed, will retry", "user_id", p.UserID, "error", err)
		return err
	}

	w.log.Info(ctx, "welcome email sent", "user_id", p.UserID)
	return nil
}
