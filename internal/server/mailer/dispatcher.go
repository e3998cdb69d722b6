package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/dmitrijs2005/chatauth/internal/logging"
	"github.com/dmitrijs2005/chatauth/internal/server/models"
	"github.com/hibiken/asynq"
	"github.com/samber/oops"
)

const taskTimeout = time.Minute

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Dispatcher queues welcome emails. Retrying failed deliveries is left to
// asynq, bounded by maxRetry.
type Dispatcher struct {
	client   enqueuer
	maxRetry int
	log      logging.Logger
}

// NewDispatcher connects to the Redis broker at redisURL.
func NewDispatcher(redisURL string, maxRetry int, log logging.Logger) (*Dispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return newDispatcher(asynq.NewClient(opt), maxRetry, log), nil
}

func newDispatcher(client enqueuer, maxRetry int, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{client: client, maxRetry: maxRetry, log: log.With("module", "mailer")}
}

// NotifyWelcome enqueues a welcome email for user.
func (d *Dispatcher) NotifyWelcome(ctx context.Context, user models.PublicUser) error {
	body, err := newWelcomePayload(user)
	if err != nil {
		return emailFailure("encode payload", err, user.ID)
	}

	task := asynq.NewTask(TaskTypeWelcome, body)
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(d.maxRetry),
		asynq.Timeout(taskTimeout),
	)
	if err != nil {
		return emailFailure("enqueue", err, user.ID)
	}

	d.log.Debug(ctx, "welcome email queued", "user_id", user.ID, "task_id", info.ID)
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

func emailFailure(op string, err error, userID string) error {
	return oops.Code("EMAIL_FAILED").In("mailer").With("op", op, "user_id", userID).
		Wrap(fmt.Errorf("%w: %w", common.ErrEmailFailed, err))
}

// NopNotifier stands in for a Dispatcher when no broker is configured.
type NopNotifier struct {
	Log logging.Logger
}

func (n NopNotifier) NotifyWelcome(ctx context.Context, user models.PublicUser) error {
	if n.Log != nil {
		n.Log.Info(ctx, "welcome email skipped, mail queue disabled", "user_id", user.ID)
	}
	return nil
}
