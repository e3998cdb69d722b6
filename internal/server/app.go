// Package server initializes and runs the chatauth server: it opens the
// database, applies migrations, wires the auth service to the HTTP API and
// the mail queue, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/chatauth/internal/logging"
	"github.com/dmitrijs2005/chatauth/internal/server/auth"
	"github.com/dmitrijs2005/chatauth/internal/server/config"
	"github.com/dmitrijs2005/chatauth/internal/server/httpapi"
	"github.com/dmitrijs2005/chatauth/internal/server/mailer"
	"github.com/dmitrijs2005/chatauth/internal/server/media"
	"github.com/dmitrijs2005/chatauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Seams for tests.
var (
	openDB               = repomanager.OpenDB
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newMailDispatcher    = mailer.NewDispatcher
	newMailWorker        = mailer.NewWorker
)

const mailConcurrency = 2

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	httpServer  *httpapi.HTTPServer
	dispatcher  *mailer.Dispatcher
	mailWorker  *mailer.Worker
}

// NewApp validates c and builds every component. A missing signing secret
// is reported before anything is opened.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.NewJSON(os.Stdout, !c.IsProduction())
	}
	if c.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewTokenIssuer(c.SecretKey, c.TokenValidity)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var notifier services.WelcomeNotifier = mailer.NopNotifier{Log: logger}
	if c.RedisURL != "" {
		if app.dispatcher, err = newMailDispatcher(c.RedisURL, c.MailMaxRetry, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mail queue init error: %w", err)
		}
		notifier = app.dispatcher

		composer := mailer.WelcomeComposer{AppName: c.AppName, From: c.EmailFrom, FromName: c.EmailFromName, ClientURL: c.ClientURL}
		sender, err := mailer.NewResendSender(c.ResendAPIKey, c.ResendBaseURL, nil)
		if err != nil {
			_ = app.dispatcher.Close()
			_ = db.Close()
			return nil, fmt.Errorf("mail sender init error: %w", err)
		}
		if app.mailWorker, err = newMailWorker(c.RedisURL, mailConcurrency, composer, sender, logger); err != nil {
			_ = app.dispatcher.Close()
			_ = db.Close()
			return nil, fmt.Errorf("mail worker init error: %w", err)
		}
	} else {
		logger.Warn(ctx, "REDIS_URL is not set, welcome emails are disabled")
	}

	app.userService = services.NewUserService(db, rm,
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		tokens,
		media.NewS3Uploader(c),
		notifier,
		logger,
	)

	app.httpServer = httpapi.NewHTTPServer(httpapi.Options{
		Address:   c.HTTPAddr,
		ClientURL: c.ClientURL,
		// base64 inflates the avatar by a third; leave room for the JSON around it.
		MaxBodyBytes: c.AvatarMaxBytes*4/3 + 64<<10,
		Cookies:      httpapi.NewCookieTransport(c.IsProduction(), c.TokenValidity),
	}, logger, app.userService)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMailWorker(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.mailWorker.Run(ctx); err != nil {
		app.logger.Error(ctx, "mail worker failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or a
// component fails, then releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.mailWorker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMailWorker(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.shutdown(context.WithoutCancel(ctx))
}

func (app *App) shutdown(ctx context.Context) {
	// Let queued welcome notifications reach the broker first.
	app.userService.Wait()

	if app.dispatcher != nil {
		if err := app.dispatcher.Close(); err != nil {
			app.logger.Error(ctx, "closing mail queue", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
