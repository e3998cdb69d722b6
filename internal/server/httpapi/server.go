// Package httpapi exposes the auth service over HTTP with gin. Sessions
// travel in an HttpOnly cookie.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/logging"
	"github.com/dmitrijs2005/chatauth/internal/server/models"
	"github.com/dmitrijs2005/chatauth/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// AuthService is what the HTTP layer needs from services.UserService.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, avatar string) (*models.PublicUser, error)
}

// Options configures an HTTPServer.
type Options struct {
	Address string
	// ClientURL is the only browser origin allowed to make credentialed
	// cross-origin requests.
	ClientURL string
	// MaxBodyBytes caps request bodies; 0 means no cap.
	MaxBodyBytes int64
	Cookies      CookieTransport
}

type HTTPServer struct {
	opts    Options
	users   AuthService
	cookies CookieTransport
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(opts Options, l logging.Logger, users AuthService) *HTTPServer {
	s := &HTTPServer{
		opts:    opts,
		users:   users,
		cookies: opts.Cookies,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the configured gin engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger())

	if s.opts.ClientURL != "" {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = []string{s.opts.ClientURL}
		cfg.AllowCredentials = true
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		r.Use(cors.New(cfg))
	}
	if s.opts.MaxBodyBytes > 0 {
		r.Use(s.limitBody(s.opts.MaxBodyBytes))
	}

	api := r.Group("/api/auth")
	api.POST("/signup", s.Signup)
	api.POST("/login", s.Login)
	api.POST("/logout", s.Logout)

	protected := api.Group("", s.ProtectRoute())
	protected.PUT("/update-profile", s.UpdateProfile)
	protected.GET("/check", s.Check)

	return r
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
