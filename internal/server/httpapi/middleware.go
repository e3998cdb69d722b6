package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// ProtectRoute lets a request through only with a valid session whose user
// still exists. The user is then available through CurrentUser.
func (s *HTTPServer) ProtectRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.users.Authenticate(c.Request.Context(), s.cookies.Token(c))
		if err != nil {
			s.abortWithError(c, "protect_route", err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user ProtectRoute attached to c.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// recovery turns a panic into a plain 500.
func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic while serving request", "path", c.Request.URL.Path, "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": serverErrorMessage})
	})
}

func (s *HTTPServer) limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
