package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/gin-gonic/gin"
)

const serverErrorMessage = "Server error"

// statusFor maps an error to its HTTP status. Wrong credentials at login
// are a bad request; every other auth failure is 401.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindAuth:
		if errors.Is(err, common.ErrInvalidCredentials) {
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	case common.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"message": ...} for err. Server faults are logged
// in full and reported to the client without detail.
func (s *HTTPServer) abortWithError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	msg := common.PublicMessage(err)

	if status >= http.StatusInternalServerError || msg == "" {
		s.logger.Error(c.Request.Context(), "request failed", "op", op, "kind", common.KindOf(err).String(), "error", err)
		status = http.StatusInternalServerError
		msg = serverErrorMessage
	} else {
		s.logger.Debug(c.Request.Context(), "request rejected", "op", op, "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
