package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/gin-gonic/gin"
)

// CookieTransport carries the session token in the "jwt" cookie. The
// cookie is HttpOnly and SameSite=Strict, and Secure when Secure is set.
type CookieTransport struct {
	Secure bool
	MaxAge time.Duration
}

func NewCookieTransport(secure bool, maxAge time.Duration) CookieTransport {
	if maxAge <= 0 {
		maxAge = common.SessionTTL
	}
	return CookieTransport{Secure: secure, MaxAge: maxAge}
}

// Set stores token on the response.
func (t CookieTransport) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.SessionCookieName, token, int(t.MaxAge/time.Second), "/", "", t.Secure, true)
}

// Clear expires the session cookie immediately.
func (t CookieTransport) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	// A negative MaxAge is sent as Max-Age=0.
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", t.Secure, true)
}

// Token returns the session token sent by the client, or "".
func (t CookieTransport) Token(c *gin.Context) string {
	token, err := c.Cookie(common.SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
