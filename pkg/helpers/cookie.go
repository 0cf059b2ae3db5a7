package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// the refresh token is only ever sent to the account endpoints
	refreshCookiePath = "/api/user"
)

// Manager writes the HttpOnly token cookies. Both are SameSite=Lax.
type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetPair writes both cookies with Max-Age taken from the token expiries.
func (m *Manager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	m.set(c, AccessCookie, access, "/", maxAgeFrom(aexp))
	m.set(c, RefreshCookie, refresh, refreshCookiePath, maxAgeFrom(rexp))
}

// Clear expires both cookies on the paths SetPair used.
func (m *Manager) Clear(c *gin.Context) {
	m.set(c, AccessCookie, "", "/", -1)
	m.set(c, RefreshCookie, "", refreshCookiePath, -1)
}

func (m *Manager) set(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	if sec := int(time.Until(exp).Seconds()); sec > 0 {
		return sec
	}
	return 0
}
