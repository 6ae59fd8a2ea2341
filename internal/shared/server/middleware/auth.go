package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sessionHashKey    = "sessionHash"
	sessionLoggedIn   = "sessionLoggedIn"
	sessionUserKey    = "sessionUser"
	sessionExpiresKey = "sessionExpiresAt"
)

// SessionContext is the per-request view of the caller's session.
type SessionContext struct {
	Hash      string
	LoggedIn  bool
	Username  string
	ExpiresAt time.Time
}

// SetSessionContext stores the session view for downstream handlers and logging.
func SetSessionContext(c *gin.Context, s SessionContext) {
	c.Set(sessionHashKey, s.Hash)
	c.Set(sessionLoggedIn, s.LoggedIn)
	c.Set(sessionUserKey, s.Username)
	c.Set(sessionExpiresKey, s.ExpiresAt)
}

// SessionHashFromContext returns the hashed session id, or "" when no session was loaded.
func SessionHashFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionHashKey)
}

// LoggedInFromContext reports whether the loaded session is authenticated.
func LoggedInFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(sessionLoggedIn)
}

// UsernameFromContext returns the authenticated username, if any.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionUserKey)
}

// SessionExpiresAtFromContext returns the session expiry set by the session middleware.
func SessionExpiresAtFromContext(c *gin.Context) time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.GetTime(sessionExpiresKey)
}
