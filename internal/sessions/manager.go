package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/shared/util"
)

const (
	// CookieName is the session cookie set on every response that creates or refreshes a session.
	CookieName = "intake_sid"
	DefaultTTL = 12 * time.Hour

	sessionKey = "session"
)

// Manager ties the cookie codec to a Store and implements the session lifecycle.
type Manager struct {
	Store  Store
	Codec  *Codec
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultTTL
	}
	return m.TTL
}

// Middleware loads the caller's session, creating an anonymous one when the
// cookie is absent, invalid or points at an expired session.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.load(c)
		if err != nil {
			telemetry.Error("session.load.failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"err":        err,
			})
			respond.Error(c, http.StatusServiceUnavailable, "session_unavailable", "Sesión no disponible, intenta más tarde.", nil)
			return
		}
		m.bind(c, sess)
		c.Next()
	}
}

func (m *Manager) load(c *gin.Context) (Session, error) {
	ctx := c.Request.Context()
	now := m.now()

	if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
		sid, decodeErr := m.Codec.Decode(raw)
		if decodeErr == nil {
			sess, getErr := m.Store.Get(ctx, sid)
			switch {
			case getErr == nil:
				return m.touch(c, sess, now)
			case !errors.Is(getErr, ErrNotFound):
				return Session{}, fmt.Errorf("get session: %w", getErr)
			}
		}
	}
	return m.create(c, false, "")
}

// touch slides the expiry once less than half the TTL remains.
func (m *Manager) touch(c *gin.Context, sess Session, now time.Time) (Session, error) {
	if sess.ExpiresAt.Sub(now) > m.ttl()/2 {
		return sess, nil
	}
	sess.ExpiresAt = now.Add(m.ttl())
	if err := m.Store.Save(c.Request.Context(), sess); err != nil {
		return Session{}, fmt.Errorf("refresh session: %w", err)
	}
	if err := m.writeCookie(c, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (m *Manager) create(c *gin.Context, loggedIn bool, username string) (Session, error) {
	now := m.now()
	sess := Session{
		ID:        uuid.NewString(),
		LoggedIn:  loggedIn,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.Store.Save(c.Request.Context(), sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	if err := m.writeCookie(c, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Regenerate replaces the current session with a fresh authenticated one so a
// pre-login session id can never be promoted.
func (m *Manager) Regenerate(c *gin.Context, username string) (Session, error) {
	if old, ok := FromContext(c); ok {
		if err := m.Store.Delete(c.Request.Context(), old.ID); err != nil {
			return Session{}, fmt.Errorf("drop previous session: %w", err)
		}
	}
	sess, err := m.create(c, true, username)
	if err != nil {
		return Session{}, err
	}
	m.bind(c, sess)
	return sess, nil
}

// Destroy deletes the current session. The cookie is cleared even when the
// store fails, so the browser never keeps a reference to a live session.
func (m *Manager) Destroy(c *gin.Context) error {
	m.clearCookie(c)
	sess, ok := FromContext(c)
	if !ok {
		return nil
	}
	m.bind(c, Session{})
	if err := m.Store.Delete(c.Request.Context(), sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// FromContext returns the session bound by Middleware.
func FromContext(c *gin.Context) (Session, bool) {
	if c == nil {
		return Session{}, false
	}
	val, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := val.(Session)
	if !ok || sess.ID == "" {
		return Session{}, false
	}
	return sess, true
}

func (m *Manager) bind(c *gin.Context, sess Session) {
	c.Set(sessionKey, sess)
	middleware.SetSessionContext(c, middleware.SessionContext{
		Hash:      util.ShortHash(sess.ID),
		LoggedIn:  sess.LoggedIn,
		Username:  sess.Username,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (m *Manager) writeCookie(c *gin.Context, sess Session) error {
	value, err := m.Codec.Encode(sess.ID, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, int(m.ttl().Seconds()), "/", "", m.Secure, true)
	return nil
}

func (m *Manager) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.Secure, true)
}

// RunJanitor deletes expired sessions every interval until ctx is done.
func RunJanitor(ctx context.Context, store Store, interval time.Duration, now func() time.Time) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpired(ctx, now().UTC())
			if err != nil {
				telemetry.Warn("session.janitor.failed", map[string]any{"err": err})
				continue
			}
			if removed > 0 {
				telemetry.Info("session.janitor.swept", map[string]any{"removed": removed})
			}
		}
	}
}
