package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/sessions"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
)

// Handler serves the login, logout and landing routes.
type Handler struct {
	sessions *sessions.Manager
	creds    Credentials
}

// NewHandler constructs a Handler.
func NewHandler(mgr *sessions.Manager, creds Credentials) *Handler {
	return &Handler{sessions: mgr, creds: creds}
}

// Root sends authenticated callers to the form and everyone else to login.
func (h *Handler) Root(c *gin.Context) {
	if middleware.LoggedInFromContext(c) {
		c.Redirect(http.StatusFound, "/form")
		return
	}
	c.Redirect(http.StatusFound, LoginPath)
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", nil)
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if err := h.creds.Verify(username, password); err != nil {
		metrics.IncLoginFailed()
		telemetry.Warn("auth.login.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"session":    middleware.SessionHashFromContext(c),
			"client_ip":  c.ClientIP(),
		})
		c.HTML(http.StatusUnauthorized, "login_failed.html", nil)
		return
	}

	sess, err := h.sessions.Regenerate(c, username)
	if err != nil {
		telemetry.Error("auth.login.session_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err,
		})
		respond.Page(c, http.StatusInternalServerError, "error.html", gin.H{
			"Message": "No se pudo iniciar la sesión.",
			"Back":    LoginPath,
		})
		return
	}

	metrics.IncLoginSucceeded()
	telemetry.Info("auth.login.succeeded", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"session":    middleware.SessionHashFromContext(c),
		"expires_at": sess.ExpiresAt.Format(time.RFC3339),
	})
	c.Redirect(http.StatusFound, "/form")
}

// Logout destroys the session. A store failure is reported, never hidden
// behind a redirect, and the cookie is cleared either way.
func (h *Handler) Logout(c *gin.Context) {
	sessionHash := middleware.SessionHashFromContext(c)
	if err := h.sessions.Destroy(c); err != nil {
		telemetry.Error("auth.logout.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"session":    sessionHash,
			"err":        err,
		})
		respond.Page(c, http.StatusInternalServerError, "error.html", gin.H{
			"Message": "No se pudo cerrar la sesión por completo. Cierra el navegador para terminarla.",
			"Back":    LoginPath,
		})
		return
	}
	telemetry.Info("auth.logout", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"session":    sessionHash,
	})
	c.Redirect(http.StatusFound, LoginPath)
}

// Me reports the current session for the UI.
func (h *Handler) Me(c *gin.Context) {
	respond.OK(c, gin.H{
		"username":  middleware.UsernameFromContext(c),
		"loggedIn":  middleware.LoggedInFromContext(c),
		"expiresAt": middleware.SessionExpiresAtFromContext(c).Format(time.RFC3339),
	})
}
