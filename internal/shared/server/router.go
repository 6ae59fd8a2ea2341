package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/auth"
	"intake-backend/internal/intake"
	"intake-backend/internal/sessions"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/storage/db"
	"intake-backend/internal/uploads"
	"intake-backend/internal/web"
)

// RouterDeps carries handlers and shared dependencies into the router.
type RouterDeps struct {
	Config         config.Config
	DB             *sql.DB
	Sessions       *sessions.Manager
	AuthHandler    *auth.Handler
	IntakeHandler  *intake.Handler
	UploadsHandler *uploads.Handler
	RateLimiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logging(),
		middleware.SameOrigin(deps.Config.TrustedOrigins),
	)

	r.StaticFS("/static", web.Static())
	r.GET("/healthz", healthHandler(deps.DB))
	r.GET("/metrics", metrics.Handler())

	site := r.Group("/")
	site.Use(deps.Sessions.Middleware())
	site.GET("/", deps.AuthHandler.Root)
	site.GET(auth.LoginPath, deps.AuthHandler.LoginPage)
	site.POST(auth.LoginPath, deps.AuthHandler.Login)
	site.GET("/logout", deps.AuthHandler.Logout)

	protected := site.Group("/")
	protected.Use(auth.RequireLogin())
	protected.GET("/me", deps.AuthHandler.Me)
	protected.GET("/form", deps.IntakeHandler.FormPage)
	protected.GET("/confirmation", deps.IntakeHandler.ConfirmationPage)
	protected.POST("/submit-form", deps.IntakeHandler.SubmitForm)
	protected.POST("/upload", uploadRateLimit(deps), deps.IntakeHandler.Upload)
	deps.UploadsHandler.RegisterRoutes(protected)

	return r
}

func uploadRateLimit(deps RouterDeps) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			middleware.UploadRateLimitGroup: {
				Rate:  deps.Config.UploadRatePerSec,
				Burst: deps.Config.UploadRateBurst,
			},
		},
		DefaultGroup: middleware.UploadRateLimitGroup,
		Limiter:      deps.RateLimiter,
	})
}

func healthHandler(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database != nil {
			if err := db.Ping(c.Request.Context(), database, 2*time.Second); err != nil {
				respond.Error(c, http.StatusServiceUnavailable, "db_unavailable", "database unavailable", nil)
				return
			}
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":3000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
