package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a standardized error response.
// The panic value is logged; clients only see a generic message.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"session":    SessionHashFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				if c.Writer.Written() {
					c.Abort()
					return
				}
				respond.Error(c, http.StatusInternalServerError, "internal", "Error inesperado del servidor.", nil)
			}
		}()
		c.Next()
	}
}
