package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/middleware"
)

// LoginPath is where anonymous callers are sent.
const LoginPath = "/login"

// RequireLogin admits the request only when the loaded session is authenticated;
// otherwise it redirects to the login page and stops the chain.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.LoggedInFromContext(c) {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}
