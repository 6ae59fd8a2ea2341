package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
)

// SameOrigin rejects state-changing requests whose Origin (or Referer) names a
// different host than the request, unless the origin is listed in trusted.
// Requests without either header pass; browsers always send Origin on cross-site POSTs.
func SameOrigin(trusted []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(trusted))
	for _, o := range trusted {
		if trimmed := strings.TrimRight(strings.TrimSpace(o), "/"); trimmed != "" {
			allowed[strings.ToLower(trimmed)] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		source := c.GetHeader("Origin")
		if source == "" || source == "null" {
			source = c.GetHeader("Referer")
		}
		if source == "" {
			c.Next()
			return
		}

		u, err := url.Parse(source)
		if err != nil || u.Host == "" {
			respond.Error(c, http.StatusForbidden, "forbidden_origin", "Origen no permitido.", nil)
			return
		}
		if strings.EqualFold(u.Host, c.Request.Host) {
			c.Next()
			return
		}
		if _, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
			c.Next()
			return
		}
		respond.Error(c, http.StatusForbidden, "forbidden_origin", "Origen no permitido.", nil)
	}
}
