package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDReuseAndReplace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{name: "absent", inbound: "", reuse: false},
		{name: "valid", inbound: "req-123_abc.1", reuse: true},
		{name: "injection", inbound: "abc\"}{", reuse: false},
		{name: "too long", inbound: strings.Repeat("a", 65), reuse: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID())
			var seen string
			r.GET("/", func(c *gin.Context) {
				seen = RequestIDFromContext(c)
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set("X-Request-Id", tt.inbound)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if seen == "" || resp.Header().Get("X-Request-Id") != seen {
				t.Fatalf("expected header to match context id, got %q vs %q", resp.Header().Get("X-Request-Id"), seen)
			}
			if tt.reuse && seen != tt.inbound {
				t.Fatalf("expected inbound id reused, got %q", seen)
			}
			if !tt.reuse && seen == tt.inbound {
				t.Fatalf("expected inbound id replaced")
			}
		})
	}
}
