package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSameOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SameOrigin([]string{"https://intake.example.org/"}))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/login", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name    string
		method  string
		origin  string
		referer string
		want    int
	}{
		{name: "same host", method: http.MethodPost, origin: "http://example.com", want: http.StatusNoContent},
		{name: "no headers", method: http.MethodPost, want: http.StatusNoContent},
		{name: "trusted origin", method: http.MethodPost, origin: "https://intake.example.org", want: http.StatusNoContent},
		{name: "cross site", method: http.MethodPost, origin: "https://evil.test", want: http.StatusForbidden},
		{name: "cross site referer", method: http.MethodPost, referer: "https://evil.test/form", want: http.StatusForbidden},
		{name: "get ignored", method: http.MethodGet, origin: "https://evil.test", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/login", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
		})
	}
}
