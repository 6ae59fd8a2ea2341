package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"intake-backend/internal/llm"
	"intake-backend/internal/shared/config"
)

type staticExtractor struct {
	raw   []byte
	calls int
}

func (s *staticExtractor) Extract(ctx context.Context, req llm.ExtractionRequest) (json.RawMessage, error) {
	s.calls++
	return s.raw, nil
}

func fixture(t *testing.T) []byte {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	b, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "intake", "testdata", "valid.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return b
}

func newTestServer(t *testing.T, ext llm.Extractor) (*httptest.Server, *http.Client) {
	t.Helper()
	cfg := config.Config{
		Env:                      "dev",
		SessionSecret:            "test-secret",
		SessionTTL:               time.Hour,
		AdminUsername:            "admin",
		AdminPassword:            "admin",
		ObjectStoreType:          "local",
		LocalStoreDir:            t.TempDir(),
		MaxConcurrentExtractions: 2,
		ExtractionQueueWait:      time.Second,
		ExtractionTimeout:        5 * time.Second,
		MaxUploadBytes:           1 << 20,
	}
	app, err := Build(context.Background(), cfg, Options{Extractor: ext})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != location {
		t.Fatalf("expected 302 to %s, got %d %q", location, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginUploadLogoutFlow(t *testing.T) {
	valid := fixture(t)
	ext := &staticExtractor{raw: valid}
	srv, client := newTestServer(t, ext)

	resp, err := client.Get(srv.URL + "/form")
	if err != nil {
		t.Fatalf("GET /form: %v", err)
	}
	expectRedirect(t, resp, "/login")

	resp, err = client.PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"admin"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	expectRedirect(t, resp, "/form")

	resp, err = client.Get(srv.URL + "/form")
	if err != nil {
		t.Fatalf("GET /form: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on /form after login, got %d", resp.StatusCode)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("imagen", "hoja.png")
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\nimage"))
	_ = mw.Close()
	resp, err = client.Post(srv.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /upload, got %d: %s", resp.StatusCode, got)
	}
	if !bytes.Equal(bytes.TrimSpace(got), bytes.TrimSpace(valid)) {
		t.Fatalf("upload response differs from extraction payload")
	}
	if ext.calls != 1 {
		t.Fatalf("expected one extraction call, got %d", ext.calls)
	}

	resp, err = client.PostForm(srv.URL+"/submit-form", url.Values{"datos": {string(got)}})
	if err != nil {
		t.Fatalf("POST /submit-form: %v", err)
	}
	expectRedirect(t, resp, "/confirmation")

	resp, err = client.Get(srv.URL + "/logout")
	if err != nil {
		t.Fatalf("GET /logout: %v", err)
	}
	expectRedirect(t, resp, "/login")

	resp, err = client.Get(srv.URL + "/confirmation")
	if err != nil {
		t.Fatalf("GET /confirmation: %v", err)
	}
	expectRedirect(t, resp, "/login")
}

func TestBadLoginStaysAnonymous(t *testing.T) {
	srv, client := newTestServer(t, &staticExtractor{})

	resp, err := client.PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(string(b), "Invalid username or password") {
		t.Fatalf("expected inline failure page, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/form")
	if err != nil {
		t.Fatalf("GET /form: %v", err)
	}
	expectRedirect(t, resp, "/login")
}

func TestUploadRequiresLogin(t *testing.T) {
	ext := &staticExtractor{}
	srv, client := newTestServer(t, ext)

	resp, err := client.Post(srv.URL+"/upload", "multipart/form-data; boundary=x", strings.NewReader(""))
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	expectRedirect(t, resp, "/login")
	if ext.calls != 0 {
		t.Fatalf("extractor must not be called")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, client := newTestServer(t, &staticExtractor{})
	for _, path := range []string{"/healthz", "/metrics", "/static/app.css"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
