package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"intake-backend/internal/llm"
)

func TestExtractSendsTextAndImageParts(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"{\"Folio\":\"A-12\"}"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", "", srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	raw, err := client.Extract(context.Background(), llm.NewExtractionRequest("QUJD", "image/png"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(raw) != `{"Folio":"A-12"}` {
		t.Fatalf("unexpected payload %s", raw)
	}

	if captured.Model != DefaultModel {
		t.Fatalf("expected default model, got %q", captured.Model)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %q", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 1 || len(captured.Messages[0].Content) != 2 {
		t.Fatalf("expected one message with two parts, got %+v", captured.Messages)
	}
	parts := captured.Messages[0].Content
	if parts[0].Type != "text" || !strings.Contains(parts[0].Text, "Hoja de Inscripción") {
		t.Fatalf("unexpected text part %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/png;base64,QUJD" {
		t.Fatalf("unexpected image part %+v", parts[1])
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"invalid_request_error"}}`, wantErr: "bad key"},
		{name: "non json status", status: http.StatusBadGateway, body: `upstream down`, wantErr: "status 502"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "missing choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`, wantErr: "empty content"},
		{name: "refusal", status: http.StatusOK, body: `{"choices":[{"message":{"content":"","refusal":"cannot help"}}]}`, wantErr: "refused"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewClient("sk-test", "gpt-4o", srv.URL)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = client.Extract(context.Background(), llm.NewExtractionRequest("QUJD", "image/jpeg"))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "gpt-4o", ""); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
