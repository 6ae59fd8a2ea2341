package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SESSION_SECRET", "LLM_PROVIDER", "EXTRACTION_TIMEOUT", "LOCAL_STORE_DIR", "QUEUE_BACKEND", "ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %q", cfg.Port)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.LLMProvider)
	}
	if cfg.ExtractionTimeout != 120*time.Second {
		t.Fatalf("unexpected extraction timeout %s", cfg.ExtractionTimeout)
	}
	if cfg.LocalStoreDir != "./uploads" {
		t.Fatalf("unexpected store dir %q", cfg.LocalStoreDir)
	}
	if cfg.SessionSecret == "" {
		t.Fatalf("expected dev session secret fallback")
	}
	if cfg.QueueBackend != "none" {
		t.Fatalf("expected no queue backend, got %q", cfg.QueueBackend)
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "go duration", raw: "45s", want: 45 * time.Second},
		{name: "bare seconds", raw: "30", want: 30 * time.Second},
		{name: "invalid", raw: "soon", want: time.Minute},
		{name: "empty", raw: "", want: time.Minute},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.raw)
			if got := getDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNormalizers(t *testing.T) {
	if got := normalizeProvider("Google"); got != "gemini" {
		t.Fatalf("expected gemini, got %q", got)
	}
	if got := normalizeQueueBackend("rabbitmq"); got != "amqp" {
		t.Fatalf("expected amqp, got %q", got)
	}
	if got := normalizeEnv("prod"); got != "production" {
		t.Fatalf("expected production, got %q", got)
	}
}
