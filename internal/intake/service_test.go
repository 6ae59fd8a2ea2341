package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"intake-backend/internal/llm"
	"intake-backend/internal/queue"
)

func TestProcessReturnsValidatedResult(t *testing.T) {
	ext := &fakeExtractor{raw: loadValid(t)}
	svc := newTestService(t, ext)

	out, err := svc.Process(context.Background(), "sess", "hoja.png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !bytes.Equal(out.Raw, loadValid(t)) {
		t.Fatalf("raw payload was altered")
	}
	if out.Result == nil || out.Result.Folio != "0457" {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Upload.MimeType != "image/png" {
		t.Fatalf("unexpected mime %q", out.Upload.MimeType)
	}
	if ext.last.MimeType != "image/png" || ext.last.Instruction != llm.IntakeInstruction() {
		t.Fatalf("unexpected request %+v", ext.last)
	}
	decoded, err := base64.StdEncoding.DecodeString(ext.last.ImageBase64)
	if err != nil || !bytes.Equal(decoded, pngBytes) {
		t.Fatalf("image not sent as standard base64")
	}
}

func TestProcessMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  *fakeExtractor
		want error
	}{
		{"service failure", &fakeExtractor{err: errors.New("status 401")}, ErrService},
		{"not json", &fakeExtractor{raw: []byte("lo siento, no puedo")}, ErrMalformedResult},
		{"wrong shape", &fakeExtractor{raw: []byte(`{"Folio":"1"}`)}, ErrNonConformingResult},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.ext)
			out, err := svc.Process(context.Background(), "sess", "a.png", bytes.NewReader(pngBytes))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if out.Raw != nil || out.Result != nil {
				t.Fatalf("expected no partial result")
			}
			if out.Upload.StoredName == "" {
				t.Fatalf("expected upload to be recorded")
			}
		})
	}
}

func TestProcessMissingReader(t *testing.T) {
	ext := &fakeExtractor{}
	svc := newTestService(t, ext)
	if _, err := svc.Process(context.Background(), "sess", "a.png", nil); !errors.Is(err, ErrMissingUpload) {
		t.Fatalf("expected ErrMissingUpload, got %v", err)
	}
	if ext.Calls() != 0 {
		t.Fatalf("extractor must not be called")
	}
}

func TestProcessEmptyImageIsEncodingError(t *testing.T) {
	ext := &fakeExtractor{}
	svc := newTestService(t, ext)
	_, err := svc.Process(context.Background(), "sess", "a.png", bytes.NewReader(nil))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	if ext.Calls() != 0 {
		t.Fatalf("extractor must not be called")
	}
}

func TestExtractTimeoutIsServiceError(t *testing.T) {
	ext := &fakeExtractor{block: make(chan struct{})}
	svc := newTestService(t, ext)
	svc.Timeout = 20 * time.Millisecond

	_, err := svc.Process(context.Background(), "sess", "a.png", bytes.NewReader(pngBytes))
	if !errors.Is(err, ErrService) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout service error, got %v", err)
	}
}

func TestExtractBusy(t *testing.T) {
	ext := &fakeExtractor{raw: loadValid(t)}
	svc := newTestService(t, ext)
	svc.Limiter = NewLimiter(1, 10*time.Millisecond)

	release, err := svc.Limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	_, err = svc.Process(context.Background(), "sess", "a.png", bytes.NewReader(pngBytes))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if ext.Calls() != 0 {
		t.Fatalf("extractor must not be called when busy")
	}
}

func TestSubmitPublishesEvent(t *testing.T) {
	q := &recordingQueue{}
	svc := newTestService(t, &fakeExtractor{})
	svc.Queue = q

	id, err := svc.Submit(context.Background(), Submission{
		SessionHash: "sess",
		RequestID:   "req-1",
		Fields:      map[string][]string{"datos": {"{}"}, "Folio": {"A", "B"}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(q.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(q.msgs))
	}
	msg := q.msgs[0]
	if msg.Type != queue.EventIntakeSubmitted || msg.SubmissionID != id || msg.RequestID != "req-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Fields["Folio"] != "A,B" || msg.EnqueuedAt != "2026-04-01T12:00:00Z" {
		t.Fatalf("unexpected fields %+v", msg)
	}
}

func TestSubmitWithoutQueue(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{})
	id, err := svc.Submit(context.Background(), Submission{Fields: map[string][]string{"a": {"b"}}})
	if err != nil || id == "" {
		t.Fatalf("unexpected result id=%q err=%v", id, err)
	}
}

func TestSubmitPublishFailure(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{})
	svc.Queue = &recordingQueue{err: errors.New("broker down")}
	if _, err := svc.Submit(context.Background(), Submission{}); err == nil {
		t.Fatalf("expected publish error")
	}
}
