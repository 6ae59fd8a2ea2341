package intake

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"intake-backend/internal/imagecodec"
	"intake-backend/internal/llm"
	"intake-backend/internal/queue"
	"intake-backend/internal/shared/storage/object/local"
	"intake-backend/internal/uploads"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	last  llm.ExtractionRequest
	raw   json.RawMessage
	err   error
	block chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, req llm.ExtractionRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.raw, f.err
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return q.err
}

func newTestService(t *testing.T, ext llm.Extractor) *Service {
	t.Helper()
	store := local.New(t.TempDir())
	return &Service{
		Uploads:   &uploads.Service{Store: store, Repo: uploads.NewMemoryRepo(), StorageProvider: "local"},
		Encoder:   &imagecodec.Encoder{Store: store},
		Extractor: ext,
		Limiter:   NewLimiter(2, 50*time.Millisecond),
		Timeout:   time.Second,
		Now:       func() time.Time { return time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC) },
	}
}

// pngBytes is a PNG signature followed by filler; enough for MIME sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfiller")
