package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"intake-backend/internal/imagecodec"
	"intake-backend/internal/llm"
	"intake-backend/internal/queue"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/uploads"
)

const defaultExtractionTimeout = 120 * time.Second

// Service runs the upload → encode → extract → validate pipeline.
type Service struct {
	Uploads   *uploads.Service
	Encoder   *imagecodec.Encoder
	Extractor llm.Extractor
	Limiter   *Limiter
	Timeout   time.Duration
	Queue     queue.Client
	Now       func() time.Time
}

// Outcome is a validated extraction along with the upload it came from.
type Outcome struct {
	Upload uploads.UploadedFile
	Raw    json.RawMessage
	Result *ExtractionResult
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultExtractionTimeout
}

// Process stores the image and extracts the intake data from it.
func (s *Service) Process(ctx context.Context, sessionHash, originalName string, r io.ReadSeeker) (Outcome, error) {
	if r == nil {
		return Outcome{}, ErrMissingUpload
	}
	f, err := s.Uploads.Save(ctx, sessionHash, originalName, r)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	telemetry.Info("intake.upload.stored", map[string]any{
		"session":     sessionHash,
		"upload_id":   f.ID,
		"stored_name": f.StoredName,
		"mime_type":   f.MimeType,
		"size_bytes":  f.SizeBytes,
	})

	raw, result, err := s.Extract(ctx, f)
	if err != nil {
		return Outcome{Upload: f}, err
	}
	return Outcome{Upload: f, Raw: raw, Result: result}, nil
}

// Extract runs extraction on an already stored upload.
func (s *Service) Extract(ctx context.Context, f uploads.UploadedFile) (json.RawMessage, *ExtractionResult, error) {
	encoded, err := s.Encoder.Encode(ctx, f.StorageKey, f.MimeType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	release, err := s.Limiter.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			metrics.IncExtractionRejected()
		}
		return nil, nil, err
	}
	defer release()

	metrics.IncExtractionStarted()
	start := time.Now()
	raw, result, err := s.extract(ctx, encoded)
	metrics.ObserveExtractionDurationMs(metrics.SinceMillis(start))
	if err != nil {
		metrics.IncExtractionFailed()
		telemetry.Error("intake.extract.failed", map[string]any{
			"upload_id":      f.ID,
			"prompt_version": llm.IntakePromptVersion,
			"resized":        encoded.Resized,
			"duration_ms":    metrics.SinceMillis(start),
			"err":            err,
		})
		return nil, nil, err
	}
	metrics.IncExtractionCompleted()

	sum := sha256.Sum256(raw)
	telemetry.Info("intake.extract.completed", map[string]any{
		"upload_id":      f.ID,
		"prompt_version": llm.IntakePromptVersion,
		"resized":        encoded.Resized,
		"duration_ms":    metrics.SinceMillis(start),
		"output_len":     len(raw),
		"output_sha256":  hex.EncodeToString(sum[:]),
	})
	return raw, result, nil
}

func (s *Service) extract(ctx context.Context, encoded imagecodec.Encoded) (json.RawMessage, *ExtractionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	req := llm.NewExtractionRequest(encoded.Base64, encoded.MimeType)
	raw, err := s.Extractor.Extract(callCtx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	result, err := ParseResult(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, result, nil
}

// Submission is a reviewed form posted back by the user.
type Submission struct {
	ID          string
	SessionHash string
	RequestID   string
	Fields      map[string][]string
}

// Submit records a reviewed form. Field values never reach the logs; they are
// only forwarded to the queue when one is configured.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	names := make([]string, 0, len(sub.Fields))
	flat := make(map[string]string, len(sub.Fields))
	for k, vals := range sub.Fields {
		names = append(names, k)
		flat[k] = strings.Join(vals, ",")
	}
	sort.Strings(names)

	telemetry.Info("intake.submit.received", map[string]any{
		"session":       sub.SessionHash,
		"submission_id": sub.ID,
		"field_count":   len(names),
		"fields":        strings.Join(names, ","),
	})

	if s.Queue == nil {
		return sub.ID, nil
	}
	msg := queue.Message{
		Type:         queue.EventIntakeSubmitted,
		SubmissionID: sub.ID,
		SessionHash:  sub.SessionHash,
		RequestID:    sub.RequestID,
		Fields:       flat,
		EnqueuedAt:   s.now().Format(time.RFC3339),
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return sub.ID, fmt.Errorf("publish submission: %w", err)
	}
	return sub.ID, nil
}
