package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Extractor abstracts multimodal providers that turn a form image into JSON.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (json.RawMessage, error)
}

// ExtractionRequest is built once per upload and never mutated.
type ExtractionRequest struct {
	ImageBase64 string
	MimeType    string
	Instruction string
}

// NewExtractionRequest pairs an encoded image with the fixed intake instruction.
func NewExtractionRequest(imageBase64, mimeType string) ExtractionRequest {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/jpeg"
	}
	return ExtractionRequest{
		ImageBase64: imageBase64,
		MimeType:    mimeType,
		Instruction: IntakeInstruction(),
	}
}

// DataURL renders the image as a data URL for providers that take image URLs.
func (r ExtractionRequest) DataURL() string {
	return "data:" + r.MimeType + ";base64," + r.ImageBase64
}

// ErrNotImplemented is returned by the placeholder extractor.
var ErrNotImplemented = errors.New("extraction provider not configured")

// PlaceholderExtractor is used in dev when no provider key is set.
type PlaceholderExtractor struct{}

// Extract returns ErrNotImplemented.
func (PlaceholderExtractor) Extract(ctx context.Context, req ExtractionRequest) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}
