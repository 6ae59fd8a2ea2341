package imagecodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"intake-backend/internal/shared/storage/object"
)

// ErrEmptyImage is returned when the stored object has no bytes.
var ErrEmptyImage = errors.New("image is empty")

const fallbackMime = "image/jpeg"

// Encoded is the transmission form of a stored image.
type Encoded struct {
	Base64    string
	MimeType  string
	SizeBytes int
	Resized   bool
}

// Encoder reads stored images and produces standard base64 text.
// MaxDimension > 0 shrinks larger scans to fit before encoding.
type Encoder struct {
	Store        object.ObjectStore
	MaxDimension int
}

// Encode reads the object at storageKey in full and base64-encodes it.
func (e *Encoder) Encode(ctx context.Context, storageKey, mimeType string) (Encoded, error) {
	rc, err := e.Store.Open(ctx, storageKey)
	if err != nil {
		return Encoded{}, fmt.Errorf("open %s: %w", storageKey, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Encoded{}, fmt.Errorf("read %s: %w", storageKey, err)
	}
	if len(data) == 0 {
		return Encoded{}, ErrEmptyImage
	}

	out := Encoded{MimeType: normalizeMime(mimeType)}
	if e.MaxDimension > 0 {
		if resized, ok := downscale(data, e.MaxDimension); ok {
			data = resized
			out.MimeType = "image/jpeg"
			out.Resized = true
		}
	}

	out.Base64 = base64.StdEncoding.EncodeToString(data)
	out.SizeBytes = len(data)
	return out, nil
}

// downscale returns a JPEG re-encode when the image exceeds maxDim on either side.
// Formats imaging cannot decode are passed through untouched.
func downscale(data []byte, maxDim int) ([]byte, bool) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return nil, false
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func normalizeMime(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return fallbackMime
}
