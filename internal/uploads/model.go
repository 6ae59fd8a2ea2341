package uploads

import (
	"errors"
	"time"
)

// FieldName is the multipart field the intake form posts its image under.
const FieldName = "imagen"

var (
	ErrNotFound     = errors.New("upload not found")
	ErrInvalidInput = errors.New("invalid upload")
)

// UploadedFile records one persisted image. Records are never mutated.
type UploadedFile struct {
	ID              string
	SessionHash     string
	OriginalName    string
	StoredName      string
	StorageKey      string
	StorageProvider string
	MimeType        string
	SizeBytes       int64
	CreatedAt       time.Time
}
