package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrExists is returned when a stored name is already taken; objects are never overwritten.
	ErrExists = errors.New("object already exists")
	// ErrNotFound is returned by Open for unknown keys.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore defines the contract for saving and retrieving uploaded images.
type ObjectStore interface {
	Save(ctx context.Context, storedName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
