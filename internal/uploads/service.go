package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"intake-backend/internal/shared/storage/object"
	"intake-backend/internal/shared/util"
)

// maxNameAttempts bounds retries when a generated stored name is already taken.
const maxNameAttempts = 3

// Service persists uploaded images and their metadata.
type Service struct {
	Store           object.ObjectStore
	Repo            Repo
	StorageProvider string
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Save stores the image under a fresh collision-safe name and records it.
// r must be seekable so a name collision can be retried with a new name.
func (s *Service) Save(ctx context.Context, sessionHash, originalName string, r io.ReadSeeker) (UploadedFile, error) {
	if r == nil {
		return UploadedFile{}, ErrInvalidInput
	}
	displayName, err := util.SanitizeFileName(originalName)
	if err != nil {
		displayName = "upload"
	}

	var (
		storedName, key, mimeType string
		size                      int64
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if attempt > 0 {
			if _, err := r.Seek(0, io.SeekStart); err != nil {
				return UploadedFile{}, fmt.Errorf("rewind upload: %w", err)
			}
		}
		storedName = util.StoredName(FieldName, originalName, s.now())
		key, size, mimeType, err = s.Store.Save(ctx, storedName, r)
		if err == nil {
			break
		}
		if !errors.Is(err, object.ErrExists) {
			return UploadedFile{}, fmt.Errorf("store upload: %w", err)
		}
	}
	if err != nil {
		return UploadedFile{}, fmt.Errorf("store upload after %d attempts: %w", maxNameAttempts, err)
	}

	f := UploadedFile{
		ID:              uuid.NewString(),
		SessionHash:     sessionHash,
		OriginalName:    displayName,
		StoredName:      storedName,
		StorageKey:      key,
		StorageProvider: strings.TrimSpace(s.StorageProvider),
		MimeType:        mimeType,
		SizeBytes:       size,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		return UploadedFile{}, fmt.Errorf("record upload: %w", err)
	}
	return f, nil
}

// Open returns the record and a reader for a stored upload.
func (s *Service) Open(ctx context.Context, storedName string) (UploadedFile, io.ReadCloser, error) {
	f, err := s.Repo.GetByStoredName(ctx, storedName)
	if err != nil {
		return UploadedFile{}, nil, err
	}
	rc, err := s.Store.Open(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return UploadedFile{}, nil, ErrNotFound
		}
		return UploadedFile{}, nil, err
	}
	return f, rc, nil
}
