package uploads

import "context"

// Repo stores upload metadata.
type Repo interface {
	Create(ctx context.Context, f UploadedFile) error
	GetByStoredName(ctx context.Context, storedName string) (UploadedFile, error)
	ListBySession(ctx context.Context, sessionHash string, limit int) ([]UploadedFile, error)
}
