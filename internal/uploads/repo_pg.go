package uploads

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new upload record.
func (r *PGRepo) Create(ctx context.Context, f UploadedFile) error {
	const query = `
INSERT INTO uploads (
    id,
    session_hash,
    original_name,
    stored_name,
    storage_key,
    storage_provider,
    mime_type,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	provider := f.StorageProvider
	if provider == "" {
		provider = "local"
	}

	_, err := r.DB.ExecContext(ctx, query,
		f.ID,
		f.SessionHash,
		f.OriginalName,
		f.StoredName,
		f.StorageKey,
		provider,
		f.MimeType,
		f.SizeBytes,
		f.CreatedAt,
	)
	return err
}

const selectColumns = `id, session_hash, original_name, stored_name, storage_key, storage_provider, mime_type, size_bytes, created_at`

// GetByStoredName returns the record for a stored file name.
func (r *PGRepo) GetByStoredName(ctx context.Context, storedName string) (UploadedFile, error) {
	query := `SELECT ` + selectColumns + ` FROM uploads WHERE stored_name = $1`
	f, err := scanUpload(r.DB.QueryRowContext(ctx, query, storedName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UploadedFile{}, ErrNotFound
		}
		return UploadedFile{}, err
	}
	return f, nil
}

// ListBySession returns the newest uploads of a session first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionHash string, limit int) ([]UploadedFile, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := `SELECT ` + selectColumns + ` FROM uploads WHERE session_hash = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, sessionHash, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UploadedFile
	for rows.Next() {
		f, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (UploadedFile, error) {
	var f UploadedFile
	err := row.Scan(
		&f.ID,
		&f.SessionHash,
		&f.OriginalName,
		&f.StoredName,
		&f.StorageKey,
		&f.StorageProvider,
		&f.MimeType,
		&f.SizeBytes,
		&f.CreatedAt,
	)
	return f, err
}

var _ Repo = (*PGRepo)(nil)
