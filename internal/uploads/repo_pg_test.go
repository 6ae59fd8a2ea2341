package uploads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var uploadColumns = []string{"id", "session_hash", "original_name", "stored_name", "storage_key", "storage_provider", "mime_type", "size_bytes", "created_at"}

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	f := UploadedFile{
		ID:           "u-1",
		SessionHash:  "sess",
		OriginalName: "a.png",
		StoredName:   "imagen-1-2.png",
		StorageKey:   "imagen-1-2.png",
		MimeType:     "image/png",
		SizeBytes:    12,
		CreatedAt:    now,
	}
	mock.ExpectExec("INSERT INTO uploads").
		WithArgs("u-1", "sess", "a.png", "imagen-1-2.png", "imagen-1-2.png", "local", "image/png", int64(12), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByStoredName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, session_hash").
		WithArgs("imagen-1-2.png").
		WillReturnRows(sqlmock.NewRows(uploadColumns).
			AddRow("u-1", "sess", "a.png", "imagen-1-2.png", "k", "s3", "image/png", int64(12), now))

	repo := &PGRepo{DB: db}
	f, err := repo.GetByStoredName(context.Background(), "imagen-1-2.png")
	if err != nil {
		t.Fatalf("GetByStoredName: %v", err)
	}
	if f.StorageProvider != "s3" || f.StorageKey != "k" || f.SizeBytes != 12 {
		t.Fatalf("unexpected record %+v", f)
	}
}

func TestPGRepoGetByStoredNameMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, session_hash").WillReturnRows(sqlmock.NewRows(uploadColumns))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByStoredName(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListBySessionClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, session_hash").
		WithArgs("sess", 100).
		WillReturnRows(sqlmock.NewRows(uploadColumns).
			AddRow("u-2", "sess", "b.png", "b", "b", "local", "image/png", int64(1), now).
			AddRow("u-1", "sess", "a.png", "a", "a", "local", "image/png", int64(1), now))

	repo := &PGRepo{DB: db}
	out, err := repo.ListBySession(context.Background(), "sess", 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(out) != 2 || out[0].ID != "u-2" {
		t.Fatalf("unexpected list %+v", out)
	}
}
