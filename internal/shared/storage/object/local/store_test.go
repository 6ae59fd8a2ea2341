package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"intake-backend/internal/shared/storage/object"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestSaveCreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := New(dir)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected directory to be absent before first save")
	}

	key, size, mimeType, err := store.Save(context.Background(), "imagen-1-2.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if key != "imagen-1-2.png" {
		t.Fatalf("unexpected key %q", key)
	}
	if size != int64(len(pngHeader)) {
		t.Fatalf("expected size %d, got %d", len(pngHeader), size)
	}
	if mimeType != "image/png" {
		t.Fatalf("expected image/png, got %q", mimeType)
	}

	// A second save with a new name must not fail on the existing directory.
	if _, _, _, err := store.Save(context.Background(), "imagen-1-3.png", bytes.NewReader(pngHeader)); err != nil {
		t.Fatalf("second save: %v", err)
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, _, _, err := store.Save(ctx, "imagen-1-1.jpg", bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, _, _, err := store.Save(ctx, "imagen-1-1.jpg", bytes.NewReader([]byte("second")))
	if !errors.Is(err, object.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	rc, err := store.Open(ctx, "imagen-1-1.jpg")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "first" {
		t.Fatalf("expected original content, got %q", data)
	}
}

func TestOpenRejectsTraversalAndMissing(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.Open(context.Background(), "missing.jpg"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
