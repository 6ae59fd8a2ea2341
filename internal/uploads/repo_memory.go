package uploads

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	byName map[string]UploadedFile
	order  []string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byName: make(map[string]UploadedFile)}
}

func (r *MemoryRepo) Create(ctx context.Context, f UploadedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[f.StoredName] = f
	r.order = append(r.order, f.StoredName)
	return nil
}

func (r *MemoryRepo) GetByStoredName(ctx context.Context, storedName string) (UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return UploadedFile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[storedName]
	if !ok {
		return UploadedFile{}, ErrNotFound
	}
	return f, nil
}

// ListBySession returns the newest uploads first.
func (r *MemoryRepo) ListBySession(ctx context.Context, sessionHash string, limit int) ([]UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []UploadedFile
	for i := len(r.order) - 1; i >= 0; i-- {
		f := r.byName[r.order[i]]
		if f.SessionHash != sessionHash {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
