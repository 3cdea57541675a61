package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Resume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Resume)}
}

// Create stores a résumé.
func (r *MemoryRepo) Create(ctx context.Context, res Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Status == "" {
		res.Status = StatusPending
	}
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = res.CreatedAt
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[res.ID] = res
	return nil
}

// GetByID returns a résumé owned by ownerID.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.data[id]
	if !ok || res.OwnerID != ownerID {
		return Resume{}, ErrNotFound
	}
	return res, nil
}

// ListByUser returns résumés for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, ownerID string, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	out := make([]Resume, 0)
	for _, res := range r.data {
		if res.OwnerID == ownerID {
			out = append(out, res)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Resume{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// UpdateParse applies the update atomically under the write lock.
func (r *MemoryRepo) UpdateParse(ctx context.Context, id string, update ParseUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	update.Apply(&res)
	res.UpdatedAt = time.Now().UTC()
	r.data[id] = res
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
