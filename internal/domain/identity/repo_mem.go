package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

// MemoryRepo keeps identities in process memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Identity
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]*Identity)}
}

func (r *MemoryRepo) Create(_ context.Context, i *Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[i.ID]; ok {
		return fmt.Errorf("identity %s: %w", i.ID, apperr.ErrAlreadyRegistered)
	}
	cp := *i
	r.byID[i.ID] = &cp
	r.order = append(r.order, i.ID)
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, apperr.ErrNotFound)
	}
	cp := *i
	return &cp, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Identity, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}
