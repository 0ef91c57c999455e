package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps the log in a slice with per-actor and per-subject
// position indexes.
type MemoryRepo struct {
	mu        sync.RWMutex
	entries   []*Entry
	byActor   map[string][]int
	bySubject map[string][]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byActor:   make(map[string][]int),
		bySubject: make(map[string][]int),
	}
}

func (r *MemoryRepo) Append(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := len(r.entries)
	e.Seq = uint64(idx + 1)
	cp := *e
	r.entries = append(r.entries, &cp)
	r.byActor[e.Actor] = append(r.byActor[e.Actor], idx)
	r.bySubject[e.Subject] = append(r.bySubject[e.Subject], idx)
	return nil
}

func (r *MemoryRepo) All(_ context.Context) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepo) ByActor(_ context.Context, actor string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pick(r.byActor[actor]), nil
}

func (r *MemoryRepo) BySubject(_ context.Context, subject string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pick(r.bySubject[subject]), nil
}

func (r *MemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

func (r *MemoryRepo) pick(idx []int) []*Entry {
	out := make([]*Entry, 0, len(idx))
	for _, i := range idx {
		cp := *r.entries[i]
		out = append(out, &cp)
	}
	return out
}
