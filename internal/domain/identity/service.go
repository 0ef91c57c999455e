package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

// Registry is the root of trust: it maps principal ids to a display name and
// a role. Writes are serialized by mu; reads share it.
type Registry struct {
	mu     sync.RWMutex
	repo   Repository
	events events.Publisher
}

func NewRegistry(repo Repository, pub events.Publisher) *Registry {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Registry{repo: repo, events: pub}
}

// Bootstrap seeds the initial administrator. It is a no-op when id is
// already registered as an admin.
func (r *Registry) Bootstrap(ctx context.Context, id, name string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("bootstrap admin id: %w", apperr.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.repo.Get(ctx, id)
	switch {
	case err == nil && existing.Role == RoleAdmin:
		return nil
	case err == nil:
		return fmt.Errorf("bootstrap admin %s is registered as %s: %w", id, existing.Role, apperr.ErrAlreadyRegistered)
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}
	return r.repo.Create(ctx, &Identity{
		ID: id, Name: name, Role: RoleAdmin, Registered: true, CreatedAt: time.Now().UTC(),
	})
}

// Register creates a new identity. The caller must be a registered admin.
func (r *Registry) Register(ctx context.Context, caller, id, name string, role Role) (*Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("id is required: %w", apperr.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q: %w", role, apperr.ErrInvalidInput)
	}

	r.mu.Lock()
	ident, err := r.register(ctx, caller, id, name, role)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	r.events.Publish(ctx, events.New(events.IdentityRegistered, caller, id, map[string]string{
		"role": string(role),
		"name": name,
	}))
	return ident, nil
}

func (r *Registry) register(ctx context.Context, caller, id, name string, role Role) (*Identity, error) {
	admin, err := r.repo.Get(ctx, caller)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if err != nil || admin.Role != RoleAdmin {
		return nil, fmt.Errorf("register %s by %s: %w", id, caller, apperr.ErrUnauthorized)
	}

	if _, err := r.repo.Get(ctx, id); err == nil {
		return nil, fmt.Errorf("register %s: %w", id, apperr.ErrAlreadyRegistered)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	ident := &Identity{ID: id, Name: name, Role: role, Registered: true, CreatedAt: time.Now().UTC()}
	if err := r.repo.Create(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// Lookup returns the identity registered under id.
func (r *Registry) Lookup(ctx context.Context, id string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ident, err := r.repo.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", id, apperr.ErrNotRegistered)
	}
	return ident, err
}

// HasRole reports whether id is registered with the given role.
func (r *Registry) HasRole(ctx context.Context, id string, role Role) (bool, error) {
	ident, err := r.Lookup(ctx, id)
	if errors.Is(err, apperr.ErrNotRegistered) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ident.Role == role, nil
}

// RoleOf returns the role registered for id.
func (r *Registry) RoleOf(ctx context.Context, id string) (Role, error) {
	ident, err := r.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return ident.Role, nil
}

// List returns identities in registration order, optionally filtered by role.
func (r *Registry) List(ctx context.Context, role Role) ([]*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return all, nil
	}
	out := make([]*Identity, 0, len(all))
	for _, i := range all {
		if i.Role == role {
			out = append(out, i)
		}
	}
	return out, nil
}

// DisplayName resolves doctors and patients for human-readable views.
// Admins and unknown principals render as the raw id.
func (r *Registry) DisplayName(ctx context.Context, id string) string {
	ident, err := r.Lookup(ctx, id)
	if err != nil || ident.Role == RoleAdmin {
		return id
	}
	return ident.DisplayName()
}
