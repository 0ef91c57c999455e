package identity

import (
	"context"
)

// Repository persists identities. Get returns apperr.ErrNotFound for unknown
// ids; List returns identities in registration order.
type Repository interface {
	Create(ctx context.Context, i *Identity) error
	Get(ctx context.Context, id string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)
}
