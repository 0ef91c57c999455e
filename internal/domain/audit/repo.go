package audit

import (
	"context"
)

// Repository is an append-only entry log. Append assigns Seq; every read
// returns entries in Seq order and an empty slice when nothing matches.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	All(ctx context.Context) ([]*Entry, error)
	ByActor(ctx context.Context, actor string) ([]*Entry, error)
	BySubject(ctx context.Context, subject string) ([]*Entry, error)
	Count(ctx context.Context) (int, error)
}
