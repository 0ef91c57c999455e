package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only audit log. Appending needs no authorization;
// the ledger only records what callers tell it.
type Ledger struct {
	mu   sync.RWMutex
	repo Repository
	now  func() time.Time
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Append records an entry stamped with the current time. Empty fields are
// stored as given.
func (l *Ledger) Append(ctx context.Context, actor, actionType, subject, details string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := &Entry{
		ID:         uuid.New().String(),
		Actor:      actor,
		ActionType: actionType,
		Subject:    subject,
		Details:    details,
		Timestamp:  l.now(),
	}
	if err := l.repo.Append(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Query returns every entry in insertion order.
func (l *Ledger) Query(ctx context.Context) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.repo.All(ctx)
}

// QueryByActor returns entries whose actor equals actor, in insertion order.
func (l *Ledger) QueryByActor(ctx context.Context, actor string) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.repo.ByActor(ctx, actor)
}

// QueryBySubject returns entries whose subject equals subject, in insertion
// order.
func (l *Ledger) QueryBySubject(ctx context.Context, subject string) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.repo.BySubject(ctx, subject)
}

// Find dispatches a Filter to the matching query. With both fields set it
// returns the actor's entries for that subject.
func (l *Ledger) Find(ctx context.Context, f Filter) ([]*Entry, error) {
	switch {
	case f.Actor != "" && f.Subject != "":
		byActor, err := l.QueryByActor(ctx, f.Actor)
		if err != nil {
			return nil, err
		}
		out := make([]*Entry, 0, len(byActor))
		for _, e := range byActor {
			if e.Subject == f.Subject {
				out = append(out, e)
			}
		}
		return out, nil
	case f.Actor != "":
		return l.QueryByActor(ctx, f.Actor)
	case f.Subject != "":
		return l.QueryBySubject(ctx, f.Subject)
	default:
		return l.Query(ctx)
	}
}

func (l *Ledger) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.repo.Count(ctx)
}
