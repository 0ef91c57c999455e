package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

// Subscriber is the part of the event bus the recorder needs.
type Subscriber interface {
	Subscribe(pattern string, h events.Handler)
}

// Recorder turns committed domain events into ledger entries. It plays the
// part of the auditing client that follows every state change with an
// append.
type Recorder struct {
	ledger *Ledger
	logger zerolog.Logger
}

func NewRecorder(ledger *Ledger, logger zerolog.Logger) *Recorder {
	return &Recorder{ledger: ledger, logger: logger}
}

// Attach subscribes the recorder to every event type it understands.
func (r *Recorder) Attach(bus Subscriber) {
	for _, t := range []string{
		events.IdentityRegistered,
		events.AccessGranted,
		events.AccessRevoked,
		events.RecordAdded,
		events.RecordUpdated,
	} {
		bus.Subscribe(t, r.Handle)
	}
}

// Handle appends the entry for e.
func (r *Recorder) Handle(ctx context.Context, e events.Event) error {
	actor, action, subject, details, ok := describe(e)
	if !ok {
		return nil
	}
	entry, err := r.ledger.Append(ctx, actor, action, subject, details)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Type, err)
	}
	r.logger.Debug().
		Str("event_id", e.ID).
		Uint64("seq", entry.Seq).
		Str("action", action).
		Msg("audit entry recorded")
	return nil
}

func describe(e events.Event) (actor, action, subject, details string, ok bool) {
	switch e.Type {
	case events.IdentityRegistered:
		role := e.Attrs["role"]
		return e.Actor, strings.ToUpper(role) + "_REGISTERED", e.Subject,
			fmt.Sprintf("Registered new %s: %s", role, e.Attrs["name"]), true
	case events.AccessGranted:
		return e.Attrs["patient"], ActionAccessGranted, e.Attrs["doctor"],
			"Patient granted access to doctor", true
	case events.AccessRevoked:
		return e.Attrs["patient"], ActionAccessRevoked, e.Attrs["doctor"],
			"Patient revoked doctor's access", true
	case events.RecordAdded:
		return e.Actor, ActionRecordAdded, e.Subject,
			fmt.Sprintf("Added new medical record: %s", e.Attrs["title"]), true
	case events.RecordUpdated:
		return e.Actor, ActionRecordUpdated, e.Subject,
			fmt.Sprintf("Updated medical record: %s", e.Attrs["title"]), true
	}
	return "", "", "", "", false
}
