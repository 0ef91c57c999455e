// Package events carries domain events from the registry, grant graph and
// record store to interested observers such as the audit recorder.
//
// Publishers call Publish only after their own state has been committed, so
// a subscriber that calls back into the publishing component observes the
// final state of the operation that produced the event.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the core components.
const (
	IdentityRegistered = "identity.registered"
	AccessGranted      = "access.granted"
	AccessRevoked      = "access.revoked"
	RecordAdded        = "record.added"
	RecordUpdated      = "record.updated"
)

// Event is a committed state change.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Actor     string            `json:"actor"`
	Subject   string            `json:"subject"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType, actor, subject string, attrs map[string]string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Actor:     actor,
		Subject:   subject,
		Attrs:     attrs,
		Timestamp: time.Now().UTC(),
	}
}

// Handler consumes an event. Errors are reported to the bus's error hook and
// never propagate to the publisher: the publishing operation has already
// completed.
type Handler func(ctx context.Context, e Event) error

// Publisher is the narrow interface components depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscription struct {
	pattern string
	handler Handler
}

// Bus dispatches events synchronously, in subscription order.
type Bus struct {
	mu      sync.RWMutex
	subs    []subscription
	onError func(e Event, err error)
}

// NewBus creates an empty bus. onError may be nil.
func NewBus(onError func(e Event, err error)) *Bus {
	return &Bus{onError: onError}
}

// Subscribe registers h for events whose type matches pattern. Patterns are
// an exact type, "*", or a prefix wildcard such as "access.*".
func (b *Bus) Subscribe(pattern string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{pattern: pattern, handler: h})
}

// Publish delivers e to every matching subscriber. The subscriber list is
// copied before dispatch so handlers may subscribe or publish themselves.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !Matches(s.pattern, e.Type) {
			continue
		}
		if err := s.handler(ctx, e); err != nil && b.onError != nil {
			b.onError(e, err)
		}
	}
}

// Matches reports whether eventType satisfies pattern.
func Matches(pattern, eventType string) bool {
	if pattern == "*" || pattern == eventType {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
