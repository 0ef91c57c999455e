package audit

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

func TestRecorder_MapsEvents(t *testing.T) {
	tests := []struct {
		name    string
		event   events.Event
		actor   string
		action  string
		subject string
		details string
	}{
		{
			name:    "doctor registered",
			event:   events.New(events.IdentityRegistered, "0xAdmin", "0xD", map[string]string{"role": "doctor", "name": "Bob"}),
			actor:   "0xAdmin",
			action:  ActionDoctorRegistered,
			subject: "0xD",
			details: "Registered new doctor: Bob",
		},
		{
			name:    "access granted",
			event:   events.New(events.AccessGranted, "0xP", "0xD", map[string]string{"doctor": "0xD", "patient": "0xP"}),
			actor:   "0xP",
			action:  ActionAccessGranted,
			subject: "0xD",
			details: "Patient granted access to doctor",
		},
		{
			name:    "access revoked",
			event:   events.New(events.AccessRevoked, "0xP", "0xD", map[string]string{"doctor": "0xD", "patient": "0xP"}),
			actor:   "0xP",
			action:  ActionAccessRevoked,
			subject: "0xD",
			details: "Patient revoked doctor's access",
		},
		{
			name:    "record added",
			event:   events.New(events.RecordAdded, "0xD", "0xP", map[string]string{"title": "Blood Test"}),
			actor:   "0xD",
			action:  ActionRecordAdded,
			subject: "0xP",
			details: "Added new medical record: Blood Test",
		},
		{
			name:    "record updated",
			event:   events.New(events.RecordUpdated, "0xD", "0xP", map[string]string{"title": "Blood Test v2"}),
			actor:   "0xD",
			action:  ActionRecordUpdated,
			subject: "0xP",
			details: "Updated medical record: Blood Test v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(NewMemoryRepo())
			bus := events.NewBus(nil)
			NewRecorder(l, zerolog.Nop()).Attach(bus)

			bus.Publish(context.Background(), tt.event)

			all, _ := l.Query(context.Background())
			if len(all) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(all))
			}
			e := all[0]
			if e.Actor != tt.actor || e.ActionType != tt.action || e.Subject != tt.subject || e.Details != tt.details {
				t.Errorf("unexpected entry %+v", e)
			}
		})
	}
}

func TestRecorder_IgnoresUnknownEvents(t *testing.T) {
	l := NewLedger(NewMemoryRepo())
	r := NewRecorder(l, zerolog.Nop())
	if err := r.Handle(context.Background(), events.New("something.else", "a", "b", nil)); err != nil {
		t.Fatal(err)
	}
	if n, _ := l.Count(context.Background()); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
}
