package records

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/identity"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

type mockRoles map[string]identity.Role

func (m mockRoles) HasRole(_ context.Context, id string, role identity.Role) (bool, error) {
	r, ok := m[id]
	return ok && r == role, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func newTestStore() (*Store, *recordingPublisher) {
	roles := mockRoles{
		"P":  identity.RolePatient,
		"P2": identity.RolePatient,
		"D":  identity.RoleDoctor,
	}
	pub := &recordingPublisher{}
	return NewStore(NewMemoryRepo(), roles, pub), pub
}

func mustAdd(t *testing.T, s *Store, caller, patient string, sub Submission) *MedicalRecord {
	t.Helper()
	rec, err := s.AddRecord(context.Background(), caller, patient, sub)
	if err != nil {
		t.Fatalf("add %s: %v", sub.ContentHash, err)
	}
	return rec
}

func TestStore_DoctorWithoutGrantCanAddRecord(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	rec := mustAdd(t, s, "D", "P", Submission{
		ContentHash: "Qm1", MediaType: "pdf", FileName: "f.pdf", Title: "Blood Test", Description: "desc",
	})
	if rec.AuthorID != "D" || !rec.Active {
		t.Errorf("unexpected record: %+v", rec)
	}

	active, err := s.ListActive(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ContentHash != "Qm1" {
		t.Fatalf("expected one active Qm1 record, got %+v", active)
	}
}

func TestStore_VersionChainSingleActive(t *testing.T) {
	s, pub := newTestStore()
	ctx := context.Background()

	mustAdd(t, s, "P", "P", Submission{ContentHash: "h1", Title: "Scan"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "h2", Title: "Scan v2", PreviousVersionHash: "h1"})

	all, err := s.ListAll(ctx, "P")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ContentHash != "h1" || all[0].Active {
		t.Errorf("expected h1 inactive, got %+v", all[0])
	}
	if all[1].ContentHash != "h2" || !all[1].Active {
		t.Errorf("expected h2 active, got %+v", all[1])
	}

	active, _ := s.ListActive(ctx, "P")
	if len(active) != 1 || active[0].ContentHash != "h2" {
		t.Errorf("expected [h2], got %+v", active)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[0].Type != events.RecordAdded || pub.events[1].Type != events.RecordUpdated {
		t.Errorf("unexpected event types: %s, %s", pub.events[0].Type, pub.events[1].Type)
	}
	if pub.events[1].Attrs["title"] != "Scan v2" {
		t.Errorf("unexpected attrs: %v", pub.events[1].Attrs)
	}
}

func TestStore_AddRecordErrors(t *testing.T) {
	s, pub := newTestStore()
	ctx := context.Background()
	mustAdd(t, s, "P", "P", Submission{ContentHash: "h1"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "h2", PreviousVersionHash: "h1"})
	mustAdd(t, s, "P2", "P2", Submission{ContentHash: "other"})
	before := len(pub.events)

	tests := []struct {
		name    string
		patient string
		sub     Submission
		want    error
	}{
		{"unregistered patient", "ghost", Submission{ContentHash: "x"}, apperr.ErrPatientNotRegistered},
		{"doctor as patient", "D", Submission{ContentHash: "x"}, apperr.ErrPatientNotRegistered},
		{"unknown predecessor", "P", Submission{ContentHash: "x", PreviousVersionHash: "nope"}, apperr.ErrPreviousVersionNotFound},
		{"predecessor of another patient", "P", Submission{ContentHash: "x", PreviousVersionHash: "other"}, apperr.ErrPreviousVersionNotFound},
		{"superseded predecessor", "P", Submission{ContentHash: "x", PreviousVersionHash: "h1"}, apperr.ErrPreviousVersionInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddRecord(ctx, "P", tt.patient, tt.sub)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	all, _ := s.ListAll(ctx, "P")
	if len(all) != 2 {
		t.Errorf("failed adds must not append, got %d records", len(all))
	}
	other, _ := s.ListActive(ctx, "P2")
	if len(other) != 1 {
		t.Errorf("another patient's record must stay active, got %+v", other)
	}
	if len(pub.events) != before {
		t.Errorf("failed adds must not publish")
	}
}

func TestStore_ListActivePreservesOrder(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	mustAdd(t, s, "P", "P", Submission{ContentHash: "a"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "b"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "c"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "b2", PreviousVersionHash: "b"})

	active, _ := s.ListActive(ctx, "P")
	want := []string{"a", "c", "b2"}
	if len(active) != len(want) {
		t.Fatalf("expected %v, got %d records", want, len(active))
	}
	for i, h := range want {
		if active[i].ContentHash != h {
			t.Errorf("active[%d] = %s, want %s", i, active[i].ContentHash, h)
		}
	}
}

func TestStore_ListUnknownPatientIsEmpty(t *testing.T) {
	s, _ := newTestStore()
	all, err := s.ListAll(context.Background(), "nobody")
	if err != nil || len(all) != 0 {
		t.Errorf("expected empty list, got %v %v", all, err)
	}
}

func TestStore_History(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	mustAdd(t, s, "P", "P", Submission{ContentHash: "v1"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "unrelated"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "v2", PreviousVersionHash: "v1"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "v3", PreviousVersionHash: "v2"})

	chain, err := s.History(ctx, "P", "v3")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"v3", "v2", "v1"}
	if len(chain) != len(want) {
		t.Fatalf("expected %v, got %d entries", want, len(chain))
	}
	for i, h := range want {
		if chain[i].ContentHash != h {
			t.Errorf("chain[%d] = %s, want %s", i, chain[i].ContentHash, h)
		}
	}
	if !chain[0].Active || chain[1].Active || chain[2].Active {
		t.Error("only the newest version should be active")
	}

	chain, _ = s.History(ctx, "P", "v1")
	if len(chain) != 1 {
		t.Errorf("root history should have one entry, got %d", len(chain))
	}

	if _, err := s.History(ctx, "P", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_HistoryStopsOnSelfReference(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	mustAdd(t, s, "P", "P", Submission{ContentHash: "h"})
	mustAdd(t, s, "P", "P", Submission{ContentHash: "h", PreviousVersionHash: "h"})

	chain, err := s.History(ctx, "P", "h")
	if err != nil {
		t.Fatal(err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(chain))
	}
	if chain[0].Seq <= chain[1].Seq {
		t.Error("history must run newest first")
	}
}

func TestStore_ObserverSeesCommittedRecord(t *testing.T) {
	bus := events.NewBus(nil)
	s := NewStore(NewMemoryRepo(), mockRoles{"P": identity.RolePatient}, bus)

	var activeSeen int
	bus.Subscribe("record.*", func(ctx context.Context, e events.Event) error {
		active, err := s.ListActive(ctx, e.Subject)
		activeSeen = len(active)
		return err
	})

	mustAdd(t, s, "P", "P", Submission{ContentHash: "h1"})
	if activeSeen != 1 {
		t.Errorf("observer saw %d active records, want 1", activeSeen)
	}
}
