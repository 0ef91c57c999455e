package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/identity"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

// RoleChecker answers whether an id is registered with a role.
type RoleChecker interface {
	HasRole(ctx context.Context, id string, role identity.Role) (bool, error)
}

// Store keeps every patient's version chains. Within a chain at most one
// record is active.
type Store struct {
	mu     sync.RWMutex
	repo   Repository
	roles  RoleChecker
	events events.Publisher
}

func NewStore(repo Repository, roles RoleChecker, pub events.Publisher) *Store {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Store{repo: repo, roles: roles, events: pub}
}

// AddRecord appends a new active record to patientID's list. When the
// submission names a previous version, that record is deactivated in the
// same write. The caller is stored as author; no grant is required.
func (s *Store) AddRecord(ctx context.Context, caller, patientID string, sub Submission) (*MedicalRecord, error) {
	s.mu.Lock()
	rec, err := s.addRecord(ctx, caller, patientID, sub)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	eventType := events.RecordAdded
	if sub.IsUpdate() {
		eventType = events.RecordUpdated
	}
	s.events.Publish(ctx, events.New(eventType, caller, patientID, map[string]string{
		"record_id":             rec.ID,
		"title":                 rec.Title,
		"content_hash":          rec.ContentHash,
		"previous_version_hash": rec.PreviousVersionHash,
	}))
	return rec, nil
}

func (s *Store) addRecord(ctx context.Context, caller, patientID string, sub Submission) (*MedicalRecord, error) {
	ok, err := s.roles.HasRole(ctx, patientID, identity.RolePatient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", patientID, apperr.ErrPatientNotRegistered)
	}

	var prev *MedicalRecord
	if sub.IsUpdate() {
		list, err := s.repo.List(ctx, patientID)
		if err != nil {
			return nil, err
		}
		prev = latestWithHash(list, sub.PreviousVersionHash, ^uint64(0))
		if prev == nil {
			return nil, fmt.Errorf("previous version %s for %s: %w", sub.PreviousVersionHash, patientID, apperr.ErrPreviousVersionNotFound)
		}
		if !prev.Active {
			return nil, fmt.Errorf("previous version %s for %s: %w", sub.PreviousVersionHash, patientID, apperr.ErrPreviousVersionInactive)
		}
	}

	rec := &MedicalRecord{
		ID:                  uuid.New().String(),
		PatientID:           patientID,
		ContentHash:         sub.ContentHash,
		MediaType:           sub.MediaType,
		FileName:            sub.FileName,
		Title:               sub.Title,
		Description:         sub.Description,
		AuthorID:            caller,
		Active:              true,
		PreviousVersionHash: sub.PreviousVersionHash,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec, prev); err != nil {
		return nil, err
	}
	return rec, nil
}

// latestWithHash returns the most recently inserted record with hash whose
// sequence is below before.
func latestWithHash(list []*MedicalRecord, hash string, before uint64) *MedicalRecord {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].ContentHash == hash && list[i].Seq < before {
			return list[i]
		}
	}
	return nil
}

// ListAll returns every record for patientID in insertion order.
func (s *Store) ListAll(ctx context.Context, patientID string) ([]*MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.List(ctx, patientID)
}

// ListActive returns the active records for patientID in insertion order.
func (s *Store) ListActive(ctx context.Context, patientID string) ([]*MedicalRecord, error) {
	all, err := s.ListAll(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]*MedicalRecord, 0, len(all))
	for _, rec := range all {
		if rec.Active {
			out = append(out, rec)
		}
	}
	return out, nil
}

// History follows previous-version links from the newest record with
// contentHash back to the root of its chain, newest first.
func (s *Store) History(ctx context.Context, patientID, contentHash string) ([]*MedicalRecord, error) {
	all, err := s.ListAll(ctx, patientID)
	if err != nil {
		return nil, err
	}

	cur := latestWithHash(all, contentHash, ^uint64(0))
	if cur == nil {
		return nil, fmt.Errorf("record %s for %s: %w", contentHash, patientID, apperr.ErrNotFound)
	}

	chain := []*MedicalRecord{cur}
	for cur.PreviousVersionHash != "" {
		cur = latestWithHash(all, cur.PreviousVersionHash, cur.Seq)
		if cur == nil {
			break
		}
		chain = append(chain, cur)
	}
	return chain, nil
}
