package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	seq       uint64
	byPatient map[string][]*MedicalRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byPatient: make(map[string][]*MedicalRecord)}
}

func (r *MemoryRepo) Insert(_ context.Context, rec *MedicalRecord, prev *MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byPatient[rec.PatientID]
	if prev != nil {
		found := false
		for _, existing := range list {
			if existing.ID == prev.ID {
				existing.Active = false
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("record %s: %w", prev.ID, apperr.ErrNotFound)
		}
	}

	r.seq++
	rec.Seq = r.seq
	cp := *rec
	r.byPatient[rec.PatientID] = append(list, &cp)
	return nil
}

func (r *MemoryRepo) List(_ context.Context, patientID string) ([]*MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byPatient[patientID]
	out := make([]*MedicalRecord, 0, len(list))
	for _, rec := range list {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}
