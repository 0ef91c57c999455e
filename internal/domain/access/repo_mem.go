package access

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	grants map[string]map[string]*Grant
	lists  map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		grants: make(map[string]map[string]*Grant),
		lists:  make(map[string][]string),
	}
}

func (r *MemoryRepo) Exists(_ context.Context, doctorID, patientID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[doctorID][patientID]
	return ok, nil
}

func (r *MemoryRepo) Insert(_ context.Context, g *Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.grants[g.DoctorID][g.PatientID]; ok {
		return fmt.Errorf("grant %s/%s: %w", g.DoctorID, g.PatientID, apperr.ErrAlreadyGranted)
	}
	if r.grants[g.DoctorID] == nil {
		r.grants[g.DoctorID] = make(map[string]*Grant)
	}
	cp := *g
	cp.Position = len(r.lists[g.DoctorID])
	g.Position = cp.Position
	r.grants[g.DoctorID][g.PatientID] = &cp
	r.lists[g.DoctorID] = append(r.lists[g.DoctorID], g.PatientID)
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, doctorID, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[doctorID][patientID]
	if !ok {
		return fmt.Errorf("grant %s/%s: %w", doctorID, patientID, apperr.ErrNotFound)
	}

	list := r.lists[doctorID]
	last := len(list) - 1
	if g.Position != last {
		moved := list[last]
		list[g.Position] = moved
		r.grants[doctorID][moved].Position = g.Position
	}
	r.lists[doctorID] = list[:last]
	delete(r.grants[doctorID], patientID)
	return nil
}

func (r *MemoryRepo) Patients(_ context.Context, doctorID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.lists[doctorID]...), nil
}

func (r *MemoryRepo) Doctors(_ context.Context, patientID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []string{}
	for d, byPatient := range r.grants {
		if _, ok := byPatient[patientID]; ok {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}
