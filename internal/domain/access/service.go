package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/identity"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
)

// RoleChecker answers whether an id is registered with a role.
type RoleChecker interface {
	HasRole(ctx context.Context, id string, role identity.Role) (bool, error)
}

// Graph is the doctor-to-patient authorization graph. For every doctor d and
// patient p, a grant exists exactly when p appears in d's grant list.
type Graph struct {
	mu     sync.RWMutex
	repo   Repository
	roles  RoleChecker
	events events.Publisher
}

func NewGraph(repo Repository, roles RoleChecker, pub events.Publisher) *Graph {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Graph{repo: repo, roles: roles, events: pub}
}

// Grant authorizes doctorID to read patientID's records. The caller is
// recorded on the grant but not checked against either party.
func (g *Graph) Grant(ctx context.Context, caller, doctorID, patientID string) (*Grant, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("patient id is required: %w", apperr.ErrInvalidInput)
	}

	g.mu.Lock()
	grant, err := g.grant(ctx, caller, doctorID, patientID)
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}

	g.events.Publish(ctx, events.New(events.AccessGranted, caller, doctorID, map[string]string{
		"doctor":  doctorID,
		"patient": patientID,
	}))
	return grant, nil
}

func (g *Graph) grant(ctx context.Context, caller, doctorID, patientID string) (*Grant, error) {
	if err := g.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	exists, err := g.repo.Exists(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("grant %s/%s: %w", doctorID, patientID, apperr.ErrAlreadyGranted)
	}

	grant := &Grant{
		DoctorID:  doctorID,
		PatientID: patientID,
		GrantedBy: caller,
		GrantedAt: time.Now().UTC(),
	}
	if err := g.repo.Insert(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Revoke withdraws doctorID's access to patientID. Only the patient may
// revoke, whatever the caller's role.
func (g *Graph) Revoke(ctx context.Context, caller, doctorID, patientID string) error {
	g.mu.Lock()
	err := g.revoke(ctx, caller, doctorID, patientID)
	g.mu.Unlock()
	if err != nil {
		return err
	}

	g.events.Publish(ctx, events.New(events.AccessRevoked, caller, doctorID, map[string]string{
		"doctor":  doctorID,
		"patient": patientID,
	}))
	return nil
}

func (g *Graph) revoke(ctx context.Context, caller, doctorID, patientID string) error {
	if err := g.requireDoctor(ctx, doctorID); err != nil {
		return err
	}
	if caller != patientID {
		return fmt.Errorf("revoke %s/%s by %s: %w", doctorID, patientID, caller, apperr.ErrUnauthorized)
	}
	exists, err := g.repo.Exists(ctx, doctorID, patientID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("revoke %s/%s: %w", doctorID, patientID, apperr.ErrNotGranted)
	}

	err = g.repo.Delete(ctx, doctorID, patientID)
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("revoke %s/%s: %w", doctorID, patientID, apperr.ErrNotGranted)
	}
	return err
}

func (g *Graph) requireDoctor(ctx context.Context, doctorID string) error {
	ok, err := g.roles.HasRole(ctx, doctorID, identity.RoleDoctor)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("doctor %s: %w", doctorID, apperr.ErrDoctorNotRegistered)
	}
	return nil
}

// IsAuthorized reports whether doctorID currently holds a grant for
// patientID. Unknown ids are simply not authorized.
func (g *Graph) IsAuthorized(ctx context.Context, doctorID, patientID string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.repo.Exists(ctx, doctorID, patientID)
}

// ListPatients returns the patients doctorID may read. Order is not stable
// across revocations.
func (g *Graph) ListPatients(ctx context.Context, doctorID string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.repo.Patients(ctx, doctorID)
}

// ListDoctors returns the doctors currently authorized for patientID.
func (g *Graph) ListDoctors(ctx context.Context, patientID string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.repo.Doctors(ctx, patientID)
}
