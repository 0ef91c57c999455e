package access

import (
	"context"
)

// Repository stores the grant graph. Insert appends the patient to the end
// of the doctor's list; Delete moves the doctor's last patient into the
// vacated slot and truncates. Delete returns apperr.ErrNotFound when no
// grant exists.
type Repository interface {
	Exists(ctx context.Context, doctorID, patientID string) (bool, error)
	Insert(ctx context.Context, g *Grant) error
	Delete(ctx context.Context, doctorID, patientID string) error
	Patients(ctx context.Context, doctorID string) ([]string, error)
	Doctors(ctx context.Context, patientID string) ([]string, error)
}
