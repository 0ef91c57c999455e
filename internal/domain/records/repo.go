package records

import (
	"context"
)

// Repository persists each patient's records in insertion order. Insert
// assigns rec.Seq and, when prev is non-nil, marks prev inactive in the same
// atomic write.
type Repository interface {
	Insert(ctx context.Context, rec *MedicalRecord, prev *MedicalRecord) error
	List(ctx context.Context, patientID string) ([]*MedicalRecord, error)
}
