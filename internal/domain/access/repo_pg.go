package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/db"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) Exists(ctx context.Context, doctorID, patientID string) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM access_grant WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID).Scan(&ok)
	return ok, err
}

func (r *RepoPG) Insert(ctx context.Context, g *Grant) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		var pos int
		if err := q.QueryRow(ctx,
			`SELECT COUNT(*) FROM access_grant WHERE doctor_id = $1`, g.DoctorID).Scan(&pos); err != nil {
			return err
		}
		_, err := q.Exec(ctx,
			`INSERT INTO access_grant (doctor_id, patient_id, position, granted_by, granted_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			g.DoctorID, g.PatientID, pos, g.GrantedBy, g.GrantedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("grant %s/%s: %w", g.DoctorID, g.PatientID, apperr.ErrAlreadyGranted)
		}
		if err != nil {
			return err
		}
		g.Position = pos
		return nil
	})
}

// Delete removes the grant and moves the doctor's highest-positioned patient
// into its slot, in one transaction.
func (r *RepoPG) Delete(ctx context.Context, doctorID, patientID string) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)

		var pos int
		err := q.QueryRow(ctx,
			`DELETE FROM access_grant WHERE doctor_id = $1 AND patient_id = $2 RETURNING position`,
			doctorID, patientID).Scan(&pos)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("grant %s/%s: %w", doctorID, patientID, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}

		_, err = q.Exec(ctx,
			`UPDATE access_grant SET position = $2
			 WHERE doctor_id = $1 AND position = (SELECT MAX(position) FROM access_grant WHERE doctor_id = $1)
			   AND position > $2`,
			doctorID, pos)
		return err
	})
}

func (r *RepoPG) Patients(ctx context.Context, doctorID string) ([]string, error) {
	return r.ids(ctx,
		`SELECT patient_id FROM access_grant WHERE doctor_id = $1 ORDER BY position`, doctorID)
}

func (r *RepoPG) Doctors(ctx context.Context, patientID string) ([]string, error) {
	return r.ids(ctx,
		`SELECT doctor_id FROM access_grant WHERE patient_id = $1 ORDER BY doctor_id`, patientID)
}

func (r *RepoPG) ids(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
