package records

import (
	"context"
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

const recordCols = `id, seq, patient_id, content_hash, media_type, file_name, title, description,
	author_id, active, previous_version_hash, created_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var r MedicalRecord
	var seq int64
	err := row.Scan(&r.ID, &seq, &r.PatientID, &r.ContentHash, &r.MediaType, &r.FileName,
		&r.Title, &r.Description, &r.AuthorID, &r.Active, &r.PreviousVersionHash, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Seq = uint64(seq)
	return &r, nil
}

func (r *RepoPG) Insert(ctx context.Context, rec *MedicalRecord, prev *MedicalRecord) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		if prev != nil {
			tag, err := q.Exec(ctx,
				`UPDATE medical_record SET active = FALSE WHERE id = $1 AND patient_id = $2`,
				prev.ID, rec.PatientID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("record %s: %w", prev.ID, apperr.ErrNotFound)
			}
		}

		var seq int64
		err := q.QueryRow(ctx,
			`INSERT INTO medical_record (id, patient_id, content_hash, media_type, file_name, title,
				description, author_id, active, previous_version_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING seq`,
			rec.ID, rec.PatientID, rec.ContentHash, rec.MediaType, rec.FileName, rec.Title,
			rec.Description, rec.AuthorID, rec.Active, rec.PreviousVersionHash, rec.CreatedAt,
		).Scan(&seq)
		if err != nil {
			return err
		}
		rec.Seq = uint64(seq)
		return nil
	})
}

func (r *RepoPG) List(ctx context.Context, patientID string) ([]*MedicalRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM medical_record WHERE patient_id = $1 ORDER BY seq", recordCols)
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*MedicalRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
