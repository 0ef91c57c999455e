package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/db"
)

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const entryCols = `seq, id, actor, action_type, subject, details, recorded_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var seq int64
	if err := row.Scan(&seq, &e.ID, &e.Actor, &e.ActionType, &e.Subject, &e.Details, &e.Timestamp); err != nil {
		return nil, err
	}
	e.Seq = uint64(seq)
	return &e, nil
}

func (r *RepoPG) Append(ctx context.Context, e *Entry) error {
	var seq int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO audit_entry (id, actor, action_type, subject, details, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`,
		e.ID, e.Actor, e.ActionType, e.Subject, e.Details, e.Timestamp).Scan(&seq)
	if err != nil {
		return err
	}
	e.Seq = uint64(seq)
	return nil
}

func (r *RepoPG) All(ctx context.Context) ([]*Entry, error) {
	return r.query(ctx, fmt.Sprintf("SELECT %s FROM audit_entry ORDER BY seq", entryCols))
}

func (r *RepoPG) ByActor(ctx context.Context, actor string) ([]*Entry, error) {
	return r.query(ctx, fmt.Sprintf("SELECT %s FROM audit_entry WHERE actor = $1 ORDER BY seq", entryCols), actor)
}

func (r *RepoPG) BySubject(ctx context.Context, subject string) ([]*Entry, error) {
	return r.query(ctx, fmt.Sprintf("SELECT %s FROM audit_entry WHERE subject = $1 ORDER BY seq", entryCols), subject)
}

func (r *RepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM audit_entry`).Scan(&n)
	return n, err
}

func (r *RepoPG) query(ctx context.Context, q string, args ...interface{}) ([]*Entry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
