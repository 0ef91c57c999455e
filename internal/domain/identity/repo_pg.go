package identity

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

const identityCols = `id, display_name, role, created_at`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	var role string
	if err := row.Scan(&i.ID, &i.Name, &role, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.Role = Role(role)
	i.Registered = true
	return &i, nil
}

func (r *RepoPG) Create(ctx context.Context, i *Identity) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO identity (id, display_name, role, created_at) VALUES ($1, $2, $3, $4)`,
		i.ID, i.Name, string(i.Role), i.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("identity %s: %w", i.ID, apperr.ErrAlreadyRegistered)
	}
	return err
}

func (r *RepoPG) Get(ctx context.Context, id string) (*Identity, error) {
	q := fmt.Sprintf("SELECT %s FROM identity WHERE id = $1", identityCols)
	i, err := scanIdentity(db.Conn(ctx, r.pool).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", id, apperr.ErrNotFound)
	}
	return i, err
}

func (r *RepoPG) List(ctx context.Context) ([]*Identity, error) {
	q := fmt.Sprintf("SELECT %s FROM identity ORDER BY seq", identityCols)
	rows, err := db.Conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
