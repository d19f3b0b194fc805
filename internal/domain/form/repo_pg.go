package form

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const formCols = `id, name, version, description, markup, retired, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, f *Form) error {
	f.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO htmlform (id, name, version, description, markup, retired)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		f.ID, f.Name, f.Version, f.Description, f.Markup, f.Retired,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Form, error) {
	return scanForm(r.pool.QueryRow(ctx, `SELECT `+formCols+` FROM htmlform WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, f *Form) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE htmlform SET
			name=$2, version=$3, description=$4, markup=$5, retired=$6, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Name, f.Version, f.Description, f.Markup, f.Retired,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM htmlform WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM htmlform`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+formCols+` FROM htmlform ORDER BY name, version LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var forms []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, 0, err
		}
		forms = append(forms, f)
	}
	return forms, total, rows.Err()
}

func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.Name, &f.Version, &f.Description, &f.Markup, &f.Retired, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
