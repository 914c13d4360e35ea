package templates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const templateCols = `id, clinic_id, title, content, procedure_keywords, deleted_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*ConsentTemplate, error) {
	var t ConsentTemplate
	err := row.Scan(&t.ID, &t.ClinicID, &t.Title, &t.Content, &t.ProcedureKeywords,
		&t.DeletedAt, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *ConsentTemplate) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consent_template (id, clinic_id, title, content, procedure_keywords)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.ClinicID, t.Title, t.Content, t.ProcedureKeywords)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ConsentTemplate, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+templateCols+` FROM consent_template WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *ConsentTemplate) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE consent_template SET title=$2, content=$3, procedure_keywords=$4, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		t.ID, t.Title, t.Content, t.ProcedureKeywords)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE consent_template SET deleted_at=NOW(), updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (r *repoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*ConsentTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateCols+` FROM consent_template
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ConsentTemplate
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
