package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const recordCols = `id, clinic_id, patient_id, patient_name, patient_document, procedure_name, type, title, content,
	patient_signature, status, integrity_hash, signed_at, patient_signed_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.ClinicID, &rec.PatientID, &rec.PatientName, &rec.PatientDocument, &rec.ProcedureName,
		&rec.Type, &rec.Title, &rec.Content, &rec.PatientSignature, &rec.Status,
		&rec.IntegrityHash, &rec.SignedAt, &rec.PatientSignedAt, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consent_record (id, clinic_id, patient_id, patient_name, patient_document,
			procedure_name, type, title, content, status, integrity_hash, signed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.ID, rec.ClinicID, rec.PatientID, rec.PatientName, rec.PatientDocument, rec.ProcedureName,
		rec.Type, rec.Title, rec.Content, rec.Status, rec.IntegrityHash, rec.SignedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM consent_record WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consent_record WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM consent_record
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

// AttachSignature writes the signature only while the record is still
// pending. The status predicate makes the update atomic in the database;
// retried or raced submissions see zero affected rows.
func (r *repoPG) AttachSignature(ctx context.Context, id uuid.UUID, signature []byte, signedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consent_record
		SET patient_signature=$2, status=$3, patient_signed_at=$4, updated_at=NOW()
		WHERE id = $1 AND status = $5`,
		id, signature, StatusSignedByPatient, signedAt, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}
