package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const reminderCols = `id, appointment_id, patient_id, reminder_time, status, channel, message, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Reminder, error) {
	var rem Reminder
	err := row.Scan(&rem.ID, &rem.AppointmentID, &rem.PatientID, &rem.ReminderTime,
		&rem.Status, &rem.Channel, &rem.Message, &rem.CreatedAt, &rem.UpdatedAt)
	return &rem, err
}

func (r *repoPG) Upsert(ctx context.Context, rem *Reminder) error {
	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder (id, appointment_id, patient_id, reminder_time, status, channel, message)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (appointment_id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			reminder_time = EXCLUDED.reminder_time,
			status = EXCLUDED.status,
			channel = EXCLUDED.channel,
			message = EXCLUDED.message,
			updated_at = NOW()`,
		rem.ID, rem.AppointmentID, rem.PatientID, rem.ReminderTime, rem.Status, rem.Channel, rem.Message)
	return err
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Reminder, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+reminderCols+` FROM reminder WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reminder, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reminder WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderCols+` FROM reminder
		WHERE patient_id = $1 ORDER BY reminder_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		rem, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rem)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListDue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderCols+` FROM reminder
		WHERE status = $1 AND reminder_time <= $2
		ORDER BY reminder_time LIMIT $3`,
		StatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		rem, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, rows.Err()
}

func (r *repoPG) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminder SET status = $2, updated_at = NOW()
		WHERE appointment_id = $1 AND status = $3`,
		appointmentID, StatusCancelled, StatusPending)
	return err
}
