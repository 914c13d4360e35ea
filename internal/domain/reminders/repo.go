package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts the reminder or, when a row for the same appointment
	// already exists, overwrites its time, resets status to pending and
	// refreshes the scheduling metadata. Conflict resolution is the storage
	// layer's atomic upsert; there is no read-then-write window.
	Upsert(ctx context.Context, r *Reminder) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Reminder, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reminder, int, error)
	// ListDue returns pending reminders whose trigger time has passed.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Reminder, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID) error
}
