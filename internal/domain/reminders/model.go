package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Reminder statuses.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusCancelled = "cancelled"
)

// Reminder maps to the reminder table. appointment_id carries a UNIQUE
// constraint: rescheduling converges on one authoritative row per
// appointment through the storage upsert.
type Reminder struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	ReminderTime  time.Time `db:"reminder_time" json:"reminder_time"`
	Status        string    `db:"status" json:"status"`
	Channel       string    `db:"channel" json:"channel,omitempty"`
	Message       string    `db:"message" json:"message,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
