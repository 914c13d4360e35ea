package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultLeadMinutes is how long before the appointment the reminder fires
// when the caller does not say otherwise.
const DefaultLeadMinutes = 30

// ScheduleRequest asks for a reminder ahead of an appointment.
type ScheduleRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	StartTime     time.Time `json:"start_time"`
	MinutesBefore int       `json:"minutes_before"`
	Channel       string    `json:"channel"`
	Message       string    `json:"message"`
}

// Outcome reports what Schedule did. Scheduling is best-effort auxiliary
// work: callers triggered by appointment creation typically ignore it, and
// the type makes that choice explicit instead of hiding a swallowed error.
type Outcome struct {
	Scheduled    bool      `json:"scheduled"`
	Reason       string    `json:"reason,omitempty"`
	ReminderTime time.Time `json:"reminder_time,omitempty"`
}

// Scheduler computes reminder trigger times and converges repeated calls for
// the same appointment onto a single row.
type Scheduler struct {
	repo        Repository
	logger      zerolog.Logger
	leadMinutes int
	now         func() time.Time
}

func NewScheduler(repo Repository, logger zerolog.Logger, leadMinutes int) *Scheduler {
	if leadMinutes <= 0 {
		leadMinutes = DefaultLeadMinutes
	}
	return &Scheduler{repo: repo, logger: logger, leadMinutes: leadMinutes, now: time.Now}
}

// Schedule computes startTime minus the lead and upserts the reminder keyed
// by appointment. Malformed input and past trigger times are silent no-ops
// with a warning; a storage failure is logged and swallowed. Nothing here
// may fail the appointment flow that triggered it.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest) Outcome {
	if req.AppointmentID == uuid.Nil || req.PatientID == uuid.Nil || req.StartTime.IsZero() {
		s.logger.Warn().
			Str("appointment_id", req.AppointmentID.String()).
			Str("patient_id", req.PatientID.String()).
			Msg("reminder skipped: missing appointment, patient or start time")
		return Outcome{Scheduled: false, Reason: "missing appointment, patient or start time"}
	}

	minutes := req.MinutesBefore
	if minutes <= 0 {
		minutes = s.leadMinutes
	}
	reminderTime := req.StartTime.Add(-time.Duration(minutes) * time.Minute)

	if !reminderTime.After(s.now()) {
		s.logger.Info().
			Str("appointment_id", req.AppointmentID.String()).
			Time("reminder_time", reminderTime).
			Msg("reminder skipped: trigger time already passed")
		return Outcome{Scheduled: false, Reason: "reminder time is in the past"}
	}

	rem := &Reminder{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		ReminderTime:  reminderTime,
		Status:        StatusPending,
		Channel:       req.Channel,
		Message:       req.Message,
	}
	if err := s.repo.Upsert(ctx, rem); err != nil {
		s.logger.Error().Err(err).
			Str("appointment_id", req.AppointmentID.String()).
			Msg("reminder upsert failed, continuing without reminder")
		return Outcome{Scheduled: false, Reason: fmt.Sprintf("storage error: %v", err)}
	}

	return Outcome{Scheduled: true, ReminderTime: reminderTime}
}

func (s *Scheduler) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Reminder, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Scheduler) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reminder, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Scheduler) ListDue(ctx context.Context, limit int) ([]*Reminder, error) {
	return s.repo.ListDue(ctx, s.now(), limit)
}

func (s *Scheduler) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	return s.repo.Cancel(ctx, appointmentID)
}
