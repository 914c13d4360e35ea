package reminders

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// mockReminderRepo keys reminders by appointment, mirroring the UNIQUE
// constraint the storage upsert resolves against.
type mockReminderRepo struct {
	byAppointment map[uuid.UUID]*Reminder
	upsertErr     error
	upsertCalls   int
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{byAppointment: make(map[uuid.UUID]*Reminder)}
}

func (m *mockReminderRepo) Upsert(_ context.Context, r *Reminder) error {
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, ok := m.byAppointment[r.AppointmentID]; ok {
		existing.PatientID = r.PatientID
		existing.ReminderTime = r.ReminderTime
		existing.Status = r.Status
		existing.Channel = r.Channel
		existing.Message = r.Message
		existing.UpdatedAt = time.Now()
		return nil
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.byAppointment[r.AppointmentID] = &cp
	return nil
}

func (m *mockReminderRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Reminder, error) {
	r, ok := m.byAppointment[appointmentID]
	if !ok {
		return nil, fmt.Errorf("reminder not found")
	}
	return r, nil
}

func (m *mockReminderRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Reminder, int, error) {
	var items []*Reminder
	for _, r := range m.byAppointment {
		if r.PatientID == patientID {
			items = append(items, r)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ReminderTime.After(items[j].ReminderTime) })
	return items, len(items), nil
}

func (m *mockReminderRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*Reminder, error) {
	var items []*Reminder
	for _, r := range m.byAppointment {
		if r.Status == StatusPending && !r.ReminderTime.After(now) {
			items = append(items, r)
		}
	}
	return items, nil
}

func (m *mockReminderRepo) Cancel(_ context.Context, appointmentID uuid.UUID) error {
	if r, ok := m.byAppointment[appointmentID]; ok && r.Status == StatusPending {
		r.Status = StatusCancelled
	}
	return nil
}

func fixedScheduler(repo Repository, now time.Time) *Scheduler {
	s := NewScheduler(repo, zerolog.Nop(), 0)
	s.now = func() time.Time { return now }
	return s
}

func TestScheduleComputesLeadTime(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	aptID := uuid.New()
	out := s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	if !out.Scheduled {
		t.Fatalf("expected scheduled outcome, got reason %q", out.Reason)
	}

	want := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)
	rem := repo.byAppointment[aptID]
	if rem == nil {
		t.Fatal("expected a persisted reminder")
	}
	if !rem.ReminderTime.Equal(want) {
		t.Errorf("expected reminder at %v, got %v", want, rem.ReminderTime)
	}
	if rem.Status != StatusPending {
		t.Errorf("expected pending status, got %s", rem.Status)
	}
}

func TestScheduleIsIdempotentPerAppointment(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	aptID := uuid.New()
	patientID := uuid.New()
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     patientID,
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     patientID,
		StartTime:     time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC),
	})

	if len(repo.byAppointment) != 1 {
		t.Fatalf("expected exactly one reminder row, got %d", len(repo.byAppointment))
	}
	want := time.Date(2025, 1, 10, 16, 30, 0, 0, time.UTC)
	if got := repo.byAppointment[aptID].ReminderTime; !got.Equal(want) {
		t.Errorf("rescheduling must keep the later time, got %v want %v", got, want)
	}
}

func TestScheduleRescheduleResetsStatus(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	aptID := uuid.New()
	req := ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	}
	s.Schedule(context.Background(), req)
	repo.byAppointment[aptID].Status = StatusSent

	req.StartTime = time.Date(2025, 1, 11, 15, 0, 0, 0, time.UTC)
	s.Schedule(context.Background(), req)
	if got := repo.byAppointment[aptID].Status; got != StatusPending {
		t.Errorf("reschedule must reset status to pending, got %s", got)
	}
}

func TestSchedulePastTimeIsNoOp(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 14, 45, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	out := s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	if out.Scheduled {
		t.Error("a reminder 15 minutes before a 30-minute lead must be skipped")
	}
	if repo.upsertCalls != 0 {
		t.Error("storage must not be contacted for a past trigger time")
	}
}

func TestScheduleMissingFieldsAreNoOps(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	start := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		req  ScheduleRequest
	}{
		{"missing appointment", ScheduleRequest{PatientID: uuid.New(), StartTime: start}},
		{"missing patient", ScheduleRequest{AppointmentID: uuid.New(), StartTime: start}},
		{"missing start time", ScheduleRequest{AppointmentID: uuid.New(), PatientID: uuid.New()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockReminderRepo()
			s := fixedScheduler(repo, now)
			out := s.Schedule(context.Background(), tc.req)
			if out.Scheduled {
				t.Error("expected no-op outcome")
			}
			if repo.upsertCalls != 0 {
				t.Error("storage must not be contacted")
			}
		})
	}
}

func TestScheduleSwallowsStorageErrors(t *testing.T) {
	repo := newMockReminderRepo()
	repo.upsertErr = fmt.Errorf("connection refused")
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	out := s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	if out.Scheduled {
		t.Error("a failed upsert must report an unscheduled outcome")
	}
	if out.Reason == "" {
		t.Error("expected the storage failure in the outcome reason")
	}
}

func TestScheduleCustomLead(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	aptID := uuid.New()
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
		MinutesBefore: 120,
	})
	want := time.Date(2025, 1, 10, 13, 0, 0, 0, time.UTC)
	if got := repo.byAppointment[aptID].ReminderTime; !got.Equal(want) {
		t.Errorf("expected reminder at %v, got %v", want, got)
	}
}

func TestListDueFiltersPending(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now.Add(-2*time.Hour))

	due := uuid.New()
	future := uuid.New()
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: due, PatientID: uuid.New(),
		StartTime: now.Add(-time.Hour),
	})
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: future, PatientID: uuid.New(),
		StartTime: now.Add(6 * time.Hour),
	})

	s.now = func() time.Time { return now }
	items, err := s.ListDue(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].AppointmentID != due {
		t.Errorf("expected only the elapsed reminder to be due, got %d items", len(items))
	}
}

func TestCancelOnlyPending(t *testing.T) {
	repo := newMockReminderRepo()
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := fixedScheduler(repo, now)

	aptID := uuid.New()
	s.Schedule(context.Background(), ScheduleRequest{
		AppointmentID: aptID,
		PatientID:     uuid.New(),
		StartTime:     time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	if err := s.Cancel(context.Background(), aptID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.byAppointment[aptID].Status; got != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", got)
	}
}
