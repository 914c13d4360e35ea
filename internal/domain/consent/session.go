package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session states. Signed is terminal.
type SessionState string

const (
	StateAwaitingSignature SessionState = "awaiting_signature"
	StateSubmitting        SessionState = "submitting"
	StateSigned            SessionState = "signed"
)

var (
	// ErrEmptySignature rejects a submit before any storage call is made.
	ErrEmptySignature = errors.New("signature drawing is empty")
	// ErrSessionSigned is returned by Submit after the terminal transition.
	ErrSessionSigned = errors.New("signature session is already signed")
)

// DrawingSurface is the rendering-surface capability injected into a
// session. The session does not own the surface; Clear never touches
// persisted state.
type DrawingSurface interface {
	IsEmpty() bool
	Clear()
	// ExportPNG serializes the drawing trimmed to its content bounds.
	ExportPNG() ([]byte, error)
}

// Session drives one signature capture flow against a single consent
// record. The flow is AwaitingSignature -> Submitting -> Signed; any failure
// during Submitting returns to AwaitingSignature with the drawing intact so
// the patient does not redo work.
type Session struct {
	recordID uuid.UUID
	surface  DrawingSurface
	repo     Repository
	logger   zerolog.Logger
	now      func() time.Time
	state    SessionState
}

func NewSession(recordID uuid.UUID, surface DrawingSurface, repo Repository, logger zerolog.Logger) *Session {
	return &Session{
		recordID: recordID,
		surface:  surface,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
		state:    StateAwaitingSignature,
	}
}

func (s *Session) State() SessionState { return s.state }

// Clear resets the drawing surface. Legal in any state.
func (s *Session) Clear() { s.surface.Clear() }

// Submit serializes the drawing and issues the single conditional update
// against the consent record. Export always happens before persistence, and
// persistence success before the terminal transition, so a partially signed
// state is never observable through the session.
func (s *Session) Submit(ctx context.Context) error {
	if s.state == StateSigned {
		return ErrSessionSigned
	}
	if s.surface.IsEmpty() {
		// Local rejection, no storage contact.
		return ErrEmptySignature
	}

	s.state = StateSubmitting
	png, err := s.surface.ExportPNG()
	if err != nil {
		s.state = StateAwaitingSignature
		return fmt.Errorf("export signature: %w", err)
	}

	if err := s.repo.AttachSignature(ctx, s.recordID, png, s.now()); err != nil {
		s.state = StateAwaitingSignature
		s.logger.Error().Err(err).Str("record_id", s.recordID.String()).Msg("signature persistence failed")
		return fmt.Errorf("persist signature: %w", err)
	}

	s.state = StateSigned
	return nil
}
