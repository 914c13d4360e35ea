package consent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotPending is returned by AttachSignature when the record does not
// exist or has already left the pending state. The signature one-shot
// invariant is enforced by the storage conditional write, not by an
// in-process lock: concurrent submitters race on the same condition and at
// most one wins.
var ErrNotPending = errors.New("consent record is not pending signature")

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	// AttachSignature performs the single conditional update of the
	// signature capture flow: signature, status and timestamp are written
	// only while the record is still pending. Returns ErrNotPending when
	// the condition does not hold.
	AttachSignature(ctx context.Context, id uuid.UUID, signature []byte, signedAt time.Time) error
}
