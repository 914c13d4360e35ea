package consent

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses. A record is created pending and moves to signed_by_patient
// exactly once; there is no transition out of the signed state.
const (
	StatusPending         = "pending"
	StatusSignedByPatient = "signed_by_patient"
)

// Record types.
const (
	TypeTermo = "termo"
	TypeGuide = "guide"
)

// Record maps to the consent_record table. Content is the resolved template
// text copied at creation time; later edits to the template do not reach
// existing records. PatientSignature, once set, is never overwritten.
type Record struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ClinicID         uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName      string     `db:"patient_name" json:"patient_name"`
	PatientDocument  string     `db:"patient_document" json:"patient_document,omitempty"`
	ProcedureName    string     `db:"procedure_name" json:"procedure_name"`
	Type             string     `db:"type" json:"type"`
	Title            string     `db:"title" json:"title"`
	Content          string     `db:"content" json:"content"`
	PatientSignature []byte     `db:"patient_signature" json:"patient_signature,omitempty"`
	Status           string     `db:"status" json:"status"`
	IntegrityHash    *string    `db:"integrity_hash" json:"integrity_hash,omitempty"`
	SignedAt         time.Time  `db:"signed_at" json:"signed_at"`
	PatientSignedAt  *time.Time `db:"patient_signed_at" json:"patient_signed_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (r *Record) IsSigned() bool {
	return r.Status == StatusSignedByPatient
}
