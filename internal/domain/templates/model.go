package templates

import (
	"time"

	"github.com/google/uuid"
)

// ConsentTemplate maps to the consent_template table. Content carries
// placeholder tokens ({PROCEDIMENTO}, {DATA}, {PATIENT_ID}) that are
// substituted at resolve time; the stored text is never mutated.
type ConsentTemplate struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ClinicID          uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Title             string     `db:"title" json:"title"`
	Content           string     `db:"content" json:"content"`
	ProcedureKeywords []string   `db:"procedure_keywords" json:"procedure_keywords"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ResolvedConsent is the transient output of a resolve call. TemplateID is
// nil when the canonical fallback text was used.
type ResolvedConsent struct {
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
}
