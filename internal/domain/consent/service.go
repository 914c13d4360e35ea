package consent

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/templates"
	"github.com/clinicore/clinicore/internal/platform/artifacts"
	"github.com/clinicore/clinicore/internal/platform/pdfgen"
)

var validTypes = map[string]bool{
	TypeTermo: true,
	TypeGuide: true,
}

type Service struct {
	repo     Repository
	resolver *templates.Resolver
	renderer *pdfgen.Renderer
	store    artifacts.Store
	branding pdfgen.Branding
	baseURL  string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, resolver *templates.Resolver, renderer *pdfgen.Renderer,
	store artifacts.Store, branding pdfgen.Branding, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		renderer: renderer,
		store:    store,
		branding: branding,
		baseURL:  baseURL,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateRequest is a professional initiating a consent flow for a patient.
type CreateRequest struct {
	ClinicID        uuid.UUID `json:"clinic_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	PatientDocument string    `json:"patient_document"`
	ProcedureName   string    `json:"procedure_name"`
	Type            string    `json:"type"`
}

// CreateRecord resolves the consent template for the procedure and creates
// a pending record with the resolved content copied in. Template resolution
// never fails; a fetch error yields an error-titled body that the clinic
// will see before collecting a signature.
func (s *Service) CreateRecord(ctx context.Context, req CreateRequest) (*Record, error) {
	if req.ClinicID == uuid.Nil {
		return nil, fmt.Errorf("clinic_id is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if req.ProcedureName == "" {
		return nil, fmt.Errorf("procedure_name is required")
	}
	if req.Type == "" {
		req.Type = TypeTermo
	}
	if !validTypes[req.Type] {
		return nil, fmt.Errorf("invalid type: %s", req.Type)
	}

	resolved := s.resolver.Resolve(ctx, req.ClinicID, req.ProcedureName, req.PatientID.String())

	rec := &Record{
		ClinicID:        req.ClinicID,
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
		PatientDocument: req.PatientDocument,
		ProcedureName:   req.ProcedureName,
		Type:            req.Type,
		Title:           resolved.Title,
		Content:         resolved.Content,
		Status:          StatusPending,
		SignedAt:        s.now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// NewSession opens a signature capture session for the record. The drawing
// surface is the caller's capability; the session only borrows it.
func (s *Service) NewSession(recordID uuid.UUID, surface DrawingSurface) *Session {
	return &Session{
		recordID: recordID,
		surface:  surface,
		repo:     s.repo,
		logger:   s.logger,
		now:      s.now,
		state:    StateAwaitingSignature,
	}
}

// RenderDocument produces the consent PDF for a record. The artifact is also
// placed in the artifact store best-effort: a store failure is logged but the
// caller still receives the document.
func (s *Service) RenderDocument(ctx context.Context, recordID uuid.UUID, clientIP string) (*pdfgen.Artifact, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load consent record: %w", err)
	}

	audit := pdfgen.AuditMeta{SignedAt: rec.SignedAt, IP: clientIP}
	if rec.PatientSignedAt != nil {
		audit.SignedAt = *rec.PatientSignedAt
	}
	if rec.IntegrityHash != nil {
		audit.IntegrityHash = *rec.IntegrityHash
	}

	art, err := s.renderer.Render(
		s.branding,
		pdfgen.PatientIdentity{FullName: rec.PatientName, IdentityNumber: rec.PatientDocument},
		pdfgen.Document{Title: rec.Title, Content: rec.Content},
		rec.PatientSignature,
		audit,
	)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Put(ctx, artifacts.Metadata{
		FileName:    art.Filename,
		ContentType: "application/pdf",
		PatientID:   rec.PatientID.String(),
		RecordID:    rec.ID.String(),
	}, art.Bytes); err != nil {
		s.logger.Warn().Err(err).Str("record_id", rec.ID.String()).Msg("artifact store rejected rendered document")
	}

	return art, nil
}

// SigningLink builds the shareable URL for a patient's consent flow.
// Possession of the link is the entire authorization to sign; nothing is
// signed or encrypted here on purpose.
func (s *Service) SigningLink(patientID uuid.UUID, procedureName string) string {
	q := url.Values{}
	q.Set("patient_id", patientID.String())
	q.Set("procedure", procedureName)
	return s.baseURL + "/sign?" + q.Encode()
}
