package templates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, t *ConsentTemplate) error {
	if t.ClinicID == uuid.Nil {
		return fmt.Errorf("clinic_id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	if len(t.ProcedureKeywords) == 0 {
		return fmt.Errorf("procedure_keywords must not be empty")
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ConsentTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *ConsentTemplate) error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*ConsentTemplate, error) {
	return s.repo.ListByClinic(ctx, clinicID)
}
