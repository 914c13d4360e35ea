package templates

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *ConsentTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*ConsentTemplate, error)
	Update(ctx context.Context, t *ConsentTemplate) error
	// SoftDelete marks the template as deleted; it is excluded from
	// ListByClinic afterwards but the row is retained.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// ListByClinic returns non-deleted templates for the clinic in stable
	// creation order.
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*ConsentTemplate, error)
}
