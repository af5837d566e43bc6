package checklist

import (
	"context"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TemplateRepository defines persistence for checklist templates
type TemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)
	FindAll(ctx context.Context, filter TemplateFilter) ([]Template, int64, error)
	Save(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	// InUse reports whether any inspection was created from the template
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
}

// TemplateFilter narrows template listings. Results always include the
// global library and public templates in addition to OrganizationIDs.
type TemplateFilter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	Category        string
}
