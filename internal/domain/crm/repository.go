package crm

import (
	"context"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadRepository persists leads
type LeadRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	FindAll(ctx context.Context, filter LeadFilter) ([]Lead, int64, error)
	ExistsByCNPJ(ctx context.Context, orgID uuid.UUID, cnpj string) (bool, error)
	Save(ctx context.Context, l *Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LeadFilter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	Stage           Stage
	OwnerID         *uuid.UUID
}
