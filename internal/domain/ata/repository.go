package ata

import (
	"context"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists atas
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Ata, error)
	// FindLatestByInspection returns the most recent generation for an inspection
	FindLatestByInspection(ctx context.Context, inspectionID uuid.UUID) (*Ata, error)
	FindAll(ctx context.Context, filter Filter) ([]Ata, int64, error)
	// FindProcessing lists generations left in processing, used to resume after a restart
	FindProcessing(ctx context.Context, limit int) ([]Ata, error)
	Save(ctx context.Context, a *Ata) error
}

type Filter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	InspectionID    *uuid.UUID
	Status          Status
}
