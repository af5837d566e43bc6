package actionplan

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists action items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ActionItem, error)
	FindAll(ctx context.Context, filter Filter) ([]ActionItem, int64, error)
	// FindOpenDueBefore returns open items whose deadline is before t, across all organizations
	FindOpenDueBefore(ctx context.Context, t time.Time, limit int) ([]ActionItem, error)
	// ItemIDsWithActions returns which of itemIDs already have an action item
	ItemIDsWithActions(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	Save(ctx context.Context, a *ActionItem) error
	SaveAll(ctx context.Context, items []*ActionItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Filter narrows action item listings
type Filter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	InspectionID    *uuid.UUID
	Status          Status
	OverdueOnly     bool
	WhoUserID       *uuid.UUID
}
