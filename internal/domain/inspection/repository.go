package inspection

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists inspections
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Inspection, error)
	FindAll(ctx context.Context, filter Filter) ([]Inspection, int64, error)
	Save(ctx context.Context, insp *Inspection) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountCreatedSince counts inspections of orgID created at or after since
	CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

// Filter narrows inspection listings
type Filter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	Status          Status
	InspectorID     *uuid.UUID
	From            *time.Time
	To              *time.Time
}

// ItemRepository persists checklist items
type ItemRepository interface {
	FindByInspection(ctx context.Context, inspectionID uuid.UUID) ([]Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	SaveAll(ctx context.Context, items []Item) error
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EvidenceRepository persists media and signatures
type EvidenceRepository interface {
	FindMedia(ctx context.Context, inspectionID uuid.UUID) ([]Media, error)
	FindMediaByID(ctx context.Context, id uuid.UUID) (*Media, error)
	SaveMedia(ctx context.Context, m *Media) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error

	FindSignatures(ctx context.Context, inspectionID uuid.UUID) ([]Signature, error)
	SaveSignatures(ctx context.Context, sigs []Signature) error
}
