// Package audit records who did what to which entity.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Log is one immutable audit entry
type Log struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ActorID        *uuid.UUID
	Action         string
	EntityType     string
	EntityID       uuid.UUID
	Payload        json.RawMessage
	OccurredAt     time.Time
	CreatedAt      time.Time
}

// FromEvent builds an audit entry from a domain event.
// The whole event is kept as the payload.
func FromEvent(e shared.DomainEvent) (*Log, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	l := &Log{
		ID:             e.EventID(),
		OrganizationID: e.OrganizationID(),
		Action:         e.EventType(),
		EntityType:     e.AggregateType(),
		EntityID:       e.AggregateID(),
		Payload:        payload,
		OccurredAt:     e.OccurredAt(),
		CreatedAt:      time.Now(),
	}
	if actor := e.ActorID(); actor != uuid.Nil {
		l.ActorID = &actor
	}
	return l, nil
}

// Repository stores audit entries
type Repository interface {
	Create(ctx context.Context, l *Log) error
	FindAll(ctx context.Context, filter Filter) ([]Log, int64, error)
}

type Filter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	EntityType      string
	EntityID        *uuid.UUID
	ActorID         *uuid.UUID
	From            *time.Time
	To              *time.Time
}
