package actionplan

import (
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeActionItem = "ActionItem"

const (
	EventTypeActionItemCreated       = "ActionItemCreated"
	EventTypeActionItemStatusChanged = "ActionItemStatusChanged"
	EventTypeActionItemOverdue       = "ActionItemOverdue"
)

type ActionItemCreatedEvent struct {
	shared.BaseDomainEvent
	Title        string     `json:"title"`
	InspectionID *uuid.UUID `json:"inspection_id,omitempty"`
}

func NewActionItemCreatedEvent(a *ActionItem) *ActionItemCreatedEvent {
	return &ActionItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActionItemCreated, AggregateTypeActionItem, a.ID, a.OrganizationID),
		Title:           a.Title,
		InspectionID:    a.InspectionID,
	}
}

type ActionItemStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

func NewActionItemStatusChangedEvent(a *ActionItem, old Status) *ActionItemStatusChangedEvent {
	return &ActionItemStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActionItemStatusChanged, AggregateTypeActionItem, a.ID, a.OrganizationID),
		OldStatus:       old,
		NewStatus:       a.Status,
	}
}

type ActionItemOverdueEvent struct {
	shared.BaseDomainEvent
	Deadline *time.Time `json:"deadline"`
	Who      string     `json:"who,omitempty"`
}

func NewActionItemOverdueEvent(a *ActionItem) *ActionItemOverdueEvent {
	return &ActionItemOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActionItemOverdue, AggregateTypeActionItem, a.ID, a.OrganizationID),
		Deadline:        a.When,
		Who:             a.Who,
	}
}
