package inspection

import (
	"github.com/compia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const AggregateTypeInspection = "Inspection"

const (
	EventTypeInspectionCreated       = "InspectionCreated"
	EventTypeInspectionStatusChanged = "InspectionStatusChanged"
	EventTypeInspectionFinalized     = "InspectionFinalized"
	EventTypeInspectionReopened      = "InspectionReopened"
)

type InspectionCreatedEvent struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

func NewInspectionCreatedEvent(i *Inspection) *InspectionCreatedEvent {
	return &InspectionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionCreated, AggregateTypeInspection, i.ID, i.OrganizationID),
		Title:           i.Title,
	}
}

type InspectionStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

func NewInspectionStatusChangedEvent(i *Inspection, old Status) *InspectionStatusChangedEvent {
	return &InspectionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionStatusChanged, AggregateTypeInspection, i.ID, i.OrganizationID),
		OldStatus:       old,
		NewStatus:       i.Status,
	}
}

// InspectionFinalizedEvent carries the score computed at closing time
type InspectionFinalizedEvent struct {
	shared.BaseDomainEvent
	Title           string          `json:"title"`
	ComplianceScore decimal.Decimal `json:"compliance_score"`
	Compliant       int             `json:"compliant"`
	NonCompliant    int             `json:"non_compliant"`
	NotApplicable   int             `json:"not_applicable"`
}

func NewInspectionFinalizedEvent(i *Inspection, s Score) *InspectionFinalizedEvent {
	return &InspectionFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionFinalized, AggregateTypeInspection, i.ID, i.OrganizationID),
		Title:           i.Title,
		ComplianceScore: s.Percentage,
		Compliant:       s.Compliant,
		NonCompliant:    s.NonCompliant,
		NotApplicable:   s.NotApplicable,
	}
}

type InspectionReopenedEvent struct {
	shared.BaseDomainEvent
	Reason string `json:"reason,omitempty"`
}

func NewInspectionReopenedEvent(i *Inspection, reason string) *InspectionReopenedEvent {
	return &InspectionReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionReopened, AggregateTypeInspection, i.ID, i.OrganizationID),
		Reason:          reason,
	}
}
