package crm

import (
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeLead = "Lead"

const (
	EventTypeLeadStageChanged = "LeadStageChanged"
	EventTypeLeadConverted    = "LeadConverted"
)

type LeadStageChangedEvent struct {
	shared.BaseDomainEvent
	OldStage Stage `json:"old_stage"`
	NewStage Stage `json:"new_stage"`
}

func NewLeadStageChangedEvent(l *Lead, old Stage) *LeadStageChangedEvent {
	return &LeadStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadStageChanged, AggregateTypeLead, l.ID, l.OrganizationID),
		OldStage:        old,
		NewStage:        l.Stage,
	}
}

type LeadConvertedEvent struct {
	shared.BaseDomainEvent
	NewOrganizationID uuid.UUID `json:"new_organization_id"`
	CompanyName       string    `json:"company_name"`
}

func NewLeadConvertedEvent(l *Lead) *LeadConvertedEvent {
	return &LeadConvertedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeLeadConverted, AggregateTypeLead, l.ID, l.OrganizationID),
		NewOrganizationID: *l.ConvertedOrgID,
		CompanyName:       l.CompanyName,
	}
}
