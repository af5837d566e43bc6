package ata

import "github.com/compia/backend/internal/domain/shared"

const AggregateTypeAta = "Ata"

const (
	EventTypeAtaCompleted = "AtaCompleted"
	EventTypeAtaFailed    = "AtaFailed"
)

type AtaCompletedEvent struct {
	shared.BaseDomainEvent
	InspectionID string `json:"inspection_id"`
	Findings     int    `json:"findings"`
	MatchedItems int    `json:"matched_items"`
	Model        string `json:"model"`
}

func NewAtaCompletedEvent(a *Ata) *AtaCompletedEvent {
	return &AtaCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAtaCompleted, AggregateTypeAta, a.ID, a.OrganizationID),
		InspectionID:    a.InspectionID.String(),
		Findings:        len(a.Findings),
		MatchedItems:    a.MatchedItems,
		Model:           a.Model,
	}
}

type AtaFailedEvent struct {
	shared.BaseDomainEvent
	InspectionID string `json:"inspection_id"`
	Error        string `json:"error"`
	Attempts     int    `json:"attempts"`
}

func NewAtaFailedEvent(a *Ata) *AtaFailedEvent {
	return &AtaFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAtaFailed, AggregateTypeAta, a.ID, a.OrganizationID),
		InspectionID:    a.InspectionID.String(),
		Error:           a.ErrorMessage,
		Attempts:        a.Attempts,
	}
}
