package actionplan

import (
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanInput is the 5W2H body of a request
type PlanInput struct {
	What      string          `json:"what" binding:"max=2000"`
	Why       string          `json:"why" binding:"max=2000"`
	Where     string          `json:"where" binding:"max=500"`
	When      *time.Time      `json:"when"`
	Who       string          `json:"who" binding:"max=200"`
	WhoUserID *uuid.UUID      `json:"who_user_id"`
	How       string          `json:"how" binding:"max=2000"`
	HowMuch   decimal.Decimal `json:"how_much"`
}

func (p PlanInput) toDomain() actionplan.Plan {
	return actionplan.Plan{
		What:      p.What,
		Why:       p.Why,
		Where:     p.Where,
		When:      p.When,
		Who:       p.Who,
		WhoUserID: p.WhoUserID,
		How:       p.How,
		HowMuch:   p.HowMuch,
	}
}

// CreateActionItemInput contains the input for creating an action item
type CreateActionItemInput struct {
	OrganizationID *uuid.UUID          `json:"organization_id"`
	InspectionID   *uuid.UUID          `json:"inspection_id"`
	ItemID         *uuid.UUID          `json:"item_id"`
	Title          string              `json:"title" binding:"max=300"`
	Priority       actionplan.Priority `json:"priority"`
	PlanInput
}

// UpdateActionItemInput replaces the plan of an action item
type UpdateActionItemInput struct {
	Title    string              `json:"title" binding:"max=300"`
	Priority actionplan.Priority `json:"priority"`
	PlanInput
}

// ChangeStatusInput moves an action item along its lifecycle
type ChangeStatusInput struct {
	Status actionplan.Status `json:"status" binding:"required"`
}

// ListFilter narrows an action item listing
type ListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	InspectionID   *uuid.UUID
	Status         actionplan.Status
	OverdueOnly    bool
	WhoUserID      *uuid.UUID
}

// ActionItemResponse is the public view of an action item
type ActionItemResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	InspectionID   *uuid.UUID          `json:"inspection_id,omitempty"`
	ItemID         *uuid.UUID          `json:"item_id,omitempty"`
	Title          string              `json:"title"`
	What           string              `json:"what"`
	Why            string              `json:"why"`
	Where          string              `json:"where"`
	When           *time.Time          `json:"when"`
	Who            string              `json:"who"`
	WhoUserID      *uuid.UUID          `json:"who_user_id,omitempty"`
	How            string              `json:"how"`
	HowMuch        decimal.Decimal     `json:"how_much"`
	Priority       actionplan.Priority `json:"priority"`
	Status         actionplan.Status   `json:"status"`
	IsOverdue      bool                `json:"is_overdue"`
	Generated      bool                `json:"generated"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	CreatedBy      *uuid.UUID          `json:"created_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToActionItemResponse converts a domain action item
func ToActionItemResponse(a *actionplan.ActionItem) ActionItemResponse {
	return ActionItemResponse{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		InspectionID:   a.InspectionID,
		ItemID:         a.ItemID,
		Title:          a.Title,
		What:           a.What,
		Why:            a.Why,
		Where:          a.Where,
		When:           a.When,
		Who:            a.Who,
		WhoUserID:      a.WhoUserID,
		How:            a.How,
		HowMuch:        a.HowMuch,
		Priority:       a.Priority,
		Status:         a.Status,
		IsOverdue:      a.IsOverdue,
		Generated:      a.Generated,
		CompletedAt:    a.CompletedAt,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
