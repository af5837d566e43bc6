// Package actionplan models corrective actions in the 5W2H format:
// What, Why, Where, When, Who, How and How much.
package actionplan

import (
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle of an action item
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsOpen reports whether work on the item is still expected
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s.IsOpen() || s == StatusCompleted || s == StatusCancelled
}

// Priority of an action item
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Plan is the 5W2H body of an action item
type Plan struct {
	What      string
	Why       string
	Where     string
	When      *time.Time
	Who       string
	WhoUserID *uuid.UUID
	How       string
	HowMuch   decimal.Decimal
}

// ActionItem is a corrective action, usually raised from a non-compliant item
type ActionItem struct {
	shared.OrgAggregateRoot
	InspectionID *uuid.UUID
	ItemID       *uuid.UUID
	Title        string
	Plan
	Priority    Priority
	Status      Status
	IsOverdue   bool
	CompletedAt *time.Time
	// Generated is set for drafts created automatically on finalize or by the ATA pipeline
	Generated bool
}

// NewActionItem validates and creates a pending action item
func NewActionItem(orgID, createdBy uuid.UUID, title string, plan Plan, priority Priority) (*ActionItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(plan.What)
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_ACTION_ITEM", "Title or 'what' is required")
	}
	if r := []rune(title); len(r) > 300 {
		title = string(r[:300])
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Unknown priority")
	}
	if err := validatePlan(&plan); err != nil {
		return nil, err
	}

	a := &ActionItem{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(orgID, createdBy),
		Title:            title,
		Plan:             plan,
		Priority:         priority,
		Status:           StatusPending,
	}
	a.AddDomainEvent(NewActionItemCreatedEvent(a))
	return a, nil
}

// LinkInspection ties the action to an inspection and optionally one of its items
func (a *ActionItem) LinkInspection(inspectionID uuid.UUID, itemID *uuid.UUID) {
	a.InspectionID = &inspectionID
	a.ItemID = itemID
}

// UpdatePlan replaces the 5W2H body
func (a *ActionItem) UpdatePlan(title string, plan Plan, priority Priority) error {
	if a.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cancelled action items cannot be edited")
	}
	if err := validatePlan(&plan); err != nil {
		return err
	}
	if title = strings.TrimSpace(title); title != "" {
		a.Title = title
	}
	if priority != "" {
		if !priority.IsValid() {
			return shared.NewDomainError("INVALID_PRIORITY", "Unknown priority")
		}
		a.Priority = priority
	}
	a.Plan = plan
	a.IsOverdue = a.computeOverdue(time.Now())
	a.IncrementVersion()
	return nil
}

// ChangeStatus moves the item along its lifecycle.
// Completed and cancelled are terminal except completed → in_progress (reopen).
func (a *ActionItem) ChangeStatus(next Status, at time.Time) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown status")
	}
	if next == a.Status {
		return nil
	}
	switch a.Status {
	case StatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cancelled action items cannot change status")
	case StatusCompleted:
		if next != StatusInProgress {
			return shared.NewDomainError("INVALID_STATE", "Completed action items can only be reopened")
		}
	}
	old := a.Status
	a.Status = next
	if next == StatusCompleted {
		a.CompletedAt = &at
		a.IsOverdue = false
	} else {
		a.CompletedAt = nil
		a.IsOverdue = a.computeOverdue(at)
	}
	a.IncrementVersion()
	a.AddDomainEvent(NewActionItemStatusChangedEvent(a, old))
	return nil
}

// MarkOverdue refreshes the overdue flag and reports whether it flipped to true
func (a *ActionItem) MarkOverdue(now time.Time) bool {
	overdue := a.computeOverdue(now)
	if overdue == a.IsOverdue {
		return false
	}
	a.IsOverdue = overdue
	a.IncrementVersion()
	if overdue {
		a.AddDomainEvent(NewActionItemOverdueEvent(a))
	}
	return overdue
}

func (a *ActionItem) computeOverdue(now time.Time) bool {
	return a.Status.IsOpen() && a.When != nil && now.After(*a.When)
}

// DraftForNonCompliance builds a generated action item for a failed checklist item
func DraftForNonCompliance(orgID, createdBy, inspectionID, itemID uuid.UUID, description, observation string) (*ActionItem, error) {
	why := strings.TrimSpace(observation)
	if why == "" {
		why = "Item não conforme na inspeção"
	}
	a, err := NewActionItem(orgID, createdBy, "Corrigir: "+strings.TrimSpace(description), Plan{
		What: strings.TrimSpace(description),
		Why:  why,
	}, PriorityMedium)
	if err != nil {
		return nil, err
	}
	item := itemID
	a.LinkInspection(inspectionID, &item)
	a.Generated = true
	return a, nil
}

func validatePlan(p *Plan) error {
	p.What = strings.TrimSpace(p.What)
	p.Why = strings.TrimSpace(p.Why)
	p.Where = strings.TrimSpace(p.Where)
	p.Who = strings.TrimSpace(p.Who)
	p.How = strings.TrimSpace(p.How)
	if p.HowMuch.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	return nil
}
