// Package inspection models an on-site compliance inspection, its
// checklist items, evidence media and closing signatures.
package inspection

import (
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an inspection
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the inspection can still be edited
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// Priority ranks inspections for scheduling
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

// Inspection is the aggregate root for an audit visit. Items, media and
// signatures are loaded separately by their own repositories.
type Inspection struct {
	shared.OrgAggregateRoot
	Title            string
	Description      string
	Location         string
	CompanyName      string
	Address          valueobject.Address
	Geo              *valueobject.GeoPoint
	InspectorID      *uuid.UUID
	InspectorName    string
	ResponsibleName  string
	ResponsibleEmail string
	TemplateID       *uuid.UUID
	Status           Status
	Priority         Priority
	ScheduledAt      *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ComplianceScore  *decimal.Decimal
	Summary          string
	Recommendations  string
}

// NewInspection creates a pending inspection
func NewInspection(orgID, createdBy uuid.UUID, title string) (*Inspection, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Inspection title cannot be empty")
	}
	if len(title) > 300 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Inspection title cannot exceed 300 characters")
	}
	insp := &Inspection{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(orgID, createdBy),
		Title:            title,
		Status:           StatusPending,
		Priority:         PriorityMedium,
	}
	insp.AddDomainEvent(NewInspectionCreatedEvent(insp))
	return insp, nil
}

// Details groups the editable descriptive fields
type Details struct {
	Title            string
	Description      string
	Location         string
	CompanyName      string
	Address          valueobject.Address
	Geo              *valueobject.GeoPoint
	ResponsibleName  string
	ResponsibleEmail string
	Priority         Priority
	ScheduledAt      *time.Time
}

// UpdateDetails replaces the descriptive fields of an open inspection
func (i *Inspection) UpdateDetails(d Details) error {
	if err := i.ensureOpen(); err != nil {
		return err
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Inspection title cannot be empty")
	}
	if d.Priority == "" {
		d.Priority = i.Priority
	}
	if !d.Priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Unknown priority")
	}
	addr, err := d.Address.Normalize()
	if err != nil {
		return shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	if d.Geo != nil {
		if _, err := valueobject.NewGeoPoint(d.Geo.Latitude, d.Geo.Longitude); err != nil {
			return shared.NewDomainError("INVALID_LOCATION", err.Error())
		}
	}

	i.Title = title
	i.Description = strings.TrimSpace(d.Description)
	i.Location = strings.TrimSpace(d.Location)
	i.CompanyName = strings.TrimSpace(d.CompanyName)
	i.Address = addr
	i.Geo = d.Geo
	i.ResponsibleName = strings.TrimSpace(d.ResponsibleName)
	i.ResponsibleEmail = strings.ToLower(strings.TrimSpace(d.ResponsibleEmail))
	i.Priority = d.Priority
	i.ScheduledAt = d.ScheduledAt
	i.IncrementVersion()
	return nil
}

// AssignInspector sets the responsible inspector
func (i *Inspection) AssignInspector(userID uuid.UUID, name string) error {
	if err := i.ensureOpen(); err != nil {
		return err
	}
	i.InspectorID = &userID
	i.InspectorName = strings.TrimSpace(name)
	i.IncrementVersion()
	return nil
}

// UseTemplate records the template the items were copied from
func (i *Inspection) UseTemplate(tpl *checklist.Template) {
	id := tpl.ID
	i.TemplateID = &id
}

// Start moves a pending inspection into progress
func (i *Inspection) Start(at time.Time) error {
	switch i.Status {
	case StatusInProgress:
		return nil
	case StatusPending:
	default:
		return shared.NewDomainError("INVALID_STATE", "Only pending inspections can be started")
	}
	i.Status = StatusInProgress
	i.StartedAt = &at
	i.IncrementVersion()
	i.AddDomainEvent(NewInspectionStatusChangedEvent(i, StatusPending))
	return nil
}

// FinalizeInput carries everything Finalize needs to validate
type FinalizeInput struct {
	Items           []Item
	Signatures      []Signature
	Summary         string
	Recommendations string
	At              time.Time
}

// Finalize closes the inspection. It requires an inspector signature and
// every required item evaluated, then stamps the compliance score.
func (i *Inspection) Finalize(in FinalizeInput) error {
	if !i.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Only pending or in-progress inspections can be finalized")
	}
	if !hasSignature(in.Signatures, SignatureInspector) {
		return shared.NewDomainError("SIGNATURE_REQUIRED", "The inspector signature is required to finalize")
	}
	if missing := MissingRequired(in.Items); len(missing) > 0 {
		return shared.NewDomainError("ITEMS_PENDING",
			"Required items are not evaluated: "+strings.Join(missing, "; "))
	}

	score := CalculateScore(in.Items)
	old := i.Status
	i.Status = StatusCompleted
	if i.StartedAt == nil {
		i.StartedAt = &in.At
	}
	i.CompletedAt = &in.At
	i.ComplianceScore = &score.Percentage
	if s := strings.TrimSpace(in.Summary); s != "" {
		i.Summary = s
	}
	if r := strings.TrimSpace(in.Recommendations); r != "" {
		i.Recommendations = r
	}
	i.IncrementVersion()
	i.AddDomainEvent(NewInspectionFinalizedEvent(i, score))
	i.AddDomainEvent(NewInspectionStatusChangedEvent(i, old))
	return nil
}

// Reopen moves a completed inspection back to in progress and clears the score
func (i *Inspection) Reopen(reason string) error {
	if i.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed inspections can be reopened")
	}
	i.Status = StatusInProgress
	i.CompletedAt = nil
	i.ComplianceScore = nil
	i.IncrementVersion()
	i.AddDomainEvent(NewInspectionReopenedEvent(i, reason))
	i.AddDomainEvent(NewInspectionStatusChangedEvent(i, StatusCompleted))
	return nil
}

// Cancel abandons an open inspection
func (i *Inspection) Cancel() error {
	if !i.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Only pending or in-progress inspections can be cancelled")
	}
	old := i.Status
	i.Status = StatusCancelled
	i.IncrementVersion()
	i.AddDomainEvent(NewInspectionStatusChangedEvent(i, old))
	return nil
}

// IsEditable reports whether items, media and details may still change
func (i *Inspection) IsEditable() bool {
	return i.Status.IsOpen()
}

func (i *Inspection) ensureOpen() error {
	if !i.IsEditable() {
		return shared.NewDomainError("INSPECTION_CLOSED", "Inspection is no longer editable")
	}
	return nil
}

func hasSignature(sigs []Signature, kind SignatureKind) bool {
	for _, s := range sigs {
		if s.Kind == kind && s.HasContent() {
			return true
		}
	}
	return false
}
