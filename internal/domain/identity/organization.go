package identity

import (
	"net/mail"
	"strings"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OrganizationType classifies an organization inside the hierarchy
type OrganizationType string

const (
	OrganizationTypeMaster      OrganizationType = "master"      // Platform owner
	OrganizationTypeConsultancy OrganizationType = "consultancy" // Manages client companies
	OrganizationTypeCompany     OrganizationType = "company"
	OrganizationTypeBranch      OrganizationType = "branch"
)

// OrganizationStatus represents the lifecycle of an organization
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusInactive  OrganizationStatus = "inactive"
)

// Plan is the subscription tier of an organization
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// IsValid reports whether p is a known plan
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Organization is the tenancy root. Every org-owned row references one,
// and ParentID links consultancies to the companies they audit.
type Organization struct {
	shared.BaseAggregateRoot
	Name         string
	TradeName    string
	CNPJ         string
	Type         OrganizationType
	ParentID     *uuid.UUID
	Plan         Plan
	Status       OrganizationStatus
	ContactEmail string
	ContactPhone string
	Address      valueobject.Address
	LogoURL      string
}

// NewOrganization creates an active organization on the free plan
func NewOrganization(name string, orgType OrganizationType, parentID *uuid.UUID) (*Organization, error) {
	name = strings.TrimSpace(name)
	if err := validateOrganizationName(name); err != nil {
		return nil, err
	}
	if err := validateOrganizationType(orgType); err != nil {
		return nil, err
	}
	if orgType == OrganizationTypeBranch && parentID == nil {
		return nil, shared.NewDomainError("PARENT_REQUIRED", "A branch must belong to a parent organization")
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              orgType,
		ParentID:          parentID,
		Plan:              PlanFree,
		Status:            OrganizationStatusActive,
	}
	if parentID != nil && *parentID == org.ID {
		return nil, shared.NewDomainError("INVALID_PARENT", "An organization cannot be its own parent")
	}

	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// Update changes descriptive fields
func (o *Organization) Update(name, tradeName string) error {
	name = strings.TrimSpace(name)
	if err := validateOrganizationName(name); err != nil {
		return err
	}
	o.Name = name
	o.TradeName = strings.TrimSpace(tradeName)
	o.IncrementVersion()
	return nil
}

// SetCNPJ validates and stores the registry number; empty clears it
func (o *Organization) SetCNPJ(raw string) error {
	if strings.TrimSpace(raw) == "" {
		o.CNPJ = ""
		o.IncrementVersion()
		return nil
	}
	cnpj, err := valueobject.NewCNPJ(raw)
	if err != nil {
		return shared.NewDomainError("INVALID_CNPJ", err.Error())
	}
	o.CNPJ = cnpj.String()
	o.IncrementVersion()
	return nil
}

// SetContact sets contact email and phone
func (o *Organization) SetContact(email, phone string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid contact email")
		}
	}
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	o.ContactEmail = email
	o.ContactPhone = strings.TrimSpace(phone)
	o.IncrementVersion()
	return nil
}

// SetAddress normalizes and stores the address
func (o *Organization) SetAddress(addr valueobject.Address) error {
	normalized, err := addr.Normalize()
	if err != nil {
		return shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	o.Address = normalized
	o.IncrementVersion()
	return nil
}

// SetParent moves the organization under a new parent.
// ancestorsOfParent must contain every ancestor of newParent so that cycles can be detected.
func (o *Organization) SetParent(newParent *uuid.UUID, ancestorsOfParent []uuid.UUID) error {
	if newParent == nil {
		if o.Type == OrganizationTypeBranch {
			return shared.NewDomainError("PARENT_REQUIRED", "A branch must belong to a parent organization")
		}
		o.ParentID = nil
		o.IncrementVersion()
		return nil
	}
	if *newParent == o.ID {
		return shared.NewDomainError("INVALID_PARENT", "An organization cannot be its own parent")
	}
	for _, id := range ancestorsOfParent {
		if id == o.ID {
			return shared.NewDomainError("HIERARCHY_CYCLE", "Moving the organization would create a cycle")
		}
	}
	o.ParentID = newParent
	o.IncrementVersion()
	return nil
}

// ChangePlan switches the subscription tier
func (o *Organization) ChangePlan(plan Plan) error {
	if !plan.IsValid() {
		return shared.NewDomainError("INVALID_PLAN", "Unknown plan")
	}
	if o.Plan == plan {
		return nil
	}
	old := o.Plan
	o.Plan = plan
	o.IncrementVersion()
	o.AddDomainEvent(NewOrganizationPlanChangedEvent(o, old))
	return nil
}

// Suspend blocks every member from logging in
func (o *Organization) Suspend() error {
	if o.Status == OrganizationStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Organization is already suspended")
	}
	old := o.Status
	o.Status = OrganizationStatusSuspended
	o.IncrementVersion()
	o.AddDomainEvent(NewOrganizationStatusChangedEvent(o, old))
	return nil
}

// Activate reactivates a suspended or inactive organization
func (o *Organization) Activate() error {
	if o.Status == OrganizationStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Organization is already active")
	}
	old := o.Status
	o.Status = OrganizationStatusActive
	o.IncrementVersion()
	o.AddDomainEvent(NewOrganizationStatusChangedEvent(o, old))
	return nil
}

// IsActive returns true if members may use the platform
func (o *Organization) IsActive() bool {
	return o.Status == OrganizationStatusActive
}

func validateOrganizationName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot exceed 200 characters")
	}
	return nil
}

func validateOrganizationType(t OrganizationType) error {
	switch t {
	case OrganizationTypeMaster, OrganizationTypeConsultancy, OrganizationTypeCompany, OrganizationTypeBranch:
		return nil
	}
	return shared.NewDomainError("INVALID_ORGANIZATION_TYPE", "Unknown organization type")
}
