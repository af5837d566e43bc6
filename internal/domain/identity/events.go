package identity

import (
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeOrganization = "Organization"
	AggregateTypeUser         = "User"
)

const (
	EventTypeOrganizationCreated       = "OrganizationCreated"
	EventTypeOrganizationStatusChanged = "OrganizationStatusChanged"
	EventTypeOrganizationPlanChanged   = "OrganizationPlanChanged"

	EventTypeUserCreated         = "UserCreated"
	EventTypeUserRoleChanged     = "UserRoleChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
)

// OrganizationCreatedEvent is published when an organization is created
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Name     string           `json:"name"`
	Type     OrganizationType `json:"type"`
	ParentID *uuid.UUID       `json:"parent_id,omitempty"`
}

func NewOrganizationCreatedEvent(o *Organization) *OrganizationCreatedEvent {
	// An organization owns itself for audit purposes
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, AggregateTypeOrganization, o.ID, o.ID),
		Name:            o.Name,
		Type:            o.Type,
		ParentID:        o.ParentID,
	}
}

// OrganizationStatusChangedEvent is published on suspend/activate
type OrganizationStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus OrganizationStatus `json:"old_status"`
	NewStatus OrganizationStatus `json:"new_status"`
}

func NewOrganizationStatusChangedEvent(o *Organization, old OrganizationStatus) *OrganizationStatusChangedEvent {
	return &OrganizationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationStatusChanged, AggregateTypeOrganization, o.ID, o.ID),
		OldStatus:       old,
		NewStatus:       o.Status,
	}
}

// OrganizationPlanChangedEvent is published when the plan changes
type OrganizationPlanChangedEvent struct {
	shared.BaseDomainEvent
	OldPlan Plan `json:"old_plan"`
	NewPlan Plan `json:"new_plan"`
}

func NewOrganizationPlanChangedEvent(o *Organization, old Plan) *OrganizationPlanChangedEvent {
	return &OrganizationPlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationPlanChanged, AggregateTypeOrganization, o.ID, o.ID),
		OldPlan:         old,
		NewPlan:         o.Plan,
	}
}

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, u.ID, u.OrganizationID),
		Email:           u.Email,
		Role:            u.Role,
	}
}

// UserRoleChangedEvent is published when a user's role changes
type UserRoleChangedEvent struct {
	shared.BaseDomainEvent
	OldRole Role `json:"old_role"`
	NewRole Role `json:"new_role"`
}

func NewUserRoleChangedEvent(u *User, old Role) *UserRoleChangedEvent {
	return &UserRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRoleChanged, AggregateTypeUser, u.ID, u.OrganizationID),
		OldRole:         old,
		NewRole:         u.Role,
	}
}

// UserStatusChangedEvent is published on activation, lock and deactivation
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
}

func NewUserStatusChangedEvent(u *User, old UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, u.ID, u.OrganizationID),
		OldStatus:       old,
		NewStatus:       u.Status,
	}
}

// UserPasswordChangedEvent is published after any password change
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
}

func NewUserPasswordChangedEvent(u *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, u.ID, u.OrganizationID),
	}
}
