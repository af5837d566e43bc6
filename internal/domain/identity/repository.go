package identity

import (
	"context"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrganizationRepository defines persistence for organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindAll(ctx context.Context, filter OrganizationFilter) ([]Organization, int64, error)
	// FindChildren returns direct children of parentID
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Organization, error)
	// DescendantIDs returns the IDs of every organization below rootID, rootID excluded
	DescendantIDs(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error)
	// AncestorIDs returns the IDs of every organization above id, nearest first
	AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error)
	Save(ctx context.Context, org *Organization) error
}

// OrganizationFilter narrows organization listings
type OrganizationFilter struct {
	shared.Filter
	// IDs restricts results to these organizations; nil means unrestricted
	IDs      []uuid.UUID
	ParentID *uuid.UUID
	Status   OrganizationStatus
	Type     OrganizationType
}

// UserRepository defines persistence for users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error)
	Save(ctx context.Context, user *User) error
}

// UserFilter narrows user listings
type UserFilter struct {
	shared.Filter
	OrganizationIDs []uuid.UUID
	Role            Role
	Status          UserStatus
}
