package identity

import (
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccessScope describes what a signed-in principal may see.
// OrganizationIDs is nil for a sys_admin, meaning every organization.
type AccessScope struct {
	UserID          uuid.UUID
	OrganizationID  uuid.UUID
	Role            Role
	OrganizationIDs []uuid.UUID
}

// NewAccessScope computes the visible organizations for a user.
// descendants must be the organizations below the user's own; it is
// ignored for roles that only see their own organization.
func NewAccessScope(userID, orgID uuid.UUID, role Role, descendants []uuid.UUID) AccessScope {
	scope := AccessScope{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
	}
	if role == RoleSysAdmin {
		return scope
	}
	ids := []uuid.UUID{orgID}
	if role.SeesDescendants() {
		for _, id := range descendants {
			if id != orgID {
				ids = append(ids, id)
			}
		}
	}
	scope.OrganizationIDs = ids
	return scope
}

// IsSysAdmin reports whether the scope is unrestricted
func (s AccessScope) IsSysAdmin() bool {
	return s.Role == RoleSysAdmin
}

// CanAccessOrganization reports whether orgID is visible
func (s AccessScope) CanAccessOrganization(orgID uuid.UUID) bool {
	if s.IsSysAdmin() {
		return true
	}
	for _, id := range s.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

// Can checks a permission code against the role matrix
func (s AccessScope) Can(permission string) bool {
	return s.Role.HasPermission(permission)
}

// Require returns ErrForbidden unless the permission is granted
func (s AccessScope) Require(permission string) error {
	if !s.Can(permission) {
		return shared.ErrForbidden
	}
	return nil
}

// RequireOrganization returns ErrNotFound for an invisible organization.
// Not-found rather than forbidden keeps other tenants' IDs unconfirmed.
func (s AccessScope) RequireOrganization(orgID uuid.UUID) error {
	if !s.CanAccessOrganization(orgID) {
		return shared.ErrNotFound
	}
	return nil
}

// Restrict narrows a requested organization list to the visible ones.
// A nil result means unrestricted (sys_admin without an explicit filter).
func (s AccessScope) Restrict(requested *uuid.UUID) ([]uuid.UUID, error) {
	if requested != nil {
		if err := s.RequireOrganization(*requested); err != nil {
			return nil, err
		}
		return []uuid.UUID{*requested}, nil
	}
	if s.IsSysAdmin() {
		return nil, nil
	}
	return s.OrganizationIDs, nil
}
