// Package rls runs GORM statements under Postgres row-level security.
//
// Every statement executes inside a transaction that first sets the
// transaction-local settings app.current_org_id, app.current_user_id and
// app.current_role. The row-level security policies read those settings,
// so a pooled connection never carries one request's claims into another.
//
//	db := rls.New(gormDB)
//	ctx = rls.WithSession(ctx, rls.Session{OrganizationID: org, UserID: user, Role: "manager"})
//	err := db.Run(ctx, func(tx *gorm.DB) error { return tx.Find(&rows).Error })
package rls

import (
	"context"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/google/uuid"
)

const (
	// RoleSystem is used by sweeps, migrations and login lookups
	RoleSystem = "system"
	// RoleWorker is a background job acting for one organization
	RoleWorker = "worker"
)

// Session is the identity a statement runs as
type Session struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           string
	// OrganizationIDs are the organizations visible to the session.
	// Empty means the session's own organization only.
	OrganizationIDs []uuid.UUID
}

// Unrestricted reports whether the session bypasses organization filtering
func (s Session) Unrestricted() bool {
	return s.Role == RoleSystem || s.Role == string(identity.RoleSysAdmin)
}

// Visible returns the organizations the session may read
func (s Session) Visible() []uuid.UUID {
	if len(s.OrganizationIDs) > 0 {
		return s.OrganizationIDs
	}
	return []uuid.UUID{s.OrganizationID}
}

// FromScope builds a session from an authorization scope
func FromScope(scope identity.AccessScope) Session {
	return Session{
		OrganizationID:  scope.OrganizationID,
		UserID:          scope.UserID,
		Role:            string(scope.Role),
		OrganizationIDs: scope.OrganizationIDs,
	}
}

type sessionKey struct{}

type txKey struct{}

// WithSession attaches s to ctx
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session attached to ctx
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// System marks ctx as a trusted internal caller that sees every row
func System(ctx context.Context) context.Context {
	return WithSession(ctx, Session{Role: RoleSystem})
}

// Worker binds ctx to one organization for a background job started by userID
func Worker(ctx context.Context, orgID, userID uuid.UUID) context.Context {
	return WithSession(ctx, Session{OrganizationID: orgID, UserID: userID, Role: RoleWorker})
}
