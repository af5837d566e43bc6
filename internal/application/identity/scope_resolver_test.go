package identity

import (
	"context"
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScopeResolver_Resolve(t *testing.T) {
	orgs := new(MockOrganizationRepository)
	resolver := NewScopeResolver(orgs, 0, zap.NewNop())
	orgID := uuid.New()
	child := uuid.New()
	orgs.On("DescendantIDs", mock.MatchedBy(isSystem), orgID).Return([]uuid.UUID{child}, nil).Once()
	ctx := context.Background()

	scope, err := resolver.Resolve(ctx, uuid.New(), orgID, identity.RoleOrgAdmin)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orgID, child}, scope.OrganizationIDs)

	// Second call is served from the cache
	scope, err = resolver.Resolve(ctx, uuid.New(), orgID, identity.RoleManager)
	require.NoError(t, err)
	assert.True(t, scope.CanAccessOrganization(child))
	orgs.AssertNumberOfCalls(t, "DescendantIDs", 1)

	resolver.Invalidate()
	orgs.On("DescendantIDs", mock.Anything, orgID).Return([]uuid.UUID{}, nil).Once()
	scope, err = resolver.Resolve(ctx, uuid.New(), orgID, identity.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orgID}, scope.OrganizationIDs)
	orgs.AssertNumberOfCalls(t, "DescendantIDs", 2)
}

func TestScopeResolver_OwnOrganizationRoles(t *testing.T) {
	orgs := new(MockOrganizationRepository)
	resolver := NewScopeResolver(orgs, 0, zap.NewNop())
	orgID := uuid.New()

	scope, err := resolver.Resolve(context.Background(), uuid.New(), orgID, identity.RoleInspector)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orgID}, scope.OrganizationIDs)

	scope, err = resolver.Resolve(context.Background(), uuid.New(), orgID, identity.RoleSysAdmin)
	require.NoError(t, err)
	assert.Nil(t, scope.OrganizationIDs)
	orgs.AssertNotCalled(t, "DescendantIDs", mock.Anything, mock.Anything)
}
