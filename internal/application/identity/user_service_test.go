package identity

import (
	"context"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userFixture struct {
	service   *UserService
	users     *MockUserRepository
	orgs      *MockOrganizationRepository
	usage     *MockUsageChecker
	blacklist *auth.InMemoryTokenBlacklist
	events    *recordingPublisher
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:     new(MockUserRepository),
		orgs:      new(MockOrganizationRepository),
		usage:     new(MockUsageChecker),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		events:    &recordingPublisher{},
	}
	f.service = NewUserService(f.users, f.orgs, f.usage, f.blacklist, time.Hour, f.events, zap.NewNop())
	return f
}

func TestUserService_Create(t *testing.T) {
	org := createTestOrganization(t, nil)
	admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)

	t.Run("invites without password", func(t *testing.T) {
		f := newUserFixture()
		f.orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
		f.users.On("ExistsByEmail", mock.MatchedBy(isSystem), "nova@compia.com.br").Return(false, nil)
		f.usage.On("CheckUsage", mock.Anything, org.ID, billing.UsageUsers).Return(nil)
		f.users.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		info, err := f.service.Create(context.Background(), admin, CreateUserInput{
			Email: "nova@compia.com.br",
			Name:  "Nova Inspetora",
			Role:  identity.RoleInspector,
			Phone: "11999990000",
		})

		require.NoError(t, err)
		assert.Equal(t, identity.UserStatusPending, info.Status)
		assert.True(t, info.MustChangePassword)
		assert.Equal(t, "11999990000", info.Phone)
		assert.Equal(t, []string{identity.EventTypeUserCreated}, f.events.types())
		f.usage.AssertExpectations(t)
	})

	t.Run("with password is active", func(t *testing.T) {
		f := newUserFixture()
		f.orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.usage.On("CheckUsage", mock.Anything, org.ID, billing.UsageUsers).Return(nil)
		f.users.On("Save", mock.Anything, mock.Anything).Return(nil)

		info, err := f.service.Create(context.Background(), admin, CreateUserInput{
			Email:    "gerente@compia.com.br",
			Name:     "Gerente",
			Role:     identity.RoleManager,
			Password: testPassword,
		})

		require.NoError(t, err)
		assert.Equal(t, identity.UserStatusActive, info.Status)
	})

	t.Run("org admin cannot create sys_admin", func(t *testing.T) {
		f := newUserFixture()

		_, err := f.service.Create(context.Background(), admin, CreateUserInput{
			Email: "root@compia.com.br",
			Name:  "Root",
			Role:  identity.RoleSysAdmin,
		})
		assertCode(t, err, "FORBIDDEN_ROLE")
	})

	t.Run("target organization must be accessible", func(t *testing.T) {
		f := newUserFixture()
		other := uuid.New()

		_, err := f.service.Create(context.Background(), admin, CreateUserInput{
			OrganizationID: &other,
			Email:          "x@compia.com.br",
			Name:           "X",
			Role:           identity.RoleClient,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newUserFixture()
		f.orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
		f.users.On("ExistsByEmail", mock.Anything, "dup@compia.com.br").Return(true, nil)

		_, err := f.service.Create(context.Background(), admin, CreateUserInput{
			Email: "dup@compia.com.br",
			Name:  "Dup",
			Role:  identity.RoleClient,
		})
		assertCode(t, err, "EMAIL_ALREADY_EXISTS")
	})

	t.Run("plan limit", func(t *testing.T) {
		f := newUserFixture()
		f.orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
		f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
		f.usage.On("CheckUsage", mock.Anything, org.ID, billing.UsageUsers).Return(shared.ErrPlanLimitExceeded)

		_, err := f.service.Create(context.Background(), admin, CreateUserInput{
			Email: "extra@compia.com.br",
			Name:  "Extra",
			Role:  identity.RoleClient,
		})
		assert.ErrorIs(t, err, shared.ErrPlanLimitExceeded)
		f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("manager can only create inspectors and clients", func(t *testing.T) {
		f := newUserFixture()
		manager := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleManager, nil)

		_, err := f.service.Create(context.Background(), manager, CreateUserInput{
			Email: "admin2@compia.com.br",
			Name:  "Admin 2",
			Role:  identity.RoleOrgAdmin,
		})
		assertCode(t, err, "FORBIDDEN_ROLE")
	})
}

func TestUserService_ChangeRole_RevokesTokens(t *testing.T) {
	f := newUserFixture()
	org := createTestOrganization(t, nil)
	user := createTestUser(t, org.ID, identity.RoleInspector)
	admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)
	ctx := context.Background()

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	info, err := f.service.ChangeRole(ctx, admin, user.ID, identity.RoleManager)

	require.NoError(t, err)
	assert.Equal(t, identity.RoleManager, info.Role)
	assert.Equal(t, []string{identity.EventTypeUserRoleChanged}, f.events.types())

	invalidated, err := f.blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)

	_, err = f.service.ChangeRole(ctx, admin, user.ID, identity.RoleSysAdmin)
	assertCode(t, err, "FORBIDDEN_ROLE")
}

func TestUserService_ManagedGuards(t *testing.T) {
	org := createTestOrganization(t, nil)
	ctx := context.Background()

	t.Run("cannot act on self", func(t *testing.T) {
		f := newUserFixture()
		admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)

		_, err := f.service.Deactivate(ctx, admin, admin.UserID)
		assertCode(t, err, "FORBIDDEN_SELF")
	})

	t.Run("manager cannot deactivate an org admin", func(t *testing.T) {
		f := newUserFixture()
		target := createTestUser(t, org.ID, identity.RoleOrgAdmin)
		f.users.On("FindByID", mock.Anything, target.ID).Return(target, nil)
		manager := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleManager, nil)

		_, err := f.service.ChangeRole(ctx, manager, target.ID, identity.RoleClient)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("user in another tenant is not found", func(t *testing.T) {
		f := newUserFixture()
		target := createTestUser(t, uuid.New(), identity.RoleInspector)
		f.users.On("FindByID", mock.Anything, target.ID).Return(target, nil)
		admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)

		_, err := f.service.Deactivate(ctx, admin, target.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestUserService_DeactivateAndActivate(t *testing.T) {
	f := newUserFixture()
	org := createTestOrganization(t, nil)
	user := createTestUser(t, org.ID, identity.RoleInspector)
	admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)
	ctx := context.Background()
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	info, err := f.service.Deactivate(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusInactive, info.Status)

	info, err = f.service.Activate(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusActive, info.Status)
}

func TestUserService_ResetPassword(t *testing.T) {
	f := newUserFixture()
	org := createTestOrganization(t, nil)
	user := createTestUser(t, org.ID, identity.RoleClient)
	admin := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	err := f.service.ResetPassword(context.Background(), admin, user.ID, "Temporaria9")

	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("Temporaria9"))
	assert.True(t, user.MustChangePassword)
}

func TestUserService_Update_Self(t *testing.T) {
	f := newUserFixture()
	org := createTestOrganization(t, nil)
	user := createTestUser(t, org.ID, identity.RoleClient)
	self := identity.NewAccessScope(user.ID, org.ID, identity.RoleClient, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	info, err := f.service.Update(context.Background(), self, user.ID, UpdateUserInput{Name: "Cliente Renomeado", Phone: "11 3000-0000"})

	require.NoError(t, err)
	assert.Equal(t, "Cliente Renomeado", info.Name)

	// A client may not edit anyone else
	_, err = f.service.Update(context.Background(), self, uuid.New(), UpdateUserInput{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUserService_List_RestrictsToScope(t *testing.T) {
	f := newUserFixture()
	orgID := uuid.New()
	admin := identity.NewAccessScope(uuid.New(), orgID, identity.RoleOrgAdmin, nil)
	f.users.On("FindAll", mock.Anything, mock.MatchedBy(func(filter identity.UserFilter) bool {
		return len(filter.OrganizationIDs) == 1 && filter.OrganizationIDs[0] == orgID && filter.Role == identity.RoleInspector
	})).Return([]identity.User{}, int64(0), nil)

	page, err := f.service.List(context.Background(), admin, UserListFilter{Role: identity.RoleInspector})

	require.NoError(t, err)
	assert.Empty(t, page.Items)

	other := uuid.New()
	_, err = f.service.List(context.Background(), admin, UserListFilter{OrganizationID: &other})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
