package identity

import (
	"context"
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrganizationService() (*OrganizationService, *MockOrganizationRepository, *recordingPublisher) {
	orgs := new(MockOrganizationRepository)
	events := &recordingPublisher{}
	resolver := NewScopeResolver(orgs, 0, zap.NewNop())
	return NewOrganizationService(orgs, resolver, events, zap.NewNop()), orgs, events
}

func sysAdminScope() identity.AccessScope {
	return identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleSysAdmin, nil)
}

func TestOrganizationService_Create(t *testing.T) {
	t.Run("org admin creates a child of its own organization", func(t *testing.T) {
		svc, orgs, events := newOrganizationService()
		parent := createTestOrganization(t, nil)
		scope := identity.NewAccessScope(uuid.New(), parent.ID, identity.RoleOrgAdmin, nil)

		orgs.On("FindByID", mock.Anything, parent.ID).Return(parent, nil)
		orgs.On("ExistsByCNPJ", mock.MatchedBy(isSystem), "11222333000181").Return(false, nil)
		orgs.On("Save", mock.Anything, mock.AnythingOfType("*identity.Organization")).Return(nil)

		resp, err := svc.Create(context.Background(), scope, CreateOrganizationInput{
			Name:         "Filial Centro",
			Type:         identity.OrganizationTypeBranch,
			CNPJ:         "11.222.333/0001-81",
			ContactEmail: "Contato@Filial.com.br",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.ParentID)
		assert.Equal(t, parent.ID, *resp.ParentID)
		assert.Equal(t, "11.222.333/0001-81", resp.CNPJ)
		assert.Equal(t, "contato@filial.com.br", resp.ContactEmail)
		assert.Equal(t, identity.PlanFree, resp.Plan)
		assert.Equal(t, []string{identity.EventTypeOrganizationCreated}, events.types())
		assert.Equal(t, scope.UserID, events.events[0].ActorID())
	})

	t.Run("parent outside scope is not found", func(t *testing.T) {
		svc, _, _ := newOrganizationService()
		scope := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleOrgAdmin, nil)
		other := uuid.New()

		_, err := svc.Create(context.Background(), scope, CreateOrganizationInput{
			Name:     "Invasora",
			Type:     identity.OrganizationTypeCompany,
			ParentID: &other,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("only sys_admin creates master organizations", func(t *testing.T) {
		svc, _, _ := newOrganizationService()
		scope := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleOrgAdmin, nil)

		_, err := svc.Create(context.Background(), scope, CreateOrganizationInput{
			Name: "Outra Master",
			Type: identity.OrganizationTypeMaster,
		})
		assertCode(t, err, "FORBIDDEN_TYPE")
	})

	t.Run("inspector cannot create", func(t *testing.T) {
		svc, _, _ := newOrganizationService()
		scope := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleInspector, nil)

		_, err := svc.Create(context.Background(), scope, CreateOrganizationInput{Name: "X", Type: identity.OrganizationTypeCompany})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("duplicate cnpj", func(t *testing.T) {
		svc, orgs, _ := newOrganizationService()
		orgs.On("ExistsByCNPJ", mock.Anything, "11222333000181").Return(true, nil)

		_, err := svc.Create(context.Background(), sysAdminScope(), CreateOrganizationInput{
			Name: "Duplicada",
			Type: identity.OrganizationTypeCompany,
			CNPJ: "11222333000181",
		})
		assertCode(t, err, "CNPJ_ALREADY_EXISTS")
	})

	t.Run("paid plan requires sys_admin", func(t *testing.T) {
		svc, orgs, _ := newOrganizationService()
		parent := createTestOrganization(t, nil)
		orgs.On("FindByID", mock.Anything, parent.ID).Return(parent, nil)
		scope := identity.NewAccessScope(uuid.New(), parent.ID, identity.RoleOrgAdmin, nil)

		_, err := svc.Create(context.Background(), scope, CreateOrganizationInput{
			Name: "Cliente Pro",
			Type: identity.OrganizationTypeCompany,
			Plan: identity.PlanPro,
		})
		assertCode(t, err, "FORBIDDEN_PLAN")
	})
}

func TestOrganizationService_Update_MoveDetectsCycle(t *testing.T) {
	svc, orgs, _ := newOrganizationService()
	root := createTestOrganization(t, nil)
	child := createTestOrganization(t, &root.ID)
	grandchild := createTestOrganization(t, &child.ID)

	orgs.On("FindByID", mock.Anything, root.ID).Return(root, nil)
	orgs.On("AncestorIDs", mock.Anything, grandchild.ID).Return([]uuid.UUID{child.ID, root.ID}, nil)

	_, err := svc.Update(context.Background(), sysAdminScope(), root.ID, UpdateOrganizationInput{ParentID: &grandchild.ID})

	assertCode(t, err, "HIERARCHY_CYCLE")
	orgs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrganizationService_Update_Fields(t *testing.T) {
	svc, orgs, events := newOrganizationService()
	org := createTestOrganization(t, nil)
	scope := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)
	orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
	orgs.On("Save", mock.Anything, org).Return(nil)

	name := "Construtora Alfa Ltda"
	phone := "(11) 4000-0000"
	resp, err := svc.Update(context.Background(), scope, org.ID, UpdateOrganizationInput{Name: &name, ContactPhone: &phone})

	require.NoError(t, err)
	assert.Equal(t, name, resp.Name)
	assert.Equal(t, phone, resp.ContactPhone)
	assert.Empty(t, events.types())

	plan := identity.PlanPro
	_, err = svc.Update(context.Background(), scope, org.ID, UpdateOrganizationInput{Plan: &plan})
	assertCode(t, err, "FORBIDDEN_PLAN")
}

func TestOrganizationService_SuspendAndActivate(t *testing.T) {
	svc, orgs, events := newOrganizationService()
	org := createTestOrganization(t, nil)
	orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
	orgs.On("Save", mock.Anything, org).Return(nil)
	admin := sysAdminScope()

	resp, err := svc.Suspend(context.Background(), admin, org.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.OrganizationStatusSuspended, resp.Status)

	_, err = svc.Suspend(context.Background(), admin, org.ID)
	assertCode(t, err, "ALREADY_SUSPENDED")

	resp, err = svc.Activate(context.Background(), admin, org.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.OrganizationStatusActive, resp.Status)
	assert.Equal(t, []string{
		identity.EventTypeOrganizationStatusChanged,
		identity.EventTypeOrganizationStatusChanged,
	}, events.types())

	orgAdmin := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleOrgAdmin, []uuid.UUID{org.ID})
	_, err = svc.Suspend(context.Background(), orgAdmin, org.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Suspend(context.Background(), admin, admin.OrganizationID)
	assertCode(t, err, "FORBIDDEN_SELF")
}

func TestOrganizationService_List_UsesScope(t *testing.T) {
	svc, orgs, _ := newOrganizationService()
	org := createTestOrganization(t, nil)
	child := uuid.New()
	scope := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleManager, []uuid.UUID{child})

	orgs.On("FindAll", mock.Anything, mock.MatchedBy(func(f identity.OrganizationFilter) bool {
		return len(f.IDs) == 2 && f.IDs[0] == org.ID && f.IDs[1] == child
	})).Return([]identity.Organization{*org}, int64(1), nil)

	page, err := svc.List(context.Background(), scope, OrganizationListFilter{Filter: shared.Filter{Page: 1, PageSize: 10}})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, org.Name, page.Items[0].Name)
}

func TestOrganizationService_Tree(t *testing.T) {
	svc, orgs, _ := newOrganizationService()
	root := createTestOrganization(t, nil)
	a := createTestOrganization(t, &root.ID)
	b := createTestOrganization(t, &root.ID)
	leaf := createTestOrganization(t, &a.ID)
	scope := identity.NewAccessScope(uuid.New(), root.ID, identity.RoleOrgAdmin, []uuid.UUID{a.ID, b.ID, leaf.ID})

	orgs.On("FindByID", mock.Anything, root.ID).Return(root, nil)
	orgs.On("FindChildren", mock.Anything, root.ID).Return([]identity.Organization{*a, *b}, nil)
	orgs.On("FindChildren", mock.Anything, a.ID).Return([]identity.Organization{*leaf}, nil)
	orgs.On("FindChildren", mock.Anything, b.ID).Return([]identity.Organization{}, nil)
	orgs.On("FindChildren", mock.Anything, leaf.ID).Return([]identity.Organization{}, nil)

	tree, err := svc.Tree(context.Background(), scope, nil)

	require.NoError(t, err)
	assert.Equal(t, root.ID, tree.ID)
	require.Len(t, tree.Children, 2)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, leaf.ID, tree.Children[0].Children[0].ID)
	assert.Empty(t, tree.Children[1].Children)
}

func TestOrganizationService_Get_OutsideScope(t *testing.T) {
	svc, _, _ := newOrganizationService()
	scope := identity.NewAccessScope(uuid.New(), uuid.New(), identity.RoleInspector, nil)

	_, err := svc.Get(context.Background(), scope, uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}
