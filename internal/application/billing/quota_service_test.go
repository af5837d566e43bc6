package billing

import (
	"context"
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockOrganizationFinder struct {
	mock.Mock
}

func (m *MockOrganizationFinder) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Organization), args.Error(1)
}

type MockUserCounter struct {
	mock.Mock
}

func (m *MockUserCounter) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int64), args.Error(1)
}

type MockInspectionCounter struct {
	mock.Mock
}

func (m *MockInspectionCounter) CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, orgID, since)
	return args.Get(0).(int64), args.Error(1)
}

func newQuotaService(t *testing.T, plan identity.Plan) (*QuotaService, *identity.Organization, *MockUserCounter, *MockInspectionCounter) {
	t.Helper()
	org, err := identity.NewOrganization("Consultoria Beta", identity.OrganizationTypeConsultancy, nil)
	require.NoError(t, err)
	require.NoError(t, org.ChangePlan(plan))

	orgs := new(MockOrganizationFinder)
	orgs.On("FindByID", mock.Anything, org.ID).Return(org, nil)
	users := new(MockUserCounter)
	inspections := new(MockInspectionCounter)

	svc := NewQuotaService(orgs, users, inspections, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC) }
	return svc, org, users, inspections
}

func TestQuotaService_CheckUsage_Users(t *testing.T) {
	svc, org, users, _ := newQuotaService(t, identity.PlanFree)

	users.On("CountByOrganization", mock.Anything, org.ID).Return(int64(2), nil).Once()
	assert.NoError(t, svc.CheckUsage(context.Background(), org.ID, billing.UsageUsers))

	users.On("CountByOrganization", mock.Anything, org.ID).Return(int64(3), nil).Once()
	err := svc.CheckUsage(context.Background(), org.ID, billing.UsageUsers)
	assert.ErrorIs(t, err, shared.ErrPlanLimitExceeded)
}

func TestQuotaService_CheckUsage_InspectionsCountFromMonthStart(t *testing.T) {
	svc, org, _, inspections := newQuotaService(t, identity.PlanBasic)
	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	inspections.On("CountCreatedSince", mock.Anything, org.ID, monthStart).Return(int64(100), nil)

	err := svc.CheckUsage(context.Background(), org.ID, billing.UsageInspectionsMonthly)

	assert.ErrorIs(t, err, shared.ErrPlanLimitExceeded)
	inspections.AssertExpectations(t)
}

func TestQuotaService_CheckUsage_Unlimited(t *testing.T) {
	svc, org, users, inspections := newQuotaService(t, identity.PlanEnterprise)

	assert.NoError(t, svc.CheckUsage(context.Background(), org.ID, billing.UsageUsers))
	assert.NoError(t, svc.CheckUsage(context.Background(), org.ID, billing.UsageInspectionsMonthly))
	assert.NoError(t, svc.CheckUsage(context.Background(), org.ID, billing.UsageAta))
	users.AssertNotCalled(t, "CountByOrganization", mock.Anything, mock.Anything)
	inspections.AssertNotCalled(t, "CountCreatedSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuotaService_CheckUsage_AtaNeedsPlan(t *testing.T) {
	svc, org, _, _ := newQuotaService(t, identity.PlanBasic)

	err := svc.CheckUsage(context.Background(), org.ID, billing.UsageAta)

	assert.ErrorIs(t, err, shared.ErrPlanLimitExceeded)
}

func TestQuotaService_GetPlan(t *testing.T) {
	svc, org, users, inspections := newQuotaService(t, identity.PlanPro)
	users.On("CountByOrganization", mock.Anything, org.ID).Return(int64(12), nil)
	inspections.On("CountCreatedSince", mock.Anything, org.ID, mock.Anything).Return(int64(40), nil)
	scope := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleOrgAdmin, nil)

	plan, err := svc.GetPlan(context.Background(), scope, nil)

	require.NoError(t, err)
	assert.Equal(t, identity.PlanPro, plan.Limits.Plan)
	assert.Equal(t, int64(38), plan.Remaining.Users)
	assert.Equal(t, int64(960), plan.Remaining.InspectionsMonthly)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), plan.PeriodEnd)
	assert.Len(t, plan.AvailablePlans, 4)

	inspector := identity.NewAccessScope(uuid.New(), org.ID, identity.RoleInspector, nil)
	_, err = svc.GetPlan(context.Background(), inspector, nil)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
