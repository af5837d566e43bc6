package handler

import (
	"context"
	"net/http"
	"testing"

	billingapp "github.com/compia/backend/internal/application/billing"
	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Stats(ctx context.Context, scope identity.AccessScope, organizationID *uuid.UUID) (*dashboard.Stats, error) {
	args := m.Called(ctx, scope, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Stats), args.Error(1)
}

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GetPlan(ctx context.Context, scope identity.AccessScope, orgID *uuid.UUID) (*billingapp.PlanResponse, error) {
	args := m.Called(ctx, scope, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PlanResponse), args.Error(1)
}

func TestDashboardHandler_Stats(t *testing.T) {
	scope := testScope(identity.RoleOrgAdmin)
	child := uuid.New()
	svc := new(MockDashboardService)
	h := NewDashboardHandler(svc)
	r := newTestRouter(&scope, func(r gin.IRouter) {
		r.GET("/dashboard/stats", h.Stats)
	})

	svc.On("Stats", mock.Anything, scope, (*uuid.UUID)(nil)).Return(&dashboard.Stats{TotalInspections: 12}, nil).Once()
	svc.On("Stats", mock.Anything, scope, &child).Return(nil, shared.ErrNotFound).Once()

	w := doRequest(r, http.MethodGet, "/dashboard/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, decodeResponse(t, w).Data.(map[string]any)["total_inspections"])

	w = doRequest(r, http.MethodGet, "/dashboard/stats?organization_id="+child.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/dashboard/stats?organization_id=bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestBillingHandler_GetPlan(t *testing.T) {
	scope := testScope(identity.RoleOrgAdmin)
	svc := new(MockBillingService)
	h := NewBillingHandler(svc)
	r := newTestRouter(&scope, func(r gin.IRouter) {
		r.GET("/billing/plan", h.GetPlan)
	})
	svc.On("GetPlan", mock.Anything, scope, (*uuid.UUID)(nil)).
		Return(&billingapp.PlanResponse{OrganizationID: scope.OrganizationID}, nil).Once()

	w := doRequest(r, http.MethodGet, "/billing/plan", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, scope.OrganizationID.String(), decodeResponse(t, w).Data.(map[string]any)["organization_id"])
	svc.AssertExpectations(t)

	unauth := newTestRouter(nil, func(r gin.IRouter) { r.GET("/billing/plan", h.GetPlan) })
	assert.Equal(t, http.StatusUnauthorized, doRequest(unauth, http.MethodGet, "/billing/plan", nil).Code)
}
