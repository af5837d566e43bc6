package handler

import (
	"context"
	"net/http"
	"testing"

	auditapp "github.com/compia/backend/internal/application/audit"
	crmapp "github.com/compia/backend/internal/application/crm"
	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) lead(args mock.Arguments) (*crmapp.LeadResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crmapp.LeadResponse), args.Error(1)
}

func (m *MockLeadService) Create(ctx context.Context, scope identity.AccessScope, input crmapp.CreateLeadInput) (*crmapp.LeadResponse, error) {
	return m.lead(m.Called(ctx, scope, input))
}

func (m *MockLeadService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*crmapp.LeadResponse, error) {
	return m.lead(m.Called(ctx, scope, id))
}

func (m *MockLeadService) List(ctx context.Context, scope identity.AccessScope, filter crmapp.LeadListFilter) (*shared.Paginated[crmapp.LeadResponse], error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[crmapp.LeadResponse]), args.Error(1)
}

func (m *MockLeadService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input crmapp.UpdateLeadInput) (*crmapp.LeadResponse, error) {
	return m.lead(m.Called(ctx, scope, id, input))
}

func (m *MockLeadService) MoveStage(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input crmapp.MoveStageInput) (*crmapp.LeadResponse, error) {
	return m.lead(m.Called(ctx, scope, id, input))
}

func (m *MockLeadService) Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error {
	return m.Called(ctx, scope, id).Error(0)
}

func (m *MockLeadService) Convert(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*crmapp.LeadResponse, error) {
	return m.lead(m.Called(ctx, scope, id))
}

func leadRouter(svc *MockLeadService, scope identity.AccessScope) *gin.Engine {
	h := NewLeadHandler(svc)
	return newTestRouter(&scope, func(r gin.IRouter) {
		r.POST("/crm/leads", h.Create)
		r.GET("/crm/leads", h.List)
		r.PATCH("/crm/leads/:id/stage", h.MoveStage)
		r.POST("/crm/leads/:id/convert", h.Convert)
		r.DELETE("/crm/leads/:id", h.Delete)
	})
}

func TestLeadHandler(t *testing.T) {
	scope := testScope(identity.RoleOrgAdmin)
	id := uuid.New()

	t.Run("create validates email", func(t *testing.T) {
		svc := new(MockLeadService)
		w := doRequest(leadRouter(svc, scope), http.MethodPost, "/crm/leads",
			map[string]any{"company_name": "Acme", "contact_email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("list by stage", func(t *testing.T) {
		svc := new(MockLeadService)
		page := shared.NewPaginated([]crmapp.LeadResponse{{ID: id, Stage: crm.StageProposal}}, 1, 1, 20)
		svc.On("List", mock.Anything, scope, mock.MatchedBy(func(f crmapp.LeadListFilter) bool {
			return f.Stage == crm.StageProposal && f.OwnerID == nil
		})).Return(&page, nil).Once()

		w := doRequest(leadRouter(svc, scope), http.MethodGet, "/crm/leads?stage=proposal", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("move stage", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("MoveStage", mock.Anything, scope, id, crmapp.MoveStageInput{Stage: crm.StageLost, Reason: "price"}).
			Return(&crmapp.LeadResponse{ID: id, Stage: crm.StageLost}, nil).Once()

		w := doRequest(leadRouter(svc, scope), http.MethodPatch, "/crm/leads/"+id.String()+"/stage",
			map[string]any{"stage": "lost", "reason": "price"})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("convert twice", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Convert", mock.Anything, scope, id).
			Return(nil, shared.NewDomainError("LEAD_ALREADY_CONVERTED", "Lead was already converted")).Once()

		w := doRequest(leadRouter(svc, scope), http.MethodPost, "/crm/leads/"+id.String()+"/convert", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Delete", mock.Anything, scope, id).Return(nil).Once()

		w := doRequest(leadRouter(svc, scope), http.MethodDelete, "/crm/leads/"+id.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, scope identity.AccessScope, filter auditapp.ListFilter) (*shared.Paginated[auditapp.LogResponse], error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[auditapp.LogResponse]), args.Error(1)
}

func TestAuditHandler_List(t *testing.T) {
	scope := testScope(identity.RoleOrgAdmin)
	entityID := uuid.New()
	svc := new(MockAuditService)
	h := NewAuditHandler(svc)
	r := newTestRouter(&scope, func(r gin.IRouter) {
		r.GET("/audit-logs", h.List)
	})
	page := shared.NewPaginated[auditapp.LogResponse](nil, 0, 1, 20)

	svc.On("List", mock.Anything, scope, mock.MatchedBy(func(f auditapp.ListFilter) bool {
		return f.OrderBy == "" && f.EntityType == "inspection" && f.EntityID != nil && *f.EntityID == entityID
	})).Return(&page, nil).Once()
	svc.On("List", mock.Anything, scope, mock.MatchedBy(func(f auditapp.ListFilter) bool {
		return f.OrderBy == "action"
	})).Return(&page, nil).Once()

	w := doRequest(r, http.MethodGet, "/audit-logs?entity_type=inspection&entity_id="+entityID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/audit-logs?order_by=action", nil)
	require.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
