package handler

import (
	"context"

	crmapp "github.com/compia/backend/internal/application/crm"
	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeadService runs the sales funnel
type LeadService interface {
	Create(ctx context.Context, scope identity.AccessScope, input crmapp.CreateLeadInput) (*crmapp.LeadResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*crmapp.LeadResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter crmapp.LeadListFilter) (*shared.Paginated[crmapp.LeadResponse], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input crmapp.UpdateLeadInput) (*crmapp.LeadResponse, error)
	MoveStage(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input crmapp.MoveStageInput) (*crmapp.LeadResponse, error)
	Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error
	Convert(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*crmapp.LeadResponse, error)
}

// LeadListQuery are the query parameters of the lead listing
type LeadListQuery struct {
	dto.ListRequest
	Stage string `form:"stage" binding:"omitempty,oneof=new contacted proposal negotiation won lost"`
}

// LeadHandler handles CRM lead requests
type LeadHandler struct {
	BaseHandler
	service LeadService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(service LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// Create godoc
// @ID           createLead
// @Summary      Create lead
// @Description  With enrich=true blank company fields are filled from the CNPJ registry
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateLeadInput true "Lead"
// @Success      201 {object} APIResponse[crmapp.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req crmapp.CreateLeadInput
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lead)
}

// Get godoc
// @ID           getLead
// @Summary      Get lead
// @Tags         crm
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.LeadResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	h.withID(c, h.service.Get)
}

// List godoc
// @ID           listLeads
// @Summary      List leads
// @Tags         crm
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Company or contact"
// @Param        stage query string false "Stage" Enums(new, contacted, proposal, negotiation, won, lost)
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        owner_id query string false "Owner" format(uuid)
// @Success      200 {object} APIResponse[[]crmapp.LeadResponse]
// @Security     BearerAuth
// @Router       /crm/leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q LeadListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	ownerID, ok := h.optionalUUID(c, "owner_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, crmapp.LeadListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		Stage:          crm.Stage(q.Stage),
		OwnerID:        ownerID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateLead
// @Summary      Update lead
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Param        request body crmapp.UpdateLeadInput true "Lead"
// @Success      200 {object} APIResponse[crmapp.LeadResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.UpdateLeadInput
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.service.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}

// MoveStage godoc
// @ID           moveLeadStage
// @Summary      Move lead through the funnel
// @Description  Moving to lost requires a reason
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Param        request body crmapp.MoveStageInput true "Stage"
// @Success      200 {object} APIResponse[crmapp.LeadResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads/{id}/stage [patch]
func (h *LeadHandler) MoveStage(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req crmapp.MoveStageInput
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.service.MoveStage(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}

// Convert godoc
// @ID           convertLead
// @Summary      Convert a won lead into a client organization
// @Tags         crm
// @Produce      json
// @Param        id path string true "Lead ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.LeadResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	h.withID(c, h.service.Convert)
}

// Delete godoc
// @ID           deleteLead
// @Summary      Delete lead
// @Tags         crm
// @Param        id path string true "Lead ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *LeadHandler) withID(c *gin.Context, fn func(context.Context, identity.AccessScope, uuid.UUID) (*crmapp.LeadResponse, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	lead, err := fn(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}
