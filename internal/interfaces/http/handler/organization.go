package handler

import (
	"context"

	identityapp "github.com/compia/backend/internal/application/identity"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrganizationService manages the organization hierarchy
type OrganizationService interface {
	Create(ctx context.Context, scope identity.AccessScope, input identityapp.CreateOrganizationInput) (*identityapp.OrganizationResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.OrganizationResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter identityapp.OrganizationListFilter) (*shared.Paginated[identityapp.OrganizationResponse], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input identityapp.UpdateOrganizationInput) (*identityapp.OrganizationResponse, error)
	Suspend(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.OrganizationResponse, error)
	Activate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.OrganizationResponse, error)
	Children(ctx context.Context, scope identity.AccessScope, id uuid.UUID) ([]identityapp.OrganizationResponse, error)
	Tree(ctx context.Context, scope identity.AccessScope, root *uuid.UUID) (*identityapp.OrganizationNode, error)
}

// OrganizationHandler handles organization HTTP requests
type OrganizationHandler struct {
	BaseHandler
	service OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(service OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// Create godoc
// @ID           createOrganization
// @Summary      Create organization
// @Description  Consultancies create client companies below themselves; companies create branches
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body CreateOrganizationRequest true "Organization"
// @Success      201 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req CreateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	org, err := h.service.Create(c.Request.Context(), scope, identityapp.CreateOrganizationInput{
		Name:         req.Name,
		TradeName:    req.TradeName,
		CNPJ:         req.CNPJ,
		Type:         identity.OrganizationType(req.Type),
		ParentID:     req.ParentID,
		Plan:         identity.Plan(req.Plan),
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address.toValue(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Get godoc
// @ID           getOrganization
// @Summary      Get organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	org, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// List godoc
// @ID           listOrganizations
// @Summary      List organizations
// @Description  Lists the organizations visible to the caller
// @Tags         organizations
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name, trade name or CNPJ"
// @Param        parent_id query string false "Parent organization" format(uuid)
// @Param        status query string false "Status" Enums(active, suspended, inactive)
// @Param        type query string false "Type" Enums(master, consultancy, company, branch)
// @Success      200 {object} APIResponse[[]identityapp.OrganizationResponse]
// @Security     BearerAuth
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q OrganizationListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	parentID, ok := h.optionalUUID(c, "parent_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, identityapp.OrganizationListFilter{
		Filter:   q.Filter(),
		ParentID: parentID,
		Status:   identity.OrganizationStatus(q.Status),
		Type:     identity.OrganizationType(q.Type),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update organization
// @Description  Only fields present in the body change. Moving under another parent needs sys_admin.
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Param        request body UpdateOrganizationRequest true "Fields to change"
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id} [patch]
func (h *OrganizationHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	input := identityapp.UpdateOrganizationInput{
		Name:         req.Name,
		TradeName:    req.TradeName,
		CNPJ:         req.CNPJ,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		ParentID:     req.ParentID,
	}
	if req.Address != nil {
		addr := req.Address.toValue()
		input.Address = &addr
	}
	if req.Plan != nil {
		plan := identity.Plan(*req.Plan)
		input.Plan = &plan
	}
	org, err := h.service.Update(c.Request.Context(), scope, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Suspend godoc
// @ID           suspendOrganization
// @Summary      Suspend organization
// @Description  Users of a suspended organization cannot sign in
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id}/suspend [post]
func (h *OrganizationHandler) Suspend(c *gin.Context) {
	h.changeStatus(c, h.service.Suspend)
}

// Activate godoc
// @ID           activateOrganization
// @Summary      Activate organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id}/activate [post]
func (h *OrganizationHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.service.Activate)
}

func (h *OrganizationHandler) changeStatus(c *gin.Context, apply func(context.Context, identity.AccessScope, uuid.UUID) (*identityapp.OrganizationResponse, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	org, err := apply(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Children godoc
// @ID           listOrganizationChildren
// @Summary      Direct children
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID" format(uuid)
// @Success      200 {object} APIResponse[[]identityapp.OrganizationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/{id}/children [get]
func (h *OrganizationHandler) Children(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	children, err := h.service.Children(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, children)
}

// Tree godoc
// @ID           getOrganizationTree
// @Summary      Organization tree
// @Description  Hierarchy below root, or below the caller's organization when root is omitted
// @Tags         organizations
// @Produce      json
// @Param        root query string false "Root organization" format(uuid)
// @Success      200 {object} APIResponse[identityapp.OrganizationNode]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /organizations/tree [get]
func (h *OrganizationHandler) Tree(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	root, ok := h.optionalUUID(c, "root")
	if !ok {
		return
	}
	tree, err := h.service.Tree(c.Request.Context(), scope, root)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}
