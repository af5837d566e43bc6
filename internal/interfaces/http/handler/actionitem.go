package handler

import (
	"context"

	actionplanapp "github.com/compia/backend/internal/application/actionplan"
	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActionItemService manages 5W2H corrective actions
type ActionItemService interface {
	Create(ctx context.Context, scope identity.AccessScope, input actionplanapp.CreateActionItemInput) (*actionplanapp.ActionItemResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*actionplanapp.ActionItemResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter actionplanapp.ListFilter) (*shared.Paginated[actionplanapp.ActionItemResponse], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input actionplanapp.UpdateActionItemInput) (*actionplanapp.ActionItemResponse, error)
	ChangeStatus(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input actionplanapp.ChangeStatusInput) (*actionplanapp.ActionItemResponse, error)
	Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error
}

// ActionItemListQuery are the query parameters of the action item listing
type ActionItemListQuery struct {
	dto.ListRequest
	Status  string `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Overdue bool   `form:"overdue"`
}

// ActionItemHandler handles action item requests
type ActionItemHandler struct {
	BaseHandler
	service ActionItemService
}

// NewActionItemHandler creates a new action item handler
func NewActionItemHandler(service ActionItemService) *ActionItemHandler {
	return &ActionItemHandler{service: service}
}

// Create godoc
// @ID           createActionItem
// @Summary      Create action item
// @Description  A 5W2H plan, optionally tied to an inspection item
// @Tags         action-items
// @Accept       json
// @Produce      json
// @Param        request body actionplanapp.CreateActionItemInput true "Action item"
// @Success      201 {object} APIResponse[actionplanapp.ActionItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /action-items [post]
func (h *ActionItemHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req actionplanapp.CreateActionItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get godoc
// @ID           getActionItem
// @Summary      Get action item
// @Tags         action-items
// @Produce      json
// @Param        id path string true "Action item ID" format(uuid)
// @Success      200 {object} APIResponse[actionplanapp.ActionItemResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /action-items/{id} [get]
func (h *ActionItemHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List godoc
// @ID           listActionItems
// @Summary      List action items
// @Tags         action-items
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status" Enums(pending, in_progress, completed, cancelled)
// @Param        overdue query bool false "Only overdue items"
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        inspection_id query string false "Inspection" format(uuid)
// @Param        who_user_id query string false "Responsible user" format(uuid)
// @Success      200 {object} APIResponse[[]actionplanapp.ActionItemResponse]
// @Security     BearerAuth
// @Router       /action-items [get]
func (h *ActionItemHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q ActionItemListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	inspectionID, ok := h.optionalUUID(c, "inspection_id")
	if !ok {
		return
	}
	whoID, ok := h.optionalUUID(c, "who_user_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, actionplanapp.ListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		InspectionID:   inspectionID,
		Status:         actionplan.Status(q.Status),
		OverdueOnly:    q.Overdue,
		WhoUserID:      whoID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateActionItem
// @Summary      Update action item
// @Tags         action-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Action item ID" format(uuid)
// @Param        request body actionplanapp.UpdateActionItemInput true "Action item"
// @Success      200 {object} APIResponse[actionplanapp.ActionItemResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /action-items/{id} [put]
func (h *ActionItemHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req actionplanapp.UpdateActionItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ChangeStatus godoc
// @ID           changeActionItemStatus
// @Summary      Change action item status
// @Tags         action-items
// @Accept       json
// @Produce      json
// @Param        id path string true "Action item ID" format(uuid)
// @Param        request body actionplanapp.ChangeStatusInput true "Status"
// @Success      200 {object} APIResponse[actionplanapp.ActionItemResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /action-items/{id}/status [patch]
func (h *ActionItemHandler) ChangeStatus(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req actionplanapp.ChangeStatusInput
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.service.ChangeStatus(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete godoc
// @ID           deleteActionItem
// @Summary      Delete action item
// @Tags         action-items
// @Param        id path string true "Action item ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /action-items/{id} [delete]
func (h *ActionItemHandler) Delete(c *gin.Context) {
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
