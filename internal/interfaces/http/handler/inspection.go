package handler

import (
	"context"

	inspectionapp "github.com/compia/backend/internal/application/inspection"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InspectionService runs the inspection lifecycle
type InspectionService interface {
	Create(ctx context.Context, scope identity.AccessScope, input inspectionapp.CreateInspectionInput) (*inspectionapp.InspectionResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*inspectionapp.InspectionResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter inspectionapp.ListFilter) (*shared.Paginated[inspectionapp.InspectionResponse], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input inspectionapp.UpdateInspectionInput) (*inspectionapp.InspectionResponse, error)
	Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error
	Start(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*inspectionapp.InspectionResponse, error)
	Cancel(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*inspectionapp.InspectionResponse, error)
	Reopen(ctx context.Context, scope identity.AccessScope, id uuid.UUID, reason string) (*inspectionapp.InspectionResponse, error)
	AddItem(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input inspectionapp.AddItemInput) (*inspectionapp.ItemResponse, error)
	DeleteItem(ctx context.Context, scope identity.AccessScope, id, itemID uuid.UUID) error
	UpdateItem(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input inspectionapp.ItemAnswerInput) (*inspectionapp.ItemResponse, error)
	UpdateItems(ctx context.Context, scope identity.AccessScope, id uuid.UUID, answers []inspectionapp.ItemAnswerInput) ([]inspectionapp.ItemResponse, error)
	Finalize(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input inspectionapp.FinalizeInput) (*inspectionapp.FinalizeResult, error)
}

// InspectionListQuery are the query parameters of the inspection listing
type InspectionListQuery struct {
	dto.ListRequest
	dto.DateRange
	Status string `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
}

// BatchAnswersRequest saves several answers at once
type BatchAnswersRequest struct {
	Answers []inspectionapp.ItemAnswerInput `json:"answers" binding:"required,min=1,max=500,dive"`
}

// ReopenRequest records why a completed inspection is reopened
type ReopenRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// InspectionHandler handles inspection requests
type InspectionHandler struct {
	BaseHandler
	service InspectionService
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(service InspectionService) *InspectionHandler {
	return &InspectionHandler{service: service}
}

// Create godoc
// @ID           createInspection
// @Summary      Create inspection
// @Description  With template_id the template's fields are copied as items
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        request body inspectionapp.CreateInspectionInput true "Inspection"
// @Success      201 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections [post]
func (h *InspectionHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req inspectionapp.CreateInspectionInput
	if !h.bindJSON(c, &req) {
		return
	}
	insp, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, insp)
}

// Get godoc
// @ID           getInspection
// @Summary      Get inspection
// @Description  Includes items, signatures and the current score
// @Tags         inspections
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      200 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id} [get]
func (h *InspectionHandler) Get(c *gin.Context) {
	h.withID(c, h.service.Get)
}

// List godoc
// @ID           listInspections
// @Summary      List inspections
// @Tags         inspections
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Title, company or location"
// @Param        status query string false "Status" Enums(pending, in_progress, completed, cancelled)
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        inspector_id query string false "Inspector" format(uuid)
// @Param        from query string false "Created from (RFC 3339)"
// @Param        to query string false "Created before (RFC 3339)"
// @Success      200 {object} APIResponse[[]inspectionapp.InspectionResponse]
// @Security     BearerAuth
// @Router       /inspections [get]
func (h *InspectionHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q InspectionListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	inspectorID, ok := h.optionalUUID(c, "inspector_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, inspectionapp.ListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		Status:         inspection.Status(q.Status),
		InspectorID:    inspectorID,
		From:           q.From,
		To:             q.To,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateInspection
// @Summary      Update inspection
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body inspectionapp.UpdateInspectionInput true "Inspection"
// @Success      200 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id} [put]
func (h *InspectionHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inspectionapp.UpdateInspectionInput
	if !h.bindJSON(c, &req) {
		return
	}
	insp, err := h.service.Update(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, insp)
}

// Delete godoc
// @ID           deleteInspection
// @Summary      Delete inspection
// @Description  Completed inspections cannot be deleted
// @Tags         inspections
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id} [delete]
func (h *InspectionHandler) Delete(c *gin.Context) {
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

// Start godoc
// @ID           startInspection
// @Summary      Start inspection
// @Tags         inspections
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      200 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/start [post]
func (h *InspectionHandler) Start(c *gin.Context) {
	h.withID(c, h.service.Start)
}

// Cancel godoc
// @ID           cancelInspection
// @Summary      Cancel inspection
// @Tags         inspections
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      200 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/cancel [post]
func (h *InspectionHandler) Cancel(c *gin.Context) {
	h.withID(c, h.service.Cancel)
}

// Reopen godoc
// @ID           reopenInspection
// @Summary      Reopen a completed inspection
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body ReopenRequest true "Reason"
// @Success      200 {object} APIResponse[inspectionapp.InspectionResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/reopen [post]
func (h *InspectionHandler) Reopen(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ReopenRequest
	if !h.bindJSON(c, &req) {
		return
	}
	insp, err := h.service.Reopen(c.Request.Context(), scope, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, insp)
}

// AddItem godoc
// @ID           addInspectionItem
// @Summary      Add an ad-hoc item
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body inspectionapp.AddItemInput true "Item"
// @Success      201 {object} APIResponse[inspectionapp.ItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/items [post]
func (h *InspectionHandler) AddItem(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inspectionapp.AddItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.service.AddItem(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// DeleteItem godoc
// @ID           deleteInspectionItem
// @Summary      Delete an item
// @Tags         inspections
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/items/{itemId} [delete]
func (h *InspectionHandler) DeleteItem(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, "itemId")
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), scope, id, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateItem godoc
// @ID           answerInspectionItem
// @Summary      Answer one item
// @Description  The first answer moves a pending inspection to in_progress
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Param        request body inspectionapp.ItemAnswerInput true "Answer"
// @Success      200 {object} APIResponse[inspectionapp.ItemResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/items/{itemId} [put]
func (h *InspectionHandler) UpdateItem(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, "itemId")
	if !ok {
		return
	}
	var req inspectionapp.ItemAnswerInput
	if !h.bindJSON(c, &req) {
		return
	}
	req.ItemID = itemID
	item, err := h.service.UpdateItem(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdateItems godoc
// @ID           answerInspectionItems
// @Summary      Answer several items
// @Description  All answers are saved together or none is
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body BatchAnswersRequest true "Answers"
// @Success      200 {object} APIResponse[[]inspectionapp.ItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/items [put]
func (h *InspectionHandler) UpdateItems(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req BatchAnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}
	items, err := h.service.UpdateItems(c.Request.Context(), scope, id, req.Answers)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Finalize godoc
// @ID           finalizeInspection
// @Summary      Finalize inspection
// @Description  Requires the inspector signature and every required item evaluated.
// @Description  Computes the compliance score and optionally drafts 5W2H actions.
// @Tags         inspections
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body inspectionapp.FinalizeInput true "Signatures and summary"
// @Success      200 {object} APIResponse[inspectionapp.FinalizeResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/finalize [post]
func (h *InspectionHandler) Finalize(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inspectionapp.FinalizeInput
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.service.Finalize(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *InspectionHandler) withID(c *gin.Context, fn func(context.Context, identity.AccessScope, uuid.UUID) (*inspectionapp.InspectionResponse, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	insp, err := fn(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, insp)
}
