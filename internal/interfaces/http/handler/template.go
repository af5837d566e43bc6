package handler

import (
	"context"

	checklistapp "github.com/compia/backend/internal/application/checklist"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TemplateService manages checklist templates
type TemplateService interface {
	Create(ctx context.Context, scope identity.AccessScope, input checklistapp.CreateTemplateInput) (*checklistapp.TemplateResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*checklistapp.TemplateResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter checklistapp.TemplateListFilter) (*shared.Paginated[checklistapp.TemplateResponse], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input checklistapp.UpdateTemplateInput) (*checklistapp.TemplateResponse, error)
	Duplicate(ctx context.Context, scope identity.AccessScope, id uuid.UUID, target *uuid.UUID) (*checklistapp.TemplateResponse, error)
	Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error
}

// CreateTemplateRequest represents the request body for creating a template
type CreateTemplateRequest struct {
	OrganizationID *uuid.UUID                `json:"organization_id"`
	Global         bool                      `json:"global"`
	Name           string                    `json:"name" binding:"required,min=2,max=200"`
	Description    string                    `json:"description" binding:"max=2000"`
	Category       string                    `json:"category" binding:"max=100"`
	IsPublic       bool                      `json:"is_public"`
	Fields         []checklistapp.FieldInput `json:"fields" binding:"dive"`
}

// UpdateTemplateRequest replaces the template; omit fields to keep the current ones
type UpdateTemplateRequest struct {
	Name        string                    `json:"name" binding:"required,min=2,max=200"`
	Description string                    `json:"description" binding:"max=2000"`
	Category    string                    `json:"category" binding:"max=100"`
	IsPublic    bool                      `json:"is_public"`
	Fields      []checklistapp.FieldInput `json:"fields" binding:"omitempty,dive"`
}

// DuplicateTemplateRequest names the organization receiving the copy
type DuplicateTemplateRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
}

// TemplateListQuery are the query parameters of the template listing
type TemplateListQuery struct {
	dto.ListRequest
	Category string `form:"category" binding:"max=100"`
}

// TemplateHandler handles checklist template requests
type TemplateHandler struct {
	BaseHandler
	service TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(service TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// Create godoc
// @ID           createChecklistTemplate
// @Summary      Create checklist template
// @Description  global=true puts the template in the platform library (sys_admin only)
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        request body CreateTemplateRequest true "Template"
// @Success      201 {object} APIResponse[checklistapp.TemplateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checklists [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req CreateTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tpl, err := h.service.Create(c.Request.Context(), scope, checklistapp.CreateTemplateInput{
		OrganizationID: req.OrganizationID,
		Global:         req.Global,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		IsPublic:       req.IsPublic,
		Fields:         req.Fields,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tpl)
}

// Get godoc
// @ID           getChecklistTemplate
// @Summary      Get checklist template
// @Tags         checklists
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Success      200 {object} APIResponse[checklistapp.TemplateResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checklists/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	tpl, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tpl)
}

// List godoc
// @ID           listChecklistTemplates
// @Summary      List checklist templates
// @Description  Templates of the visible organizations plus public and global ones
// @Tags         checklists
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name"
// @Param        category query string false "Category"
// @Param        organization_id query string false "Organization" format(uuid)
// @Success      200 {object} APIResponse[[]checklistapp.TemplateResponse]
// @Security     BearerAuth
// @Router       /checklists [get]
func (h *TemplateHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q TemplateListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, checklistapp.TemplateListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		Category:       q.Category,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateChecklistTemplate
// @Summary      Update checklist template
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Param        request body UpdateTemplateRequest true "Template"
// @Success      200 {object} APIResponse[checklistapp.TemplateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checklists/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tpl, err := h.service.Update(c.Request.Context(), scope, id, checklistapp.UpdateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
		Fields:      req.Fields,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tpl)
}

// Duplicate godoc
// @ID           duplicateChecklistTemplate
// @Summary      Duplicate checklist template
// @Description  Copies a visible template into the caller's organization or the one given
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Param        request body DuplicateTemplateRequest false "Target organization"
// @Success      201 {object} APIResponse[checklistapp.TemplateResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checklists/{id}/duplicate [post]
func (h *TemplateHandler) Duplicate(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req DuplicateTemplateRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	tpl, err := h.service.Duplicate(c.Request.Context(), scope, id, req.OrganizationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tpl)
}

// Delete godoc
// @ID           deleteChecklistTemplate
// @Summary      Delete checklist template
// @Description  Rejected while inspections reference the template
// @Tags         checklists
// @Param        id path string true "Template ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checklists/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
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
