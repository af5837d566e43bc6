package handler

import (
	"context"

	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DashboardService aggregates inspection statistics
type DashboardService interface {
	Stats(ctx context.Context, scope identity.AccessScope, organizationID *uuid.UUID) (*dashboard.Stats, error)
}

// DashboardHandler handles dashboard requests
type DashboardHandler struct {
	BaseHandler
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @ID           getDashboardStats
// @Summary      Dashboard statistics
// @Description  Counts over every organization visible to the caller, or one of them
// @Tags         dashboard
// @Produce      json
// @Param        organization_id query string false "Organization" format(uuid)
// @Success      200 {object} APIResponse[dashboard.Stats]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), scope, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
