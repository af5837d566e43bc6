package handler

import (
	"context"

	billingapp "github.com/compia/backend/internal/application/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BillingService reports plan limits and usage
type BillingService interface {
	GetPlan(ctx context.Context, scope identity.AccessScope, orgID *uuid.UUID) (*billingapp.PlanResponse, error)
}

// BillingHandler handles plan requests
type BillingHandler struct {
	BaseHandler
	service BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(service BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

// GetPlan godoc
// @ID           getBillingPlan
// @Summary      Plan limits and usage
// @Description  Defaults to the caller's organization
// @Tags         billing
// @Produce      json
// @Param        organization_id query string false "Organization" format(uuid)
// @Success      200 {object} APIResponse[billingapp.PlanResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/plan [get]
func (h *BillingHandler) GetPlan(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(c.Request.Context(), scope, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}
