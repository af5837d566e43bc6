package handler

import (
	"context"
	"strings"

	auditapp "github.com/compia/backend/internal/application/audit"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// AuditService lists the audit trail
type AuditService interface {
	List(ctx context.Context, scope identity.AccessScope, filter auditapp.ListFilter) (*shared.Paginated[auditapp.LogResponse], error)
}

// AuditListQuery are the query parameters of the audit listing
type AuditListQuery struct {
	dto.ListRequest
	dto.DateRange
	EntityType string `form:"entity_type" binding:"max=50"`
}

// AuditHandler handles audit log requests
type AuditHandler struct {
	BaseHandler
	service AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(service AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @ID           listAuditLogs
// @Summary      List audit logs
// @Description  Newest first unless order_by is given
// @Tags         audit
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        entity_type query string false "Entity type"
// @Param        entity_id query string false "Entity" format(uuid)
// @Param        actor_id query string false "Actor" format(uuid)
// @Param        from query string false "From (RFC 3339)"
// @Param        to query string false "To (RFC 3339)"
// @Success      200 {object} APIResponse[[]auditapp.LogResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q AuditListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	entityID, ok := h.optionalUUID(c, "entity_id")
	if !ok {
		return
	}
	actorID, ok := h.optionalUUID(c, "actor_id")
	if !ok {
		return
	}
	filter := q.Filter()
	if q.OrderBy == "" {
		filter.OrderBy = ""
	}
	page, err := h.service.List(c.Request.Context(), scope, auditapp.ListFilter{
		Filter:         filter,
		OrganizationID: orgID,
		EntityType:     strings.TrimSpace(q.EntityType),
		EntityID:       entityID,
		ActorID:        actorID,
		From:           q.From,
		To:             q.To,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}
