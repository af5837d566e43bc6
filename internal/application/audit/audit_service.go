// Package audit records domain events as audit log entries and lists them.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/audit"
	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordedEventTypes are the events that leave an audit trail
var RecordedEventTypes = []string{
	inspection.EventTypeInspectionFinalized,
	inspection.EventTypeInspectionReopened,
	identity.EventTypeUserCreated,
	identity.EventTypeUserRoleChanged,
	identity.EventTypeUserStatusChanged,
	identity.EventTypeOrganizationCreated,
	identity.EventTypeOrganizationStatusChanged,
	identity.EventTypeOrganizationPlanChanged,
	ata.EventTypeAtaCompleted,
	actionplan.EventTypeActionItemStatusChanged,
	crm.EventTypeLeadConverted,
}

// Recorder persists audit entries for the events it subscribes to.
// Writes run as the system role: the actor may not see the target org.
type Recorder struct {
	repo   audit.Repository
	logger *zap.Logger
}

func NewRecorder(repo audit.Repository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) EventTypes() []string {
	return RecordedEventTypes
}

func (r *Recorder) Handle(ctx context.Context, e shared.DomainEvent) error {
	entry, err := audit.FromEvent(e)
	if err != nil {
		return err
	}
	if err := r.repo.Create(rls.System(ctx), entry); err != nil {
		return err
	}
	r.logger.Debug("Audit entry recorded",
		zap.String("action", entry.Action),
		zap.String("entity_id", entry.EntityID.String()))
	return nil
}

var _ shared.EventHandler = (*Recorder)(nil)

// ListFilter narrows an audit listing
type ListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	EntityType     string
	EntityID       *uuid.UUID
	ActorID        *uuid.UUID
	From           *time.Time
	To             *time.Time
}

// LogResponse is the public view of an audit entry
type LogResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	ActorID        *uuid.UUID      `json:"actor_id,omitempty"`
	Action         string          `json:"action"`
	EntityType     string          `json:"entity_type"`
	EntityID       uuid.UUID       `json:"entity_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func toLogResponse(l *audit.Log) LogResponse {
	return LogResponse{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,
		ActorID:        l.ActorID,
		Action:         l.Action,
		EntityType:     l.EntityType,
		EntityID:       l.EntityID,
		Payload:        l.Payload,
		OccurredAt:     l.OccurredAt,
	}
}

// AuditService lists audit entries
type AuditService struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo audit.Repository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// List returns entries of the visible organizations, newest first
func (s *AuditService) List(ctx context.Context, scope identity.AccessScope, filter ListFilter) (*shared.Paginated[LogResponse], error) {
	if err := scope.Require(identity.PermAuditRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, shared.NewDomainError("INVALID_RANGE", "from must be before to")
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "occurred_at"
		filter.OrderDir = "desc"
	}
	list, total, err := s.repo.FindAll(ctx, audit.Filter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		EntityType:      filter.EntityType,
		EntityID:        filter.EntityID,
		ActorID:         filter.ActorID,
		From:            filter.From,
		To:              filter.To,
	})
	if err != nil {
		return nil, err
	}
	out := make([]LogResponse, len(list))
	for i := range list {
		out[i] = toLogResponse(&list[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}
