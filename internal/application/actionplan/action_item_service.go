// Package actionplan manages 5W2H corrective actions.
package actionplan

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InspectionFinder loads the inspection an action is raised from
type InspectionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error)
}

// ItemFinder loads the checklist item an action is raised from
type ItemFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*inspection.Item, error)
}

// ActionItemService handles action item operations
type ActionItemService struct {
	repo        actionplan.Repository
	inspections InspectionFinder
	items       ItemFinder
	events      shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewActionItemService creates a new action item service
func NewActionItemService(repo actionplan.Repository, inspections InspectionFinder, items ItemFinder, logger *zap.Logger) *ActionItemService {
	return &ActionItemService{
		repo:        repo,
		inspections: inspections,
		items:       items,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for action item events
func (s *ActionItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// Create adds an action item, optionally linked to an inspection item
func (s *ActionItemService) Create(ctx context.Context, scope identity.AccessScope, input CreateActionItemInput) (*ActionItemResponse, error) {
	if err := scope.Require(identity.PermActionItemCreate); err != nil {
		return nil, err
	}

	orgID := scope.OrganizationID
	if input.OrganizationID != nil {
		orgID = *input.OrganizationID
	}
	if input.InspectionID != nil {
		insp, err := s.inspections.FindByID(ctx, *input.InspectionID)
		if err != nil {
			return nil, err
		}
		orgID = insp.OrganizationID
		if input.ItemID != nil {
			item, err := s.items.FindByID(ctx, *input.ItemID)
			if err != nil {
				return nil, err
			}
			if item.InspectionID != insp.ID {
				return nil, shared.ErrNotFound
			}
		}
	} else if input.ItemID != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "item_id requires inspection_id")
	}
	if err := scope.RequireOrganization(orgID); err != nil {
		return nil, err
	}

	a, err := actionplan.NewActionItem(orgID, scope.UserID, input.Title, input.PlanInput.toDomain(), input.Priority)
	if err != nil {
		return nil, err
	}
	if input.InspectionID != nil {
		a.LinkInspection(*input.InspectionID, input.ItemID)
	}
	a.MarkOverdue(s.now())

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Action item created",
		zap.String("action_item_id", a.ID.String()),
		zap.String("organization_id", orgID.String()))
	s.publish(ctx, scope, a)

	resp := ToActionItemResponse(a)
	return &resp, nil
}

// Get returns a visible action item
func (s *ActionItemService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*ActionItemResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermActionItemRead)
	if err != nil {
		return nil, err
	}
	resp := ToActionItemResponse(a)
	return &resp, nil
}

// List returns action items of the visible organizations
func (s *ActionItemService) List(ctx context.Context, scope identity.AccessScope, filter ListFilter) (*shared.Paginated[ActionItemResponse], error) {
	if err := scope.Require(identity.PermActionItemRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown status")
	}
	list, total, err := s.repo.FindAll(ctx, actionplan.Filter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		InspectionID:    filter.InspectionID,
		Status:          filter.Status,
		OverdueOnly:     filter.OverdueOnly,
		WhoUserID:       filter.WhoUserID,
	})
	if err != nil {
		return nil, err
	}
	out := make([]ActionItemResponse, len(list))
	for i := range list {
		out[i] = ToActionItemResponse(&list[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update replaces the 5W2H body
func (s *ActionItemService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateActionItemInput) (*ActionItemResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermActionItemUpdate)
	if err != nil {
		return nil, err
	}
	if err := a.UpdatePlan(input.Title, input.PlanInput.toDomain(), input.Priority); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, scope, a)
	resp := ToActionItemResponse(a)
	return &resp, nil
}

// ChangeStatus moves an action item along its lifecycle
func (s *ActionItemService) ChangeStatus(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input ChangeStatusInput) (*ActionItemResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermActionItemUpdate)
	if err != nil {
		return nil, err
	}
	old := a.Status
	if err := a.ChangeStatus(input.Status, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Action item status changed",
		zap.String("action_item_id", a.ID.String()),
		zap.String("from", string(old)),
		zap.String("to", string(a.Status)))
	s.publish(ctx, scope, a)
	resp := ToActionItemResponse(a)
	return &resp, nil
}

// Delete removes an action item
func (s *ActionItemService) Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error {
	a, err := s.load(ctx, scope, id, identity.PermActionItemDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, a.ID)
}

func (s *ActionItemService) load(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*actionplan.ActionItem, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(a.OrganizationID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ActionItemService) publish(ctx context.Context, scope identity.AccessScope, a *actionplan.ActionItem) {
	shared.StampActor(a, scope.UserID)
	if err := shared.PublishAndClear(ctx, s.events, a); err != nil {
		s.logger.Warn("Failed to publish action item events", zap.Error(err))
	}
}
