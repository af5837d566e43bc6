// Package checklist manages the checklist template library.
package checklist

import (
	"context"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTemplateInUse is returned when deleting a template inspections were built from
var ErrTemplateInUse = shared.NewDomainError("TEMPLATE_IN_USE", "Template is used by existing inspections")

// TemplateService handles checklist template operations
type TemplateService struct {
	repo   checklist.TemplateRepository
	logger *zap.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(repo checklist.TemplateRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, logger: logger}
}

// Create adds a template to an organization or, for sys_admins, the global library
func (s *TemplateService) Create(ctx context.Context, scope identity.AccessScope, input CreateTemplateInput) (*TemplateResponse, error) {
	if err := scope.Require(identity.PermChecklistCreate); err != nil {
		return nil, err
	}

	var owner *uuid.UUID
	if input.Global {
		if !scope.IsSysAdmin() {
			return nil, shared.NewDomainError("FORBIDDEN_GLOBAL", "Only platform administrators edit the global library")
		}
	} else {
		orgID := scope.OrganizationID
		if input.OrganizationID != nil {
			orgID = *input.OrganizationID
		}
		if err := scope.RequireOrganization(orgID); err != nil {
			return nil, err
		}
		owner = &orgID
	}

	t, err := checklist.NewTemplate(owner, input.Name, input.Description, input.Category)
	if err != nil {
		return nil, err
	}
	t.IsPublic = input.IsPublic
	if err := t.ReplaceFields(toFields(input.Fields)); err != nil {
		return nil, err
	}
	creator := scope.UserID
	t.CreatedBy = &creator

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Checklist template created",
		zap.String("template_id", t.ID.String()),
		zap.Int("fields", len(t.Fields)))

	resp := ToTemplateResponse(t)
	return &resp, nil
}

// Get returns a template the caller can use
func (s *TemplateService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*TemplateResponse, error) {
	t, err := s.visible(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ToTemplateResponse(t)
	return &resp, nil
}

// List returns the caller's templates plus the global and public ones
func (s *TemplateService) List(ctx context.Context, scope identity.AccessScope, filter TemplateListFilter) (*shared.Paginated[TemplateResponse], error) {
	if err := scope.Require(identity.PermChecklistRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	templates, total, err := s.repo.FindAll(ctx, checklist.TemplateFilter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		Category:        filter.Category,
	})
	if err != nil {
		return nil, err
	}
	items := make([]TemplateResponse, len(templates))
	for i := range templates {
		items[i] = ToTemplateResponse(&templates[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update changes a template the caller owns
func (s *TemplateService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateTemplateInput) (*TemplateResponse, error) {
	t, err := s.owned(ctx, scope, id, identity.PermChecklistUpdate)
	if err != nil {
		return nil, err
	}
	if err := t.Update(input.Name, input.Description, input.Category, input.IsPublic); err != nil {
		return nil, err
	}
	if input.Fields != nil {
		if err := t.ReplaceFields(toFields(input.Fields)); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	resp := ToTemplateResponse(t)
	return &resp, nil
}

// Duplicate copies a visible template into an organization the caller can see
func (s *TemplateService) Duplicate(ctx context.Context, scope identity.AccessScope, id uuid.UUID, target *uuid.UUID) (*TemplateResponse, error) {
	if err := scope.Require(identity.PermChecklistCreate); err != nil {
		return nil, err
	}
	orgID := scope.OrganizationID
	if target != nil {
		orgID = *target
	}
	if err := scope.RequireOrganization(orgID); err != nil {
		return nil, err
	}
	source, err := s.visible(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	dup := source.Duplicate(orgID, scope.UserID)
	if err := s.repo.Save(ctx, dup); err != nil {
		return nil, err
	}
	s.logger.Info("Checklist template duplicated",
		zap.String("source_id", source.ID.String()),
		zap.String("template_id", dup.ID.String()),
		zap.String("organization_id", orgID.String()))

	resp := ToTemplateResponse(dup)
	return &resp, nil
}

// Delete removes a template no inspection was created from
func (s *TemplateService) Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error {
	t, err := s.owned(ctx, scope, id, identity.PermChecklistDelete)
	if err != nil {
		return err
	}
	inUse, err := s.repo.InUse(ctx, t.ID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrTemplateInUse
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return err
	}
	s.logger.Info("Checklist template deleted", zap.String("template_id", t.ID.String()))
	return nil
}

func (s *TemplateService) visible(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*checklist.Template, error) {
	if err := scope.Require(identity.PermChecklistRead); err != nil {
		return nil, err
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(scope.CanAccessOrganization) {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

// owned loads a template the caller may modify: global ones belong to sys_admins
func (s *TemplateService) owned(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*checklist.Template, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	t, err := s.visible(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if t.IsGlobal() {
		if !scope.IsSysAdmin() {
			return nil, shared.ErrForbidden
		}
		return t, nil
	}
	if !scope.CanAccessOrganization(*t.OrganizationID) {
		return nil, shared.ErrForbidden
	}
	return t, nil
}
