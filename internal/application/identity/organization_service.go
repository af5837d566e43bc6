package identity

import (
	"context"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTreeDepth matches the depth bound of the hierarchy queries
const maxTreeDepth = 32

// OrganizationService manages the tenant hierarchy
type OrganizationService struct {
	orgRepo  identity.OrganizationRepository
	resolver *ScopeResolver
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(
	orgRepo identity.OrganizationRepository,
	resolver *ScopeResolver,
	events shared.EventPublisher,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		resolver: resolver,
		events:   events,
		logger:   logger,
	}
}

// Create adds an organization. A sys_admin may place it anywhere; everyone
// else creates children of an organization they can see.
func (s *OrganizationService) Create(ctx context.Context, scope identity.AccessScope, input CreateOrganizationInput) (*OrganizationResponse, error) {
	if err := scope.Require(identity.PermOrganizationCreate); err != nil {
		return nil, err
	}

	parentID := input.ParentID
	if !scope.IsSysAdmin() {
		if input.Type == identity.OrganizationTypeMaster {
			return nil, shared.NewDomainError("FORBIDDEN_TYPE", "Only platform administrators create master organizations")
		}
		if parentID == nil {
			own := scope.OrganizationID
			parentID = &own
		}
	}
	if parentID != nil {
		if err := scope.RequireOrganization(*parentID); err != nil {
			return nil, err
		}
		if _, err := s.orgRepo.FindByID(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	org, err := identity.NewOrganization(input.Name, input.Type, parentID)
	if err != nil {
		return nil, err
	}
	if err := s.applyDetails(ctx, org, input.TradeName, input.CNPJ, input.ContactEmail, input.ContactPhone, input.Address); err != nil {
		return nil, err
	}
	if input.Plan != "" {
		if !scope.IsSysAdmin() && input.Plan != identity.PlanFree {
			return nil, shared.NewDomainError("FORBIDDEN_PLAN", "Only platform administrators assign paid plans")
		}
		if err := org.ChangePlan(input.Plan); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, scope, org); err != nil {
		return nil, err
	}
	s.resolver.Invalidate()

	s.logger.Info("Organization created",
		zap.String("organization_id", org.ID.String()),
		zap.String("type", string(org.Type)),
		zap.String("created_by", scope.UserID.String()))

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

func (s *OrganizationService) applyDetails(ctx context.Context, org *identity.Organization, tradeName, cnpj, email, phone string, addr valueobject.Address) error {
	if tradeName != "" {
		if err := org.Update(org.Name, tradeName); err != nil {
			return err
		}
	}
	if cnpj != "" {
		if err := s.setCNPJ(ctx, org, cnpj); err != nil {
			return err
		}
	}
	if err := org.SetContact(email, phone); err != nil {
		return err
	}
	if !addr.IsEmpty() {
		if err := org.SetAddress(addr); err != nil {
			return err
		}
	}
	return nil
}

// setCNPJ enforces platform-wide uniqueness, which needs a system session
func (s *OrganizationService) setCNPJ(ctx context.Context, org *identity.Organization, raw string) error {
	previous := org.CNPJ
	if err := org.SetCNPJ(raw); err != nil {
		return err
	}
	if org.CNPJ == "" || org.CNPJ == previous {
		return nil
	}
	exists, err := s.orgRepo.ExistsByCNPJ(rls.System(ctx), org.CNPJ)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("CNPJ_ALREADY_EXISTS", "An organization with this CNPJ already exists")
	}
	return nil
}

// Get returns one visible organization
func (s *OrganizationService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// List returns the visible organizations
func (s *OrganizationService) List(ctx context.Context, scope identity.AccessScope, filter OrganizationListFilter) (*shared.Paginated[OrganizationResponse], error) {
	if err := scope.Require(identity.PermOrganizationRead); err != nil {
		return nil, err
	}
	orgs, total, err := s.orgRepo.FindAll(ctx, identity.OrganizationFilter{
		Filter:   filter.Filter,
		IDs:      scope.OrganizationIDs,
		ParentID: filter.ParentID,
		Status:   filter.Status,
		Type:     filter.Type,
	})
	if err != nil {
		return nil, err
	}

	items := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		items[i] = ToOrganizationResponse(&orgs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update changes descriptive fields, the parent or (sys_admin only) the plan
func (s *OrganizationService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateOrganizationInput) (*OrganizationResponse, error) {
	if err := scope.Require(identity.PermOrganizationUpdate); err != nil {
		return nil, err
	}
	org, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil || input.TradeName != nil {
		name, trade := org.Name, org.TradeName
		if input.Name != nil {
			name = *input.Name
		}
		if input.TradeName != nil {
			trade = *input.TradeName
		}
		if err := org.Update(name, trade); err != nil {
			return nil, err
		}
	}
	if input.CNPJ != nil {
		if err := s.setCNPJ(ctx, org, *input.CNPJ); err != nil {
			return nil, err
		}
	}
	if input.ContactEmail != nil || input.ContactPhone != nil {
		email, phone := org.ContactEmail, org.ContactPhone
		if input.ContactEmail != nil {
			email = *input.ContactEmail
		}
		if input.ContactPhone != nil {
			phone = *input.ContactPhone
		}
		if err := org.SetContact(email, phone); err != nil {
			return nil, err
		}
	}
	if input.Address != nil {
		if err := org.SetAddress(*input.Address); err != nil {
			return nil, err
		}
	}
	if input.Plan != nil {
		if !scope.IsSysAdmin() {
			return nil, shared.NewDomainError("FORBIDDEN_PLAN", "Only platform administrators change plans")
		}
		if err := org.ChangePlan(*input.Plan); err != nil {
			return nil, err
		}
	}
	moved := false
	if input.ParentID != nil {
		if moved, err = s.move(ctx, scope, org, *input.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, scope, org); err != nil {
		return nil, err
	}
	if moved {
		s.resolver.Invalidate()
	}

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// move re-parents org after a cycle check against the new parent's ancestors
func (s *OrganizationService) move(ctx context.Context, scope identity.AccessScope, org *identity.Organization, parentID uuid.UUID) (bool, error) {
	if org.ParentID != nil && *org.ParentID == parentID {
		return false, nil
	}
	if !scope.IsSysAdmin() {
		if org.ID == scope.OrganizationID {
			return false, shared.NewDomainError("FORBIDDEN_MOVE", "An organization cannot move itself")
		}
		if err := scope.RequireOrganization(parentID); err != nil {
			return false, err
		}
	}
	ancestors, err := s.orgRepo.AncestorIDs(rls.System(ctx), parentID)
	if err != nil {
		return false, err
	}
	if err := org.SetParent(&parentID, ancestors); err != nil {
		return false, err
	}
	s.logger.Info("Organization moved",
		zap.String("organization_id", org.ID.String()),
		zap.String("parent_id", parentID.String()))
	return true, nil
}

// Suspend blocks logins for every member of the organization
func (s *OrganizationService) Suspend(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*OrganizationResponse, error) {
	return s.changeStatus(ctx, scope, id, (*identity.Organization).Suspend)
}

// Activate lifts a suspension
func (s *OrganizationService) Activate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*OrganizationResponse, error) {
	return s.changeStatus(ctx, scope, id, (*identity.Organization).Activate)
}

func (s *OrganizationService) changeStatus(ctx context.Context, scope identity.AccessScope, id uuid.UUID, apply func(*identity.Organization) error) (*OrganizationResponse, error) {
	if err := scope.Require(identity.PermOrganizationManage); err != nil {
		return nil, err
	}
	if id == scope.OrganizationID {
		return nil, shared.NewDomainError("FORBIDDEN_SELF", "An organization cannot change its own status")
	}
	org, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := apply(org); err != nil {
		return nil, err
	}
	if err := s.save(ctx, scope, org); err != nil {
		return nil, err
	}
	s.logger.Info("Organization status changed",
		zap.String("organization_id", org.ID.String()),
		zap.String("status", string(org.Status)))
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Children lists the direct children of a visible organization
func (s *OrganizationService) Children(ctx context.Context, scope identity.AccessScope, id uuid.UUID) ([]OrganizationResponse, error) {
	if _, err := s.find(ctx, scope, id); err != nil {
		return nil, err
	}
	children, err := s.orgRepo.FindChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]OrganizationResponse, len(children))
	for i := range children {
		out[i] = ToOrganizationResponse(&children[i])
	}
	return out, nil
}

// Tree returns the hierarchy below root, defaulting to the caller's organization
func (s *OrganizationService) Tree(ctx context.Context, scope identity.AccessScope, root *uuid.UUID) (*OrganizationNode, error) {
	rootID := scope.OrganizationID
	if root != nil {
		rootID = *root
	}
	org, err := s.find(ctx, scope, rootID)
	if err != nil {
		return nil, err
	}
	node := &OrganizationNode{OrganizationResponse: ToOrganizationResponse(org)}
	if err := s.fillChildren(ctx, node, 0); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *OrganizationService) fillChildren(ctx context.Context, node *OrganizationNode, depth int) error {
	node.Children = []*OrganizationNode{}
	if depth >= maxTreeDepth {
		return nil
	}
	children, err := s.orgRepo.FindChildren(ctx, node.ID)
	if err != nil {
		return err
	}
	for i := range children {
		child := &OrganizationNode{OrganizationResponse: ToOrganizationResponse(&children[i])}
		if err := s.fillChildren(ctx, child, depth+1); err != nil {
			return err
		}
		node.Children = append(node.Children, child)
	}
	return nil
}

func (s *OrganizationService) find(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identity.Organization, error) {
	if err := scope.Require(identity.PermOrganizationRead); err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(id); err != nil {
		return nil, err
	}
	return s.orgRepo.FindByID(ctx, id)
}

func (s *OrganizationService) save(ctx context.Context, scope identity.AccessScope, org *identity.Organization) error {
	shared.StampActor(org, scope.UserID)
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.events, org); err != nil {
		s.logger.Warn("Failed to publish organization events", zap.Error(err))
	}
	return nil
}
