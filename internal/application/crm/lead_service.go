// Package crm runs the sales funnel of consultancies and converts won leads
// into client organizations.
package crm

import (
	"context"
	"strings"

	identityapp "github.com/compia/backend/internal/application/identity"
	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/compia/backend/internal/infrastructure/lookup"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrLeadExists   = shared.NewDomainError("LEAD_ALREADY_EXISTS", "A lead with this CNPJ already exists")
	ErrLeadNotWon   = shared.NewDomainError("LEAD_NOT_WON", "Only won leads can be converted")
	ErrInvalidStage = shared.NewDomainError("INVALID_STAGE", "Unknown stage")
)

// CNPJRegistry looks companies up in the public registry
type CNPJRegistry interface {
	CNPJ(ctx context.Context, digits string) (*lookup.CNPJResult, error)
}

// OrganizationCreator creates the client organization of a converted lead
type OrganizationCreator interface {
	Create(ctx context.Context, scope identity.AccessScope, input identityapp.CreateOrganizationInput) (*identityapp.OrganizationResponse, error)
}

// LeadService handles lead operations
type LeadService struct {
	repo     crm.LeadRepository
	orgs     OrganizationCreator
	registry CNPJRegistry
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewLeadService creates a new lead service. registry may be nil, which
// disables enrichment.
func NewLeadService(repo crm.LeadRepository, orgs OrganizationCreator, registry CNPJRegistry, logger *zap.Logger) *LeadService {
	return &LeadService{
		repo:     repo,
		orgs:     orgs,
		registry: registry,
		logger:   logger,
	}
}

// SetEventPublisher sets the publisher for lead events
func (s *LeadService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// Create registers a lead in the "new" stage
func (s *LeadService) Create(ctx context.Context, scope identity.AccessScope, input CreateLeadInput) (*LeadResponse, error) {
	if err := scope.Require(identity.PermCRMWrite); err != nil {
		return nil, err
	}
	orgID := scope.OrganizationID
	if input.OrganizationID != nil {
		orgID = *input.OrganizationID
	}
	if err := scope.RequireOrganization(orgID); err != nil {
		return nil, err
	}

	if input.Enrich && input.CNPJ != "" {
		s.enrich(ctx, &input)
	}
	company := input.CompanyName
	l, err := crm.NewLead(orgID, scope.UserID, company)
	if err != nil {
		return nil, err
	}
	if err := l.SetCNPJ(input.CNPJ); err != nil {
		return nil, err
	}
	if l.CNPJ != "" {
		exists, err := s.repo.ExistsByCNPJ(ctx, orgID, l.CNPJ)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrLeadExists
		}
	}
	if err := l.SetContact(crm.Contact{Name: input.ContactName, Email: input.ContactEmail, Phone: input.ContactPhone}); err != nil {
		return nil, err
	}
	if err := l.SetAddress(input.Address); err != nil {
		return nil, err
	}
	if err := l.Update(company, input.Notes, input.EstimatedValue, input.OwnerID); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("Lead created",
		zap.String("lead_id", l.ID.String()),
		zap.String("organization_id", orgID.String()))

	resp := ToLeadResponse(l)
	return &resp, nil
}

// enrich fills blank fields from the registry. Lookup failures only log.
func (s *LeadService) enrich(ctx context.Context, input *CreateLeadInput) {
	if s.registry == nil {
		return
	}
	c, err := valueobject.NewCNPJ(input.CNPJ)
	if err != nil {
		return
	}
	res, err := s.registry.CNPJ(ctx, c.String())
	if err != nil {
		s.logger.Warn("CNPJ enrichment failed", zap.String("cnpj", c.String()), zap.Error(err))
		return
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		input.CompanyName = res.TradeName
		if input.CompanyName == "" {
			input.CompanyName = res.LegalName
		}
	}
	if input.ContactPhone == "" {
		input.ContactPhone = res.Phone
	}
	if input.ContactEmail == "" {
		input.ContactEmail = strings.ToLower(res.Email)
	}
	if input.Address == (valueobject.Address{}) {
		input.Address = valueobject.Address{
			CEP:          res.CEP,
			Street:       res.Street,
			Number:       res.Number,
			Complement:   res.Complement,
			Neighborhood: res.Neighborhood,
			City:         res.City,
			State:        res.State,
		}
	}
}

// Get returns a visible lead
func (s *LeadService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*LeadResponse, error) {
	l, err := s.load(ctx, scope, id, identity.PermCRMRead)
	if err != nil {
		return nil, err
	}
	resp := ToLeadResponse(l)
	return &resp, nil
}

// List returns leads of the visible organizations
func (s *LeadService) List(ctx context.Context, scope identity.AccessScope, filter LeadListFilter) (*shared.Paginated[LeadResponse], error) {
	if err := scope.Require(identity.PermCRMRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	if filter.Stage != "" && !filter.Stage.IsValid() {
		return nil, ErrInvalidStage
	}
	list, total, err := s.repo.FindAll(ctx, crm.LeadFilter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		Stage:           filter.Stage,
		OwnerID:         filter.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	out := make([]LeadResponse, len(list))
	for i := range list {
		out[i] = ToLeadResponse(&list[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update replaces the editable fields of an open lead
func (s *LeadService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateLeadInput) (*LeadResponse, error) {
	l, err := s.load(ctx, scope, id, identity.PermCRMWrite)
	if err != nil {
		return nil, err
	}
	if err := l.Update(input.CompanyName, input.Notes, input.EstimatedValue, input.OwnerID); err != nil {
		return nil, err
	}
	if input.CNPJ != nil {
		previous := l.CNPJ
		if err := l.SetCNPJ(*input.CNPJ); err != nil {
			return nil, err
		}
		if l.CNPJ != "" && l.CNPJ != previous {
			exists, err := s.repo.ExistsByCNPJ(ctx, l.OrganizationID, l.CNPJ)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrLeadExists
			}
		}
	}
	if err := l.SetContact(crm.Contact{Name: input.ContactName, Email: input.ContactEmail, Phone: input.ContactPhone}); err != nil {
		return nil, err
	}
	if input.Address != nil {
		if err := l.SetAddress(*input.Address); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	resp := ToLeadResponse(l)
	return &resp, nil
}

// MoveStage moves a lead through the funnel
func (s *LeadService) MoveStage(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input MoveStageInput) (*LeadResponse, error) {
	l, err := s.load(ctx, scope, id, identity.PermCRMWrite)
	if err != nil {
		return nil, err
	}
	old := l.Stage
	if err := l.MoveTo(input.Stage, input.Reason); err != nil {
		return nil, err
	}
	if old == l.Stage {
		resp := ToLeadResponse(l)
		return &resp, nil
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("Lead stage changed",
		zap.String("lead_id", l.ID.String()),
		zap.String("from", string(old)),
		zap.String("to", string(l.Stage)))
	s.publish(ctx, scope, l)
	resp := ToLeadResponse(l)
	return &resp, nil
}

// Delete removes a lead
func (s *LeadService) Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error {
	l, err := s.load(ctx, scope, id, identity.PermCRMDelete)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, l.ID)
}

// Convert creates a client company under the lead's organization and links
// it to the won lead. Converting twice is rejected.
func (s *LeadService) Convert(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*LeadResponse, error) {
	l, err := s.load(ctx, scope, id, identity.PermCRMWrite)
	if err != nil {
		return nil, err
	}
	if l.Stage != crm.StageWon {
		return nil, ErrLeadNotWon
	}
	if l.ConvertedOrgID != nil {
		return nil, shared.NewDomainError("LEAD_ALREADY_CONVERTED", "Lead was already converted")
	}

	parent := l.OrganizationID
	org, err := s.orgs.Create(ctx, scope, identityapp.CreateOrganizationInput{
		Name:         l.CompanyName,
		CNPJ:         l.CNPJ,
		Type:         identity.OrganizationTypeCompany,
		ParentID:     &parent,
		ContactEmail: l.ContactEmail,
		ContactPhone: l.ContactPhone,
		Address:      l.Address,
	})
	if err != nil {
		return nil, err
	}
	if err := l.MarkConverted(org.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("Lead converted",
		zap.String("lead_id", l.ID.String()),
		zap.String("organization_id", org.ID.String()))
	s.publish(ctx, scope, l)
	resp := ToLeadResponse(l)
	return &resp, nil
}

func (s *LeadService) load(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*crm.Lead, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(l.OrganizationID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) publish(ctx context.Context, scope identity.AccessScope, l *crm.Lead) {
	shared.StampActor(l, scope.UserID)
	if err := shared.PublishAndClear(ctx, s.events, l); err != nil {
		s.logger.Warn("Failed to publish lead events", zap.Error(err))
	}
}
