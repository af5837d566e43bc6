// Package billing enforces subscription plan limits.
package billing

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationFinder loads the organization that owns the plan
type OrganizationFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error)
}

// UserCounter counts the members of an organization
type UserCounter interface {
	CountByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// InspectionCounter counts inspections created in a period
type InspectionCounter interface {
	CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

// PlanResponse describes an organization's plan and how much of it is used
type PlanResponse struct {
	OrganizationID uuid.UUID        `json:"organization_id"`
	Limits         billing.Limits   `json:"limits"`
	Usage          billing.Usage    `json:"usage"`
	Remaining      RemainingUsage   `json:"remaining"`
	PeriodStart    time.Time        `json:"period_start"`
	PeriodEnd      time.Time        `json:"period_end"`
	AvailablePlans []billing.Limits `json:"available_plans"`
}

// RemainingUsage is how many more units fit; -1 means unlimited
type RemainingUsage struct {
	Users              int64 `json:"users"`
	InspectionsMonthly int64 `json:"inspections_monthly"`
}

// QuotaService handles quota checking and enforcement
type QuotaService struct {
	orgs        OrganizationFinder
	users       UserCounter
	inspections InspectionCounter
	logger      *zap.Logger
	now         func() time.Time
}

// NewQuotaService creates a new QuotaService
func NewQuotaService(orgs OrganizationFinder, users UserCounter, inspections InspectionCounter, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		orgs:        orgs,
		users:       users,
		inspections: inspections,
		logger:      logger,
		now:         time.Now,
	}
}

// CheckUsage fails with PLAN_LIMIT_EXCEEDED when one more unit would not fit
func (s *QuotaService) CheckUsage(ctx context.Context, orgID uuid.UUID, usageType billing.UsageType) error {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	limits := billing.LimitsFor(org.Plan)

	var usage billing.Usage
	switch usageType {
	case billing.UsageUsers:
		if limits.MaxUsers != billing.Unlimited {
			if usage.Users, err = s.users.CountByOrganization(ctx, orgID); err != nil {
				return err
			}
		}
	case billing.UsageInspectionsMonthly:
		if limits.MaxInspectionsMonthly != billing.Unlimited {
			start, _ := monthBounds(s.now())
			if usage.InspectionsMonthly, err = s.inspections.CountCreatedSince(ctx, orgID, start); err != nil {
				return err
			}
		}
	}

	if err := limits.Check(usageType, usage); err != nil {
		s.logger.Info("Plan limit reached",
			zap.String("organization_id", orgID.String()),
			zap.String("plan", string(org.Plan)),
			zap.String("usage_type", string(usageType)))
		return err
	}
	return nil
}

// GetPlan returns the plan, limits and current usage of a visible organization
func (s *QuotaService) GetPlan(ctx context.Context, scope identity.AccessScope, orgID *uuid.UUID) (*PlanResponse, error) {
	if err := scope.Require(identity.PermBillingRead); err != nil {
		return nil, err
	}
	id := scope.OrganizationID
	if orgID != nil {
		id = *orgID
	}
	if err := scope.RequireOrganization(id); err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.CountByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	start, end := monthBounds(s.now())
	inspections, err := s.inspections.CountCreatedSince(ctx, id, start)
	if err != nil {
		return nil, err
	}

	limits := billing.LimitsFor(org.Plan)
	usage := billing.Usage{Users: users, InspectionsMonthly: inspections}
	return &PlanResponse{
		OrganizationID: id,
		Limits:         limits,
		Usage:          usage,
		Remaining: RemainingUsage{
			Users:              limits.Remaining(billing.UsageUsers, usage),
			InspectionsMonthly: limits.Remaining(billing.UsageInspectionsMonthly, usage),
		},
		PeriodStart:    start,
		PeriodEnd:      end,
		AvailablePlans: billing.Plans(),
	}, nil
}

// monthBounds returns the first instant of t's month and of the next one
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
