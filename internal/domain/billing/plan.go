// Package billing holds subscription plan limits and usage checks.
//
// Payment collection is handled outside this service; an organization's
// plan is changed by an administrator and only the limits are enforced here.
package billing

import (
	"fmt"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Unlimited marks a limit with no ceiling
const Unlimited int64 = -1

// UsageType is a measurable resource bounded by the plan
type UsageType string

const (
	UsageUsers              UsageType = "users"
	UsageInspectionsMonthly UsageType = "inspections_monthly"
	UsageAta                UsageType = "ata"
)

// Limits are the ceilings of one plan
type Limits struct {
	Plan                  identity.Plan   `json:"plan"`
	MaxUsers              int64           `json:"max_users"`
	MaxInspectionsMonthly int64           `json:"max_inspections_monthly"`
	AtaEnabled            bool            `json:"ata_enabled"`
	MonthlyPrice          decimal.Decimal `json:"monthly_price"`
}

var catalog = map[identity.Plan]Limits{
	identity.PlanFree: {
		Plan:                  identity.PlanFree,
		MaxUsers:              3,
		MaxInspectionsMonthly: 10,
		MonthlyPrice:          decimal.Zero,
	},
	identity.PlanBasic: {
		Plan:                  identity.PlanBasic,
		MaxUsers:              10,
		MaxInspectionsMonthly: 100,
		MonthlyPrice:          decimal.RequireFromString("99.90"),
	},
	identity.PlanPro: {
		Plan:                  identity.PlanPro,
		MaxUsers:              50,
		MaxInspectionsMonthly: 1000,
		AtaEnabled:            true,
		MonthlyPrice:          decimal.RequireFromString("299.90"),
	},
	identity.PlanEnterprise: {
		Plan:                  identity.PlanEnterprise,
		MaxUsers:              Unlimited,
		MaxInspectionsMonthly: Unlimited,
		AtaEnabled:            true,
		MonthlyPrice:          decimal.RequireFromString("999.90"),
	},
}

// LimitsFor returns the limits of plan, falling back to the free tier
func LimitsFor(plan identity.Plan) Limits {
	if l, ok := catalog[plan]; ok {
		return l
	}
	return catalog[identity.PlanFree]
}

// Plans lists every plan from cheapest to most expensive
func Plans() []Limits {
	return []Limits{
		catalog[identity.PlanFree],
		catalog[identity.PlanBasic],
		catalog[identity.PlanPro],
		catalog[identity.PlanEnterprise],
	}
}

// Usage is what an organization currently consumes
type Usage struct {
	Users              int64 `json:"users"`
	InspectionsMonthly int64 `json:"inspections_monthly"`
}

// Check reports whether one more unit of t fits within the limits
func (l Limits) Check(t UsageType, u Usage) error {
	switch t {
	case UsageUsers:
		return checkCeiling(l.MaxUsers, u.Users, "users")
	case UsageInspectionsMonthly:
		return checkCeiling(l.MaxInspectionsMonthly, u.InspectionsMonthly, "inspections this month")
	case UsageAta:
		if !l.AtaEnabled {
			return limitError(fmt.Sprintf("ATA generation is not available on the %s plan", l.Plan))
		}
		return nil
	}
	return shared.NewDomainError("INVALID_USAGE_TYPE", "Unknown usage type")
}

// Remaining returns how many more units of t are allowed, or Unlimited
func (l Limits) Remaining(t UsageType, u Usage) int64 {
	var ceiling, used int64
	switch t {
	case UsageUsers:
		ceiling, used = l.MaxUsers, u.Users
	case UsageInspectionsMonthly:
		ceiling, used = l.MaxInspectionsMonthly, u.InspectionsMonthly
	default:
		return 0
	}
	if ceiling == Unlimited {
		return Unlimited
	}
	if used >= ceiling {
		return 0
	}
	return ceiling - used
}

func checkCeiling(ceiling, used int64, what string) error {
	if ceiling == Unlimited || used < ceiling {
		return nil
	}
	return limitError(fmt.Sprintf("Plan limit reached: %d %s", ceiling, what))
}

func limitError(msg string) error {
	return shared.NewDomainError(shared.ErrPlanLimitExceeded.Code, msg)
}
