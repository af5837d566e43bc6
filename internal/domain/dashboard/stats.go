// Package dashboard defines the aggregated read model behind the home screen.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthsInSeries is the length of the monthly series
const MonthsInSeries = 6

// RecentLimit caps the recent inspection list
const RecentLimit = 5

// Query selects the organizations to aggregate over. A nil OrganizationIDs
// aggregates over every organization (sys_admin without a filter).
type Query struct {
	OrganizationIDs []uuid.UUID
	Now             time.Time
}

// MonthStart returns the first instant of t's month in t's location
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SeriesStart is the first month of the series ending in now's month
func (q Query) SeriesStart() time.Time {
	return MonthStart(q.Now).AddDate(0, -(MonthsInSeries - 1), 0)
}

type RecentInspection struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	CompanyName     string           `json:"company_name"`
	Status          string           `json:"status"`
	ComplianceScore *decimal.Decimal `json:"compliance_score"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MonthPoint is one month of the created/completed series
type MonthPoint struct {
	Month     string `json:"month"` // YYYY-MM
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// Stats is the dashboard payload
type Stats struct {
	InspectionsByStatus    map[string]int64   `json:"inspections_by_status"`
	TotalInspections       int64              `json:"total_inspections"`
	CompletedThisMonth     int64              `json:"completed_this_month"`
	AverageComplianceScore decimal.Decimal    `json:"average_compliance_score"`
	ActionItemsByStatus    map[string]int64   `json:"action_items_by_status"`
	OverdueActionItems     int64              `json:"overdue_action_items"`
	ActiveUsers            int64              `json:"active_users"`
	RecentInspections      []RecentInspection `json:"recent_inspections"`
	Monthly                []MonthPoint       `json:"monthly"`
}

// Reader computes the aggregates
type Reader interface {
	Stats(ctx context.Context, q Query) (*Stats, error)
}

// FillSeries returns MonthsInSeries points ending at now's month, taking
// counts from created/completed keyed by "YYYY-MM" and zero elsewhere.
func FillSeries(now time.Time, created, completed map[string]int64) []MonthPoint {
	start := MonthStart(now).AddDate(0, -(MonthsInSeries - 1), 0)
	out := make([]MonthPoint, 0, MonthsInSeries)
	for i := 0; i < MonthsInSeries; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out = append(out, MonthPoint{Month: key, Created: created[key], Completed: completed[key]})
	}
	return out
}
