package persistence

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/dashboard"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDashboardRepository implements dashboard.Reader with a handful of
// aggregate queries run in one transaction.
type GormDashboardRepository struct {
	db *rls.DB
}

func NewGormDashboardRepository(db *rls.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

type inspectionDates struct {
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (r *GormDashboardRepository) Stats(ctx context.Context, q dashboard.Query) (*dashboard.Stats, error) {
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	stats := &dashboard.Stats{
		InspectionsByStatus: make(map[string]int64),
		ActionItemsByStatus: make(map[string]int64),
	}

	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		inspections := func() *gorm.DB {
			return whereOrganizations(tx.Model(&models.InspectionModel{}), "organization_id", q.OrganizationIDs)
		}
		actions := func() *gorm.DB {
			return whereOrganizations(tx.Model(&models.ActionItemModel{}), "organization_id", q.OrganizationIDs)
		}

		var byStatus []statusCount
		if err := inspections().Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
			return err
		}
		for _, row := range byStatus {
			stats.InspectionsByStatus[row.Status] = row.Count
			stats.TotalInspections += row.Count
		}

		if err := inspections().
			Where("status = ? AND completed_at >= ?", inspection.StatusCompleted, dashboard.MonthStart(q.Now)).
			Count(&stats.CompletedThisMonth).Error; err != nil {
			return err
		}

		var avg decimal.NullDecimal
		if err := inspections().
			Select("AVG(compliance_score)").
			Where("status = ? AND compliance_score IS NOT NULL", inspection.StatusCompleted).
			Row().Scan(&avg); err != nil {
			return err
		}
		if avg.Valid {
			stats.AverageComplianceScore = avg.Decimal.Round(2)
		}

		byStatus = nil
		if err := actions().Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
			return err
		}
		for _, row := range byStatus {
			stats.ActionItemsByStatus[row.Status] = row.Count
		}

		if err := actions().
			Where("when_due < ? AND status IN ?", q.Now, []actionplan.Status{actionplan.StatusPending, actionplan.StatusInProgress}).
			Count(&stats.OverdueActionItems).Error; err != nil {
			return err
		}

		if err := whereOrganizations(tx.Model(&models.UserModel{}), "organization_id", q.OrganizationIDs).
			Where("status = ?", identity.UserStatusActive).
			Count(&stats.ActiveUsers).Error; err != nil {
			return err
		}

		var recent []models.InspectionModel
		if err := inspections().Order("created_at DESC").Limit(dashboard.RecentLimit).Find(&recent).Error; err != nil {
			return err
		}
		stats.RecentInspections = make([]dashboard.RecentInspection, len(recent))
		for i, m := range recent {
			stats.RecentInspections[i] = dashboard.RecentInspection{
				ID:              m.ID,
				Title:           m.Title,
				CompanyName:     m.CompanyName,
				Status:          string(m.Status),
				ComplianceScore: m.ComplianceScore,
				CreatedAt:       m.CreatedAt,
			}
		}

		start := q.SeriesStart()
		var dates []inspectionDates
		if err := inspections().
			Select("created_at, completed_at").
			Where("created_at >= ? OR completed_at >= ?", start, start).
			Scan(&dates).Error; err != nil {
			return err
		}
		created := make(map[string]int64)
		completed := make(map[string]int64)
		loc := q.Now.Location()
		for _, d := range dates {
			if !d.CreatedAt.Before(start) {
				created[d.CreatedAt.In(loc).Format("2006-01")]++
			}
			if d.CompletedAt != nil && !d.CompletedAt.Before(start) {
				completed[d.CompletedAt.In(loc).Format("2006-01")]++
			}
		}
		stats.Monthly = dashboard.FillSeries(q.Now, created, completed)
		return nil
	})
	if err != nil {
		return nil, translateError("compute dashboard", err)
	}
	return stats, nil
}

var _ dashboard.Reader = (*GormDashboardRepository)(nil)
