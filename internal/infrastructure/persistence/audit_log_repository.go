package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/audit"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository implements audit.Repository. Entries are
// append-only.
type GormAuditLogRepository struct {
	db *rls.DB
}

func NewGormAuditLogRepository(db *rls.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create ignores duplicates: an event delivered twice is logged once
func (r *GormAuditLogRepository) Create(ctx context.Context, l *audit.Log) error {
	return translateError("create audit log", r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(models.AuditLogModelFromDomain(l)).Error
	}))
}

func (r *GormAuditLogRepository) FindAll(ctx context.Context, filter audit.Filter) ([]audit.Log, int64, error) {
	var rows []models.AuditLogModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.AuditLogModel{}), "organization_id", filter.OrganizationIDs)
		if filter.EntityType != "" {
			query = query.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != nil {
			query = query.Where("entity_id = ?", *filter.EntityID)
		}
		if filter.ActorID != nil {
			query = query.Where("actor_id = ?", *filter.ActorID)
		}
		if filter.From != nil {
			query = query.Where("occurred_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("occurred_at < ?", *filter.To)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, AuditLogSortFields, "occurred_at").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list audit logs", err)
	}

	logs := make([]audit.Log, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs, total, nil
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
