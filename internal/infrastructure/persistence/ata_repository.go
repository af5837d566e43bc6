package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAtaRepository implements ata.Repository
type GormAtaRepository struct {
	db *rls.DB
}

func NewGormAtaRepository(db *rls.DB) *GormAtaRepository {
	return &GormAtaRepository{db: db}
}

func (r *GormAtaRepository) FindByID(ctx context.Context, id uuid.UUID) (*ata.Ata, error) {
	var model models.AtaModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find ata", err)
	}
	return model.ToDomain(), nil
}

func (r *GormAtaRepository) FindLatestByInspection(ctx context.Context, inspectionID uuid.UUID) (*ata.Ata, error) {
	var model models.AtaModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("inspection_id = ?", inspectionID).
			Order("created_at DESC").
			Take(&model).Error
	})
	if err != nil {
		return nil, translateError("find latest ata", err)
	}
	return model.ToDomain(), nil
}

func (r *GormAtaRepository) FindAll(ctx context.Context, filter ata.Filter) ([]ata.Ata, int64, error) {
	var rows []models.AtaModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.AtaModel{}), "organization_id", filter.OrganizationIDs)
		if filter.InspectionID != nil {
			query = query.Where("inspection_id = ?", *filter.InspectionID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, AtaSortFields, "created_at").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list atas", err)
	}

	list := make([]ata.Ata, len(rows))
	for i := range rows {
		list[i] = *rows[i].ToDomain()
	}
	return list, total, nil
}

func (r *GormAtaRepository) FindProcessing(ctx context.Context, limit int) ([]ata.Ata, error) {
	var rows []models.AtaModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("status = ?", ata.StatusProcessing).Order("created_at").Limit(limit).Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("list processing atas", err)
	}
	list := make([]ata.Ata, len(rows))
	for i := range rows {
		list[i] = *rows[i].ToDomain()
	}
	return list, nil
}

func (r *GormAtaRepository) Save(ctx context.Context, a *ata.Ata) error {
	return saveVersioned(ctx, r.db, "save ata", a, func() interface{} {
		return models.AtaModelFromDomain(a)
	})
}

var _ ata.Repository = (*GormAtaRepository)(nil)
