package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLeadRepository implements crm.LeadRepository
type GormLeadRepository struct {
	db *rls.DB
}

func NewGormLeadRepository(db *rls.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

func (r *GormLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Lead, error) {
	var model models.LeadModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find lead", err)
	}
	return model.ToDomain(), nil
}

func (r *GormLeadRepository) FindAll(ctx context.Context, filter crm.LeadFilter) ([]crm.Lead, int64, error) {
	var rows []models.LeadModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.LeadModel{}), "organization_id", filter.OrganizationIDs)
		if filter.Stage != "" {
			query = query.Where("stage = ?", filter.Stage)
		}
		if filter.OwnerID != nil {
			query = query.Where("owner_id = ?", *filter.OwnerID)
		}
		query = whereSearch(query, filter.Search, "company_name", "contact_name", "contact_email", "cnpj")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, LeadSortFields, "created_at").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list leads", err)
	}

	leads := make([]crm.Lead, len(rows))
	for i := range rows {
		leads[i] = *rows[i].ToDomain()
	}
	return leads, total, nil
}

func (r *GormLeadRepository) ExistsByCNPJ(ctx context.Context, orgID uuid.UUID, cnpj string) (bool, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.LeadModel{}).
			Where("organization_id = ? AND cnpj = ?", orgID, cnpj).
			Count(&count).Error
	})
	if err != nil {
		return false, translateError("check lead cnpj", err)
	}
	return count > 0, nil
}

func (r *GormLeadRepository) Save(ctx context.Context, l *crm.Lead) error {
	return saveVersioned(ctx, r.db, "save lead", l, func() interface{} {
		return models.LeadModelFromDomain(l)
	})
}

func (r *GormLeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError("delete lead", r.db.Run(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.LeadModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

var _ crm.LeadRepository = (*GormLeadRepository)(nil)
