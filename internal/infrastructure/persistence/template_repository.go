package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTemplateRepository implements checklist.TemplateRepository
type GormTemplateRepository struct {
	db *rls.DB
}

func NewGormTemplateRepository(db *rls.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

func preloadFields(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	})
}

func (r *GormTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*checklist.Template, error) {
	var model models.ChecklistTemplateModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return preloadFields(tx).First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find checklist template", err)
	}
	return model.ToDomain(), nil
}

func (r *GormTemplateRepository) FindAll(ctx context.Context, filter checklist.TemplateFilter) ([]checklist.Template, int64, error) {
	var rows []models.ChecklistTemplateModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := tx.Model(&models.ChecklistTemplateModel{})
		if filter.OrganizationIDs != nil {
			query = query.Where("organization_id IN ? OR organization_id IS NULL OR is_public = ?", filter.OrganizationIDs, true)
		}
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
		query = whereSearch(query, filter.Search, "name", "description")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(preloadFields(query), filter.Filter, TemplateSortFields, "name").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list checklist templates", err)
	}

	templates := make([]checklist.Template, len(rows))
	for i := range rows {
		templates[i] = *rows[i].ToDomain()
	}
	return templates, total, nil
}

// Save writes the template and replaces its field set
func (r *GormTemplateRepository) Save(ctx context.Context, t *checklist.Template) error {
	stored := t.NextVersion()
	model := models.ChecklistTemplateModelFromDomain(t)
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		if err := writeVersioned(tx, model, stored); err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", model.ID).Delete(&models.ChecklistFieldModel{}).Error; err != nil {
			return err
		}
		if len(model.Fields) == 0 {
			return nil
		}
		return tx.Create(&model.Fields).Error
	})
	if err != nil {
		return translateError("save checklist template", err)
	}
	t.MarkStored()
	return nil
}

func (r *GormTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError("delete checklist template", r.db.Run(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.ChecklistTemplateModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("template_id = ?", id).Delete(&models.ChecklistFieldModel{}).Error
	}))
}

func (r *GormTemplateRepository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.InspectionModel{}).Where("template_id = ?", id).Count(&count).Error
	})
	if err != nil {
		return false, translateError("check checklist template usage", err)
	}
	return count > 0, nil
}

var _ checklist.TemplateRepository = (*GormTemplateRepository)(nil)
