package persistence

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInspectionRepository implements inspection.Repository
type GormInspectionRepository struct {
	db *rls.DB
}

func NewGormInspectionRepository(db *rls.DB) *GormInspectionRepository {
	return &GormInspectionRepository{db: db}
}

func (r *GormInspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	var model models.InspectionModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find inspection", err)
	}
	return model.ToDomain(), nil
}

func (r *GormInspectionRepository) FindAll(ctx context.Context, filter inspection.Filter) ([]inspection.Inspection, int64, error) {
	var rows []models.InspectionModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.InspectionModel{}), "organization_id", filter.OrganizationIDs)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.InspectorID != nil {
			query = query.Where("inspector_id = ?", *filter.InspectorID)
		}
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at < ?", *filter.To)
		}
		query = whereSearch(query, filter.Search, "title", "company_name", "location")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, InspectionSortFields, "created_at").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list inspections", err)
	}

	list := make([]inspection.Inspection, len(rows))
	for i := range rows {
		list[i] = *rows[i].ToDomain()
	}
	return list, total, nil
}

func (r *GormInspectionRepository) Save(ctx context.Context, insp *inspection.Inspection) error {
	return saveVersioned(ctx, r.db, "save inspection", insp, func() interface{} {
		return models.InspectionModelFromDomain(insp)
	})
}

// Delete removes the inspection with its items and evidence rows.
// Stored objects are cleaned up by the caller.
func (r *GormInspectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError("delete inspection", r.db.Run(ctx, func(tx *gorm.DB) error {
		children := []interface{}{
			&models.InspectionItemModel{},
			&models.InspectionMediaModel{},
			&models.InspectionSignatureModel{},
		}
		for _, child := range children {
			if err := tx.Where("inspection_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.InspectionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (r *GormInspectionRepository) CountCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.InspectionModel{}).
			Where("organization_id = ? AND created_at >= ?", orgID, since).
			Count(&count).Error
	})
	if err != nil {
		return 0, translateError("count inspections", err)
	}
	return count, nil
}

var _ inspection.Repository = (*GormInspectionRepository)(nil)

// GormInspectionItemRepository implements inspection.ItemRepository
type GormInspectionItemRepository struct {
	db *rls.DB
}

func NewGormInspectionItemRepository(db *rls.DB) *GormInspectionItemRepository {
	return &GormInspectionItemRepository{db: db}
}

func (r *GormInspectionItemRepository) FindByInspection(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Item, error) {
	var rows []models.InspectionItemModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("inspection_id = ?", inspectionID).Order("sort_order").Order("id").Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("list inspection items", err)
	}
	items := make([]inspection.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

func (r *GormInspectionItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Item, error) {
	var model models.InspectionItemModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find inspection item", err)
	}
	return model.ToDomain(), nil
}

// SaveAll writes the items in one transaction. New items are inserted in a
// batch; an item answered by someone else since it was read fails the
// whole call with shared.ErrConcurrencyConflict.
func (r *GormInspectionItemRepository) SaveAll(ctx context.Context, items []inspection.Item) error {
	if len(items) == 0 {
		return nil
	}
	stored := make([]int, len(items))
	var fresh []*models.InspectionItemModel
	for i := range items {
		stored[i] = items[i].NextVersion()
		if stored[i] == 0 {
			fresh = append(fresh, models.InspectionItemModelFromDomain(&items[i]))
		}
	}
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		if len(fresh) > 0 {
			if err := tx.Omit(clause.Associations).Create(&fresh).Error; err != nil {
				return err
			}
		}
		for i := range items {
			if stored[i] == 0 {
				continue
			}
			if err := writeVersioned(tx, models.InspectionItemModelFromDomain(&items[i]), stored[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError("save inspection items", err)
	}
	for i := range items {
		items[i].MarkStored()
	}
	return nil
}

func (r *GormInspectionItemRepository) Save(ctx context.Context, item *inspection.Item) error {
	return saveVersioned(ctx, r.db, "save inspection item", item, func() interface{} {
		return models.InspectionItemModelFromDomain(item)
	})
}

func (r *GormInspectionItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError("delete inspection item", r.db.Run(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.InspectionItemModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

var _ inspection.ItemRepository = (*GormInspectionItemRepository)(nil)
