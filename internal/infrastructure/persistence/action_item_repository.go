package persistence

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var openActionStatuses = []actionplan.Status{actionplan.StatusPending, actionplan.StatusInProgress}

// GormActionItemRepository implements actionplan.Repository
type GormActionItemRepository struct {
	db  *rls.DB
	now func() time.Time
}

func NewGormActionItemRepository(db *rls.DB) *GormActionItemRepository {
	return &GormActionItemRepository{db: db, now: time.Now}
}

func (r *GormActionItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*actionplan.ActionItem, error) {
	var model models.ActionItemModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find action item", err)
	}
	return model.ToDomain(), nil
}

func (r *GormActionItemRepository) FindAll(ctx context.Context, filter actionplan.Filter) ([]actionplan.ActionItem, int64, error) {
	var rows []models.ActionItemModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.ActionItemModel{}), "organization_id", filter.OrganizationIDs)
		if filter.InspectionID != nil {
			query = query.Where("inspection_id = ?", *filter.InspectionID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.WhoUserID != nil {
			query = query.Where("who_user_id = ?", *filter.WhoUserID)
		}
		if filter.OverdueOnly {
			query = query.Where("when_due < ? AND status IN ?", r.now(), openActionStatuses)
		}
		query = whereSearch(query, filter.Search, "title", "what", "who")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, ActionItemSortFields, "created_at").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list action items", err)
	}

	items := make([]actionplan.ActionItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// FindOpenDueBefore skips items already flagged so each item is reported once.
func (r *GormActionItemRepository) FindOpenDueBefore(ctx context.Context, t time.Time, limit int) ([]actionplan.ActionItem, error) {
	var rows []models.ActionItemModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("when_due < ? AND status IN ? AND is_overdue = ?", t, openActionStatuses, false).
			Order("when_due").
			Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("find overdue action items", err)
	}
	items := make([]actionplan.ActionItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

func (r *GormActionItemRepository) ItemIDsWithActions(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool)
	if len(itemIDs) == 0 {
		return found, nil
	}
	var ids []uuid.UUID
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.ActionItemModel{}).
			Distinct("item_id").
			Where("item_id IN ?", itemIDs).
			Pluck("item_id", &ids).Error
	})
	if err != nil {
		return nil, translateError("find items with actions", err)
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

func (r *GormActionItemRepository) Save(ctx context.Context, a *actionplan.ActionItem) error {
	return saveVersioned(ctx, r.db, "save action item", a, func() interface{} {
		return models.ActionItemModelFromDomain(a)
	})
}

// SaveAll writes every item in one transaction; one stale item fails them all
func (r *GormActionItemRepository) SaveAll(ctx context.Context, items []*actionplan.ActionItem) error {
	if len(items) == 0 {
		return nil
	}
	stored := make([]int, len(items))
	var fresh []*models.ActionItemModel
	for i, a := range items {
		stored[i] = a.NextVersion()
		if stored[i] == 0 {
			fresh = append(fresh, models.ActionItemModelFromDomain(a))
		}
	}
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		if len(fresh) > 0 {
			if err := tx.Omit(clause.Associations).Create(&fresh).Error; err != nil {
				return err
			}
		}
		for i, a := range items {
			if stored[i] == 0 {
				continue
			}
			if err := writeVersioned(tx, models.ActionItemModelFromDomain(a), stored[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError("save action items", err)
	}
	for _, a := range items {
		a.MarkStored()
	}
	return nil
}

func (r *GormActionItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError("delete action item", r.db.Run(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.ActionItemModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

var _ actionplan.Repository = (*GormActionItemRepository)(nil)
