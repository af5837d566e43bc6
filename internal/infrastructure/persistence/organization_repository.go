package persistence

import (
	"context"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxHierarchyDepth stops the recursive walks on corrupted data
const maxHierarchyDepth = 32

const descendantsSQL = `WITH RECURSIVE tree AS (
	SELECT id, 1 AS depth FROM organizations WHERE parent_id = ?
	UNION ALL
	SELECT o.id, t.depth + 1 FROM organizations o JOIN tree t ON o.parent_id = t.id WHERE t.depth < ?
) SELECT id FROM tree`

const ancestorsSQL = `WITH RECURSIVE up AS (
	SELECT id, parent_id, 0 AS depth FROM organizations WHERE id = ?
	UNION ALL
	SELECT o.id, o.parent_id, up.depth + 1 FROM organizations o JOIN up ON o.id = up.parent_id WHERE up.depth < ?
) SELECT id FROM up WHERE depth > 0 ORDER BY depth`

// GormOrganizationRepository implements identity.OrganizationRepository
type GormOrganizationRepository struct {
	db *rls.DB
}

func NewGormOrganizationRepository(db *rls.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var model models.OrganizationModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find organization", err)
	}
	return model.ToDomain(), nil
}

func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter identity.OrganizationFilter) ([]identity.Organization, int64, error) {
	var rows []models.OrganizationModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.OrganizationModel{}), "id", filter.IDs)
		if filter.ParentID != nil {
			query = query.Where("parent_id = ?", *filter.ParentID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		query = whereSearch(query, filter.Search, "name", "trade_name", "cnpj")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, OrganizationSortFields, "name").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list organizations", err)
	}

	orgs := make([]identity.Organization, len(rows))
	for i := range rows {
		orgs[i] = *rows[i].ToDomain()
	}
	return orgs, total, nil
}

func (r *GormOrganizationRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]identity.Organization, error) {
	var rows []models.OrganizationModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Where("parent_id = ?", parentID).Order("name").Find(&rows).Error
	})
	if err != nil {
		return nil, translateError("list child organizations", err)
	}
	orgs := make([]identity.Organization, len(rows))
	for i := range rows {
		orgs[i] = *rows[i].ToDomain()
	}
	return orgs, nil
}

func (r *GormOrganizationRepository) DescendantIDs(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		var err error
		ids, err = scanIDs(tx, descendantsSQL, rootID, maxHierarchyDepth)
		return err
	})
	if err != nil {
		return nil, translateError("walk organization descendants", err)
	}
	return ids, nil
}

func (r *GormOrganizationRepository) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		var err error
		ids, err = scanIDs(tx, ancestorsSQL, id, maxHierarchyDepth)
		return err
	})
	if err != nil {
		return nil, translateError("walk organization ancestors", err)
	}
	return ids, nil
}

// ExistsByCNPJ only sees organizations visible to the session; callers
// that need a platform-wide check run it under rls.System.
func (r *GormOrganizationRepository) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.OrganizationModel{}).Where("cnpj = ?", cnpj).Count(&count).Error
	})
	if err != nil {
		return false, translateError("check organization cnpj", err)
	}
	return count > 0, nil
}

func (r *GormOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	return saveVersioned(ctx, r.db, "save organization", org, func() interface{} {
		return models.OrganizationModelFromDomain(org)
	})
}

var _ identity.OrganizationRepository = (*GormOrganizationRepository)(nil)
