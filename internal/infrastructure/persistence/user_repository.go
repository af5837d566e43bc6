package persistence

import (
	"context"
	"strings"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/persistence/models"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository
type GormUserRepository struct {
	db *rls.DB
}

func NewGormUserRepository(db *rls.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("find user", err)
	}
	return model.ToDomain(), nil
}

// FindByEmail is used by login, which runs under a system session
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.First(&model, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	})
	if err != nil {
		return nil, translateError("find user by email", err)
	}
	return model.ToDomain(), nil
}

func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]identity.User, int64, error) {
	var rows []models.UserModel
	var total int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		query := whereOrganizations(tx.Model(&models.UserModel{}), "organization_id", filter.OrganizationIDs)
		if filter.Role != "" {
			query = query.Where("role = ?", filter.Role)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		query = whereSearch(query, filter.Search, "name", "email")

		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return applyPage(query, filter.Filter, UserSortFields, "name").Find(&rows).Error
	})
	if err != nil {
		return nil, 0, translateError("list users", err)
	}

	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

// ExistsByEmail checks the global login namespace; run it under rls.System.
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.UserModel{}).
			Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
			Count(&count).Error
	})
	if err != nil {
		return false, translateError("check user email", err)
	}
	return count > 0, nil
}

// CountByOrganization counts seats in use: every user not deactivated
func (r *GormUserRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Run(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.UserModel{}).
			Where("organization_id = ? AND status <> ?", orgID, identity.UserStatusInactive).
			Count(&count).Error
	})
	if err != nil {
		return 0, translateError("count users", err)
	}
	return count, nil
}

func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return saveVersioned(ctx, r.db, "save user", user, func() interface{} {
		return models.UserModelFromDomain(user)
	})
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
