package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translateError maps gorm.ErrRecordNotFound to shared.ErrNotFound and
// wraps everything else with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// upsert inserts model or overwrites the row with the same primary key.
// Only for rows without a version (media, signatures); associations are
// written by the caller.
func upsert(tx *gorm.DB, model interface{}) error {
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
}

// versioned is a domain object written under an optimistic lock
type versioned interface {
	NextVersion() int
	MarkStored()
}

// writeVersioned inserts a row that was never stored. Otherwise the update
// only matches while the row still holds the stored version; matching
// nothing means another writer got there first.
func writeVersioned(tx *gorm.DB, model interface{}, stored int) error {
	if stored == 0 {
		return tx.Omit(clause.Associations).Create(model).Error
	}
	result := tx.Model(model).
		Omit(clause.Associations).
		Select("*").
		Where("version = ?", stored).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// saveVersioned writes one object in its own unit of work. toModel runs
// after the version is advanced so the row carries the new version.
func saveVersioned(ctx context.Context, db *rls.DB, op string, v versioned, toModel func() interface{}) error {
	stored := v.NextVersion()
	model := toModel()
	err := db.Run(ctx, func(tx *gorm.DB) error {
		return writeVersioned(tx, model, stored)
	})
	if err != nil {
		return translateError(op, err)
	}
	v.MarkStored()
	return nil
}

// scanIDs runs a query returning one uuid column
func scanIDs(tx *gorm.DB, sql string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := tx.Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// whereOrganizations restricts to ids unless ids is nil (unrestricted).
// An empty non-nil slice matches nothing.
func whereOrganizations(query *gorm.DB, column string, ids []uuid.UUID) *gorm.DB {
	if ids == nil {
		return query
	}
	if len(ids) == 0 {
		return query.Where("1 = 0")
	}
	return query.Where(column+" IN ?", ids)
}
