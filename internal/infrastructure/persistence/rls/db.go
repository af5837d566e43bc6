package rls

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSessionRequired is returned when a statement runs without a session on its context
var ErrSessionRequired = errors.New("rls: no session in context")

const setClaimsSQL = "SELECT set_config('app.current_org_id', ?, true), " +
	"set_config('app.current_user_id', ?, true), " +
	"set_config('app.current_role', ?, true)"

// DB wraps a pooled GORM connection and binds every unit of work to a session
type DB struct {
	db *gorm.DB
	// setClaims is false on dialects without set_config (sqlite in tests)
	setClaims bool
}

// New wraps db. The organization guard callbacks are registered on db.
func New(db *gorm.DB) *DB {
	RegisterGuard(db)
	return &DB{
		db:        db,
		setClaims: db.Dialector.Name() == "postgres",
	}
}

// Gorm returns the underlying connection without any session binding
func (d *DB) Gorm() *gorm.DB {
	return d.db
}

// Run executes fn with a transaction bound to the session on ctx.
// Inside Transaction the surrounding transaction is reused.
func (d *DB) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(tx.WithContext(ctx))
	}
	s, ok := SessionFrom(ctx)
	if !ok {
		return ErrSessionRequired
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.applyClaims(tx, s); err != nil {
			return err
		}
		return fn(tx)
	})
}

// Transaction runs fn in one transaction; every Run on the returned ctx joins it
func (d *DB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return d.Run(ctx, func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping checks the connection
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) applyClaims(tx *gorm.DB, s Session) error {
	if !d.setClaims {
		return nil
	}
	return tx.Exec(setClaimsSQL, idOrEmpty(s.OrganizationID), idOrEmpty(s.UserID), s.Role).Error
}

func idOrEmpty(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
