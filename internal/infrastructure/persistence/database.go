package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/compia/backend/internal/infrastructure/config"
	"github.com/compia/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database owns the pooled connection
type Database struct {
	DB *gorm.DB
}

// Options tune how the connection is opened
type Options struct {
	Logger        *zap.Logger
	LogLevel      string
	SlowThreshold time.Duration
	// RetryInterval is the first backoff delay; zero means 500ms
	RetryInterval time.Duration
}

// NewDatabase connects to Postgres, retrying with exponential backoff until
// cfg.ConnectTimeout elapses.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, opts Options) (*Database, error) {
	return Open(ctx, postgres.Open(cfg.DSN()), cfg, opts)
}

// Open is NewDatabase for an arbitrary dialector
func Open(ctx context.Context, dialector gorm.Dialector, cfg config.DatabaseConfig, opts Options) (*Database, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	if opts.RetryInterval > 0 {
		b.InitialInterval = opts.RetryInterval
	}
	b.MaxElapsedTime = 0

	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:                 logger.NewGormLogger(log, logger.MapGormLogLevel(opts.LogLevel), opts.SlowThreshold),
			SkipDefaultTransaction: true,
			DisableAutomaticPing:   true,
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		return sqlDB.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("Database not ready, retrying", zap.Error(err), zap.Duration("retry_in", wait))
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("Database connected",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
	)
	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats is the subset of sql.DBStats exposed on /ready
type ConnectionStats struct {
	MaxOpenConnections int   `json:"max_open_connections"`
	OpenConnections    int   `json:"open_connections"`
	InUse              int   `json:"in_use"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"wait_count"`
}

func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
	}, nil
}
