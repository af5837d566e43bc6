package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracing installs otelgorm plus slow query marking on a gorm.DB.
type DBTracing struct {
	enabled       bool
	slowThreshold time.Duration
	logger        *zap.Logger
}

func NewDBTracing(enabled bool, slowThreshold time.Duration, logger *zap.Logger) *DBTracing {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &DBTracing{enabled: enabled, slowThreshold: slowThreshold, logger: logger}
}

// Register is a no-op when disabled. Query variables never reach spans.
func (p *DBTracing) Register(db *gorm.DB) error {
	if !p.enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}
	// Hooks go in ahead of otelgorm so the after hooks still see its span open.
	cb := db.Callback()
	steps := []struct {
		name          string
		before, after registrar
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for _, s := range steps {
		if err := s.before.Register("otel_timing:before_"+s.name, p.start); err != nil {
			return err
		}
		if err := s.after.Register("otel_slow_query:"+s.name, p.finish); err != nil {
			return err
		}
	}

	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled", zap.Duration("slow_query_threshold", p.slowThreshold))
	return nil
}

type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

func (p *DBTracing) start(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracing) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if started, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(started); elapsed > p.slowThreshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
