package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dbMetricsStartKey = "db_metrics:start"

// DBMetrics records query counts and latency through gorm callbacks, and
// samples the sql.DB connection pool on an interval.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	poolWaitCount      *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	slowThreshold time.Duration
	interval      time.Duration
	logger        *zap.Logger
	sqlDB         *sql.DB

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the instruments on meter
func NewDBMetrics(meter metric.Meter, slowThreshold, poolInterval time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	if poolInterval <= 0 {
		poolInterval = 15 * time.Second
	}
	m := &DBMetrics{
		slowThreshold: slowThreshold,
		interval:      poolInterval,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max", "Maximum open connections", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolWaitCount, err = NewGauge(meter, "db_pool_wait_count", "Connections waited for since start", "{wait}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the slow threshold", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterDBMetrics installs the query callbacks on db and returns the
// metrics for pool sampling. It returns nil when mp is not exporting.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, slowThreshold, poolInterval time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		logger.Debug("Database metrics disabled")
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("compia.db"), slowThreshold, poolInterval, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Register(db); err != nil {
		return nil, err
	}
	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.slowThreshold),
		zap.Duration("pool_stats_interval", m.interval))
	return m, nil
}

// Register adds before/after callbacks for every statement kind and keeps
// the pool handle for sampling.
func (m *DBMetrics) Register(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m.sqlDB = sqlDB

	before := func(tx *gorm.DB) { tx.InstanceSet(dbMetricsStartKey, time.Now()) }
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) { m.record(tx, operation) }
	}

	cb := db.Callback()
	steps := []struct {
		name     string
		register func() error
	}{
		{"create", func() error {
			if err := cb.Create().Before("gorm:create").Register("db_metrics:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("db_metrics:after_create", after("INSERT"))
		}},
		{"query", func() error {
			if err := cb.Query().Before("gorm:query").Register("db_metrics:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("db_metrics:after_query", after("SELECT"))
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("db_metrics:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("db_metrics:after_update", after("UPDATE"))
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", after("DELETE"))
		}},
		{"row", func() error {
			if err := cb.Row().Before("gorm:row").Register("db_metrics:before_row", before); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("db_metrics:after_row", after(""))
		}},
		{"raw", func() error {
			if err := cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", after(""))
		}},
	}
	for _, s := range steps {
		if err := s.register(); err != nil {
			return err
		}
	}
	return nil
}

func (m *DBMetrics) record(tx *gorm.DB, operation string) {
	if operation == "" {
		operation = detectOperation(tx.Statement.SQL.String())
	}
	var took time.Duration
	if v, ok := tx.InstanceGet(dbMetricsStartKey); ok {
		if start, ok := v.(time.Time); ok {
			took = time.Since(start)
		}
	}
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m.RecordQuery(ctx, operation, tx.Statement.Table, took)
}

// RecordQuery counts one statement. Slow statements are also counted per table.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, took time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, took, AttrDBOperation.String(operation))
	if took > m.slowThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// StartPoolStats samples the pool now and then every interval until Stop
// or ctx ends.
func (m *DBMetrics) StartPoolStats(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Cannot sample database pool: not registered")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	m.poolWaitCount.Record(ctx, stats.WaitCount)
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// detectOperation classifies raw SQL; a CTE counts as a read
func detectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"), strings.HasPrefix(sql, "WITH"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}
