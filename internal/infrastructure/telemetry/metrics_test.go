package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compia/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestMeter(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumBy(t *testing.T, agg metricdata.Aggregation, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", agg)
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.Emit()] += dp.Value
	}
	return out
}

func gaugeBy(t *testing.T, agg metricdata.Aggregation, key attribute.Key) map[string]int64 {
	t.Helper()
	g, ok := agg.(metricdata.Gauge[int64])
	require.True(t, ok, "expected an int64 gauge, got %T", agg)
	out := map[string]int64{}
	for _, dp := range g.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.Emit()] = dp.Value
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{Enabled: true}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))

	m, err := RegisterDBMetrics(nil, mp, 0, 0, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestPoolMetrics(t *testing.T) {
	mp, reader := newTestMeter(t)
	depth := 3
	pm, err := NewPoolMetrics(mp.Meter("test"), "ata", func() int { return depth })
	require.NoError(t, err)
	defer func() { assert.NoError(t, pm.Close()) }()

	pm.JobQueued("ata:" + uuid.NewString())
	pm.JobQueued("ata:" + uuid.NewString())
	pm.JobRejected("ata:" + uuid.NewString())
	pm.JobFinished("ata:"+uuid.NewString(), 40*time.Second, nil)
	pm.JobFinished("ata:"+uuid.NewString(), 2*time.Second, errors.New("model timeout"))

	data := collect(t, reader)

	outcomes := sumBy(t, data["worker_pool_jobs_total"], AttrOutcome)
	assert.Equal(t, map[string]int64{"queued": 2, "rejected": 1, "succeeded": 1, "failed": 1}, outcomes)
	assert.Equal(t, map[string]int64{"ata": 5}, sumBy(t, data["worker_pool_jobs_total"], AttrJob),
		"job ids must not become labels")

	hist, ok := data["worker_pool_job_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 42, hist.DataPoints[0].Sum, 1e-9)

	assert.Equal(t, map[string]int64{"ata": 3}, gaugeBy(t, data["worker_pool_queue_depth"], AttrPool))
	depth = 0
	assert.Equal(t, map[string]int64{"ata": 0}, gaugeBy(t, collect(t, reader)["worker_pool_queue_depth"], AttrPool))
}

type metered struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestDBMetrics(t *testing.T) {
	mp, reader := newTestMeter(t)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&metered{}))

	m, err := RegisterDBMetrics(db, mp, time.Nanosecond, time.Hour, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, m)

	require.NoError(t, db.Create(&metered{Name: "extintor"}).Error)
	var got []metered
	require.NoError(t, db.Find(&got).Error)
	require.NoError(t, db.Model(&metered{}).Where("id = ?", 1).Update("name", "hidrante").Error)
	require.NoError(t, db.Exec("DELETE FROM metereds WHERE id = ?", 1).Error)

	m.StartPoolStats(context.Background())
	m.Stop()
	m.Stop()

	data := collect(t, reader)
	ops := sumBy(t, data["db_query_total"], AttrDBOperation)
	assert.Equal(t, int64(1), ops["INSERT"])
	assert.Equal(t, int64(1), ops["SELECT"])
	assert.Equal(t, int64(1), ops["UPDATE"])
	assert.Equal(t, int64(1), ops["DELETE"])
	slow := sumBy(t, data["db_slow_query_total"], AttrDBTable)
	assert.Equal(t, int64(3), slow["metereds"])
	assert.Equal(t, int64(1), slow["unknown"], "raw statements carry no table")

	pool := gaugeBy(t, data["db_pool_connections"], AttrDBState)
	assert.Contains(t, pool, "idle")
	assert.Contains(t, pool, "in_use")
	assert.Contains(t, pool, "open")
}

func TestDetectOperation(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperation("  select 1"))
	assert.Equal(t, "SELECT", detectOperation("WITH RECURSIVE tree AS (SELECT 1) SELECT * FROM tree"))
	assert.Equal(t, "UPDATE", detectOperation("UPDATE inspections SET status = 'cancelled'"))
	assert.Equal(t, "OTHER", detectOperation("CREATE TABLE x (id int)"))
}

func TestLoggerProvider(t *testing.T) {
	t.Run("disabled gives a no-op core", func(t *testing.T) {
		lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{Enabled: true, LogsEnabled: false}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.False(t, lp.Core(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
		assert.NoError(t, lp.Shutdown(context.Background()))
	})

	t.Run("level filter", func(t *testing.T) {
		inner, recorded := observer.New(zapcore.DebugLevel)
		core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
		l := zap.New(core).With(zap.String("service", "compia"))

		l.Info("dropped")
		l.Error("exported")

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "exported", recorded.All()[0].Message)
		assert.Equal(t, "compia", recorded.All()[0].ContextMap()["service"])
	})
}

func TestProfiler(t *testing.T) {
	p, err := NewProfiler(config.ProfilingConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(config.ProfilingConfig{Enabled: true, ApplicationName: "compia-backend"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrProfilerAddress)

	tp, err := NewTracerProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.EnableSpanProfiles())
}
