package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PoolMetrics observes a worker pool: jobs by outcome, job duration and the
// queue depth read at collection time. It satisfies scheduler.Observer.
type PoolMetrics struct {
	pool         attribute.KeyValue
	jobs         *Counter
	duration     *Histogram
	registration metric.Registration
}

// NewPoolMetrics creates the instruments for the pool called name; depth
// is read on every collection.
func NewPoolMetrics(meter metric.Meter, name string, depth func() int) (*PoolMetrics, error) {
	pm := &PoolMetrics{pool: AttrPool.String(name)}

	var err error
	if pm.jobs, err = NewCounter(meter, "worker_pool_jobs_total", "Jobs by outcome: queued, rejected, succeeded or failed", "{job}"); err != nil {
		return nil, err
	}
	if pm.duration, err = NewHistogram(meter, "worker_pool_job_duration_seconds", "Time a worker spent on one job", "s", JobDurationBuckets); err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64ObservableGauge("worker_pool_queue_depth",
		metric.WithDescription("Jobs waiting for a worker"),
		metric.WithUnit("{job}"))
	if err != nil {
		return nil, err
	}
	pm.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queueDepth, int64(depth()), metric.WithAttributes(pm.pool))
		return nil
	}, queueDepth)
	if err != nil {
		return nil, err
	}
	return pm, nil
}

func (pm *PoolMetrics) JobQueued(name string) {
	pm.jobs.Inc(context.Background(), pm.pool, jobKind(name), AttrOutcome.String("queued"))
}

func (pm *PoolMetrics) JobRejected(name string) {
	pm.jobs.Inc(context.Background(), pm.pool, jobKind(name), AttrOutcome.String("rejected"))
}

func (pm *PoolMetrics) JobFinished(name string, took time.Duration, err error) {
	ctx := context.Background()
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	pm.jobs.Inc(ctx, pm.pool, jobKind(name), AttrOutcome.String(outcome))
	pm.duration.RecordDuration(ctx, took, pm.pool, jobKind(name))
}

// jobKind drops the id from names like "ata:<uuid>" so the label stays bounded
func jobKind(name string) attribute.KeyValue {
	kind, _, _ := strings.Cut(name, ":")
	return AttrJob.String(kind)
}

// Close stops the queue depth callback
func (pm *PoolMetrics) Close() error {
	return pm.registration.Unregister()
}
