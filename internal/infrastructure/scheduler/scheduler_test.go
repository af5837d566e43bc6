package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob("ata", 1, func(context.Context) error { return nil })
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Second)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := NewScheduler(Config{Workers: 2, QueueSize: 10, JobTimeout: time.Second}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	var done int32
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Submit(NewJob("count", 0, func(context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		})))
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&done) == 5 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	s := NewScheduler(Config{Workers: 1, JobTimeout: time.Second, RetryDelay: time.Millisecond}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	var attempts int32
	require.NoError(t, s.Submit(NewJob("flaky", 2, func(context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := NewScheduler(Config{Workers: 1}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	var after int32
	require.NoError(t, s.Submit(NewJob("panics", 0, func(context.Context) error { panic("bad input") })))
	require.NoError(t, s.Submit(NewJob("after", 0, func(context.Context) error {
		atomic.StoreInt32(&after, 1)
		return nil
	})))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&after) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_StopCancelsRunningJobs(t *testing.T) {
	s := NewScheduler(Config{Workers: 1, JobTimeout: time.Minute}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	started := make(chan struct{})
	var cancelled int32
	require.NoError(t, s.Submit(NewJob("long", 0, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&cancelled, 1)
		return ctx.Err()
	})))

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))

	assert.ErrorIs(t, s.Submit(NewJob("late", 0, func(context.Context) error { return nil })), ErrSchedulerNotRunning)
}

func TestScheduler_QueueFull(t *testing.T) {
	s := NewScheduler(Config{Workers: 1, QueueSize: 1}, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Submit(NewJob("blocker", 0, func(ctx context.Context) error {
		close(started)
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})))
	<-started

	require.NoError(t, s.Submit(NewJob("queued", 0, func(context.Context) error { return nil })))
	assert.ErrorIs(t, s.Submit(NewJob("overflow", 0, func(context.Context) error { return nil })), ErrJobQueueFull)

	close(block)
	require.NoError(t, s.Stop(context.Background()))
}

type recordingObserver struct {
	mu       sync.Mutex
	queued   []string
	rejected []string
	failed   []string
	finished int
}

func (o *recordingObserver) JobQueued(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued = append(o.queued, name)
}

func (o *recordingObserver) JobRejected(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, name)
}

func (o *recordingObserver) JobFinished(name string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
	if err != nil {
		o.failed = append(o.failed, name)
	}
}

func (o *recordingObserver) finishedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finished
}

func TestScheduler_Observer(t *testing.T) {
	s := NewScheduler(Config{Workers: 1, QueueSize: 1}, zaptest.NewLogger(t))
	obs := &recordingObserver{}
	s.SetObserver(obs)
	require.NoError(t, s.Start(context.Background()))

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Submit(NewJob("blocker", 0, func(ctx context.Context) error {
		close(started)
		<-block
		return errors.New("boom")
	})))
	<-started

	require.NoError(t, s.Submit(NewJob("queued", 0, func(context.Context) error { return nil })))
	assert.Equal(t, 1, s.QueueDepth())
	assert.ErrorIs(t, s.Submit(NewJob("overflow", 0, func(context.Context) error { return nil })), ErrJobQueueFull)

	close(block)
	assert.Eventually(t, func() bool { return obs.finishedCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{"blocker", "queued"}, obs.queued)
	assert.Equal(t, []string{"overflow"}, obs.rejected)
	assert.Equal(t, []string{"blocker"}, obs.failed)
	assert.Zero(t, s.QueueDepth())
}

func TestPeriodic(t *testing.T) {
	var runs int32
	p := NewPeriodic(PeriodicConfig{Name: "sweep", Interval: 10 * time.Millisecond, RunOnStart: true},
		func(context.Context) error {
			if atomic.AddInt32(&runs, 1) == 2 {
				return errors.New("db down")
			}
			return nil
		}, zaptest.NewLogger(t))

	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))

	last, _ := p.LastRun()
	assert.False(t, last.IsZero())
}

func TestPeriodic_RunOnceSurvivesPanic(t *testing.T) {
	p := NewPeriodic(PeriodicConfig{Name: "panics"}, func(context.Context) error { panic("nil map") }, zaptest.NewLogger(t))

	p.RunOnce(context.Background())

	_, err := p.LastRun()
	var pe *PanicError
	assert.ErrorAs(t, err, &pe)
}
