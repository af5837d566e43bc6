package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a recurring piece of work
type Task func(ctx context.Context) error

// PeriodicConfig holds settings for a recurring task
type PeriodicConfig struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	// RunOnStart triggers one run right after Start instead of waiting a full interval
	RunOnStart bool
}

// Periodic runs a task on a fixed interval. Runs never overlap.
type Periodic struct {
	config PeriodicConfig
	task   Task
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewPeriodic creates a periodic trigger
func NewPeriodic(config PeriodicConfig, task Task, logger *zap.Logger) *Periodic {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Periodic{
		config: config,
		task:   task,
		logger: logger.With(zap.String("task", config.Name)),
	}
}

// Start starts the run loop
func (p *Periodic) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}
	p.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Periodic task started", zap.Duration("interval", p.config.Interval))
	return nil
}

// Stop cancels the current run and waits for the loop to exit
func (p *Periodic) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Periodic task stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Periodic) runLoop(ctx context.Context) {
	defer p.wg.Done()

	if p.config.RunOnStart {
		p.RunOnce(ctx)
	}

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce executes the task immediately under the configured timeout
func (p *Periodic) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		return p.task(runCtx)
	}()

	p.mu.Lock()
	p.lastRun = start
	p.lastErr = err
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("Periodic task failed", zap.Error(err))
		return
	}
	p.logger.Debug("Periodic task finished", zap.Duration("took", time.Since(start)))
}

// LastRun returns when the task last ran and its outcome
func (p *Periodic) LastRun() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun, p.lastErr
}
