// Package scheduler runs background work: a bounded worker pool for queued
// jobs and periodic triggers for recurring sweeps.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a queued job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one unit of queued work
type Job struct {
	ID          uuid.UUID
	Name        string
	Run         func(ctx context.Context) error
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(name string, maxRetries int, run func(ctx context.Context) error) *Job {
	return &Job{
		ID:         uuid.New(),
		Name:       name,
		Run:        run,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
}

// Config holds worker pool settings
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	RetryDelay time.Duration
}

// Observer is told about every job the pool handles. Calls happen on the
// submitting goroutine or the worker and must not block.
type Observer interface {
	JobQueued(name string)
	JobRejected(name string)
	JobFinished(name string, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) JobQueued(string)                        {}
func (nopObserver) JobRejected(string)                      {}
func (nopObserver) JobFinished(string, time.Duration, error) {}

// Scheduler is a fixed-size worker pool fed by a bounded queue.
// Stopping it cancels the context of every running job.
type Scheduler struct {
	config   Config
	logger   *zap.Logger
	observer Observer

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a worker pool
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		logger:   logger,
		observer: nopObserver{},
		jobs:     make(chan *Job, config.QueueSize),
	}
}

// SetObserver installs o; call it before Start
func (s *Scheduler) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// QueueDepth is the number of jobs waiting for a worker
func (s *Scheduler) QueueDepth() int {
	return len(s.jobs)
}

// Start launches the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Worker pool started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit.
// Jobs still queued are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Worker pool stopped", zap.Int("dropped_jobs", len(s.jobs)))
		return nil
	case <-ctx.Done():
		s.logger.Warn("Worker pool stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job without blocking
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.observer.JobQueued(job.Name)
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job", job.Name),
		)
		return nil
	default:
		s.observer.JobRejected(job.Name)
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	if job.NextRetryAt != nil {
		wait := time.Until(*job.NextRetryAt)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job", job.Name),
	)
	log.Debug("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.run(jobCtx, job)
	cancel()
	s.observer.JobFinished(job.Name, time.Since(*job.StartedAt), err)

	if err == nil {
		job.Complete()
		log.Info("Job completed", zap.Duration("took", time.Since(*job.StartedAt)))
		return
	}

	job.Fail(err.Error())
	log.Error("Job failed", zap.Error(err))

	if ctx.Err() != nil || !job.ShouldRetry() {
		return
	}
	job.ScheduleRetry(s.config.RetryDelay)
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)
	select {
	case s.jobs <- job:
		s.observer.JobQueued(job.Name)
	default:
		s.observer.JobRejected(job.Name)
		log.Warn("Failed to re-queue job for retry")
	}
}

// run executes the job, turning a panic into an error so one bad job
// cannot take a worker down
func (s *Scheduler) run(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return job.Run(ctx)
}
