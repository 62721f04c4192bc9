// Package scheduler runs background jobs on a bounded worker pool and fires
// periodic tasks. Export processing and export cleanup run on it.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/temba/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of background work. ID identifies the thing being worked on,
// e.g. an export, so the same thing is never queued twice.
type Job struct {
	ID          uuid.UUID
	OrgID       uuid.UUID
	Kind        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(kind string, id, orgID uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:         id,
		OrgID:      orgID,
		Kind:       kind,
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

// ShouldRetry reports whether a failure caused by err is retried
func (j *Job) ShouldRetry(err error) bool {
	return j.Status == JobStatusFailed && errors.Is(err, ErrRetryLater) && j.RetryCount < j.MaxRetries
}

// JobExecutor executes jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls f
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Stats is a snapshot of scheduler counters
type Stats struct {
	Queued    int   `json:"queued"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Retried   int64 `json:"retried"`
}

// Scheduler runs submitted jobs on a fixed number of workers
type Scheduler struct {
	config   config.SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  map[uuid.UUID]struct{}
	retries   map[uuid.UUID]*time.Timer
	stats     Stats
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   logger,
		inFlight: make(map[uuid.UUID]struct{}),
		retries:  make(map[uuid.UUID]*time.Timer),
	}
}

// Start starts the workers. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *Job, s.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers, or for ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, t := range s.retries {
		t.Stop()
		delete(s.retries, id)
	}
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job. It fails when the scheduler is stopped, the queue is
// full, or a job with the same ID is already queued or running.
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if _, ok := s.inFlight[job.ID]; ok {
		return ErrJobAlreadyQueued
	}

	select {
	case s.jobs <- job:
		s.inFlight[job.ID] = struct{}{}
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Kind),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// Stats returns a snapshot of the scheduler counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Queued = len(s.inFlight)
	return st
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("org_id", job.OrgID.String()),
		zap.String("kind", job.Kind),
	)

	job.Start()
	log.Info("Processing job", zap.Int("retry_count", job.RetryCount))

	jobCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.config.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
	}
	err := s.execute(jobCtx, job)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		job.Complete()
		s.stats.Succeeded++
		delete(s.inFlight, job.ID)
		log.Info("Job completed successfully")
		return
	}

	job.Fail(err.Error())
	if job.ShouldRetry(err) && s.isRunning {
		job.RetryCount++
		job.Status = JobStatusPending
		s.stats.Retried++
		log.Info("Job scheduled for retry",
			zap.Int("retry_count", job.RetryCount),
			zap.Duration("delay", s.config.RetryDelay),
			zap.Error(err),
		)
		s.retries[job.ID] = time.AfterFunc(s.config.RetryDelay, func() { s.requeue(job) })
		return
	}

	s.stats.Failed++
	delete(s.inFlight, job.ID)
	log.Error("Job failed", zap.Error(err))
}

// execute runs the executor, turning a panic into an error
func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("job panicked")
			s.logger.Error("Job panicked", zap.String("job_id", job.ID.String()), zap.Any("panic", r))
		}
	}()
	return s.executor.Execute(ctx, job)
}

func (s *Scheduler) requeue(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.retries, job.ID)
	if !s.isRunning {
		delete(s.inFlight, job.ID)
		return
	}
	select {
	case s.jobs <- job:
	default:
		delete(s.inFlight, job.ID)
		s.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", job.ID.String()))
	}
}
