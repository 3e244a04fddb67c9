package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
)

// ---------------------------------------------------------------------------
// Sweep Job Types
// ---------------------------------------------------------------------------

// SweepJobStatus represents the status of an order sweep job
type SweepJobStatus string

const (
	SweepJobStatusPending SweepJobStatus = "PENDING"
	SweepJobStatusRunning SweepJobStatus = "RUNNING"
	SweepJobStatusSuccess SweepJobStatus = "SUCCESS"
	SweepJobStatusPartial SweepJobStatus = "PARTIAL"
	SweepJobStatusFailed  SweepJobStatus = "FAILED"
)

// SweepTrigger tells who queued a job
type SweepTrigger string

const (
	SweepTriggerScheduled SweepTrigger = "scheduled"
	SweepTriggerManual    SweepTrigger = "manual"
)

// SweepJob is one incremental order sweep of one site
type SweepJob struct {
	ID            uuid.UUID       `json:"id"`
	Site          shared.SiteCode `json:"site"`
	Trigger       SweepTrigger    `json:"trigger"`
	OrderStatus   string          `json:"order_status,omitempty"`
	ModifiedAfter *time.Time      `json:"modified_after,omitempty"`

	State       SweepJobStatus   `json:"status"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   shared.ErrorKind `json:"error_kind,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	RetryCount  int              `json:"retry_count"`
	MaxRetries  int              `json:"max_retries"`
	NextRetryAt *time.Time       `json:"next_retry_at,omitempty"`

	// Sweep results
	Fetched       int  `json:"fetched"`
	Applied       int  `json:"applied"`
	Failed        int  `json:"failed"`
	FailedBatches int  `json:"failed_batches"`
	Truncated     bool `json:"truncated"`
}

// NewSweepJob creates a pending sweep job
func NewSweepJob(site shared.SiteCode, modifiedAfter *time.Time, trigger SweepTrigger, maxRetries int) *SweepJob {
	return &SweepJob{
		ID:            uuid.New(),
		Site:          site,
		Trigger:       trigger,
		ModifiedAfter: modifiedAfter,
		State:         SweepJobStatusPending,
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    maxRetries,
	}
}

// Start marks the job as running
func (j *SweepJob) Start() {
	now := time.Now().UTC()
	j.State = SweepJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
	j.ErrorKind = ""
}

// Complete records the sweep counts. Batch failures make the job partial,
// a sweep that wrote nothing while failing rows is failed.
func (j *SweepJob) Complete(fetched, applied, failed, failedBatches int, truncated bool) {
	now := time.Now().UTC()
	j.Fetched = fetched
	j.Applied = applied
	j.Failed = failed
	j.FailedBatches = failedBatches
	j.Truncated = truncated
	j.CompletedAt = &now

	switch {
	case failed == 0:
		j.State = SweepJobStatusSuccess
	case applied > 0:
		j.State = SweepJobStatusPartial
	default:
		j.State = SweepJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *SweepJob) Fail(err error) {
	now := time.Now().UTC()
	j.State = SweepJobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
	j.ErrorKind = shared.KindOf(err)
}

// ShouldRetry returns true if the failed job has retries left and its
// failure kind is worth retrying
func (j *SweepJob) ShouldRetry() bool {
	return j.State == SweepJobStatusFailed && j.RetryCount < j.MaxRetries && IsRetryableKind(j.ErrorKind)
}

// ScheduleRetry schedules the job for retry with exponential backoff and
// returns the delay
func (j *SweepJob) ScheduleRetry(baseDelay time.Duration) time.Duration {
	j.RetryCount++
	j.State = SweepJobStatusPending
	// baseDelay * 2^(retryCount-1)
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > maxRetryDelay || delay <= 0 {
		delay = maxRetryDelay
	}
	next := time.Now().UTC().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
	j.CompletedAt = nil
	return delay
}

// IsTerminal reports whether the job will not run again
func (j *SweepJob) IsTerminal() bool {
	return j.State == SweepJobStatusSuccess || j.State == SweepJobStatusPartial ||
		(j.State == SweepJobStatusFailed && !j.ShouldRetry())
}

const maxRetryDelay = 30 * time.Minute

// IsRetryableKind reports whether a failure of that kind may succeed on retry.
// Credentials, bad input and missing remote objects never heal by themselves.
func IsRetryableKind(kind shared.ErrorKind) bool {
	switch kind {
	case shared.ErrorKindTransient, shared.ErrorKindInternal, shared.ErrorKindStore:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// SweepExecutor Interface
// ---------------------------------------------------------------------------

// SweepExecutor runs sweep jobs
type SweepExecutor interface {
	// Execute sweeps the job's site and records the counts on the job
	Execute(ctx context.Context, job *SweepJob) error
}

// ---------------------------------------------------------------------------
// SweepSchedulerConfig
// ---------------------------------------------------------------------------

// SweepSchedulerConfig holds configuration for the order sweep scheduler
type SweepSchedulerConfig struct {
	// MaxConcurrentJobs is the number of workers
	MaxConcurrentJobs int
	// QueueSize bounds the pending job queue
	QueueSize int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// HistorySize bounds the finished job history
	HistorySize int
}

// DefaultSweepSchedulerConfig returns default configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		MaxConcurrentJobs: 4,
		QueueSize:         100,
		JobTimeout:        15 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
		HistorySize:       100,
	}
}

// Validate validates the configuration
func (c *SweepSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 || c.QueueSize <= 0 || c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SweepScheduler
// ---------------------------------------------------------------------------

// SweepScheduler runs order sweep jobs on a worker pool
type SweepScheduler struct {
	config   SweepSchedulerConfig
	executor SweepExecutor
	logger   *zap.Logger

	jobs      chan *SweepJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   map[uuid.UUID]*time.Timer

	// finished jobs, newest first
	historyMu sync.RWMutex
	history   []*SweepJob
	active    map[uuid.UUID]*SweepJob
}

// NewSweepScheduler creates a new order sweep scheduler
func NewSweepScheduler(config SweepSchedulerConfig, executor SweepExecutor, logger *zap.Logger) (*SweepScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SweepScheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *SweepJob, config.QueueSize),
		retries:  make(map[uuid.UUID]*time.Timer),
		history:  make([]*SweepJob, 0, config.HistorySize),
		active:   make(map[uuid.UUID]*SweepJob),
	}, nil
}

// Start starts the worker pool
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Order sweep scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs, drops pending retries and waits for the workers
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Order sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Order sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler accepts jobs
func (s *SweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job for execution
func (s *SweepScheduler) SubmitJob(job *SweepJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.historyMu.Lock()
		s.active[job.ID] = job
		s.historyMu.Unlock()
		s.logger.Debug("Order sweep job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("site", job.Site.String()),
			zap.String("trigger", string(job.Trigger)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleSweep queues a sweep of the site for orders modified after the instant
func (s *SweepScheduler) ScheduleSweep(site shared.SiteCode, modifiedAfter *time.Time, trigger SweepTrigger) (*SweepJob, error) {
	job := NewSweepJob(site, modifiedAfter, trigger, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SweepScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Order sweep worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Order sweep worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *SweepScheduler) processJob(ctx context.Context, job *SweepJob, workerID int) {
	job.Start()
	ctx, log := logger.WithJobID(ctx, s.logger, job.ID.String())
	ctx, log = logger.WithSite(ctx, log, job.Site.String())

	log.Info("Processing order sweep job",
		zap.Int("worker_id", workerID),
		zap.String("trigger", string(job.Trigger)),
		zap.Int("retry_count", job.RetryCount),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrSweepTimeout, err)
	}
	if err != nil {
		job.Fail(err)
		log.Error("Order sweep job failed",
			zap.Int("worker_id", workerID),
			zap.String("error_kind", string(job.ErrorKind)),
			zap.Error(err),
		)

		if job.ShouldRetry() && ctx.Err() == nil {
			delay := job.ScheduleRetry(s.config.RetryDelay)
			log.Info("Order sweep job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Duration("delay", delay),
			)
			s.resubmitAfter(job, delay)
			return
		}
		s.addToHistory(job)
		return
	}

	log.Info("Order sweep job completed",
		zap.Int("worker_id", workerID),
		zap.String("status", string(job.State)),
		zap.Int("fetched", job.Fetched),
		zap.Int("applied", job.Applied),
		zap.Int("failed", job.Failed),
	)
	s.addToHistory(job)
}

// resubmitAfter re-queues the job once the delay elapsed
func (s *SweepScheduler) resubmitAfter(job *SweepJob, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.retries[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.retries, job.ID)
		s.mu.Unlock()
		if err := s.SubmitJob(job); err != nil {
			job.Fail(err)
			s.addToHistory(job)
			s.logger.Warn("Failed to re-queue order sweep job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
}

// addToHistory records a finished job
func (s *SweepScheduler) addToHistory(job *SweepJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	delete(s.active, job.ID)
	s.history = append([]*SweepJob{job}, s.history...)
	if len(s.history) > s.config.HistorySize {
		s.history = s.history[:s.config.HistorySize]
	}
}

// GetJobHistory returns finished jobs, newest first
func (s *SweepScheduler) GetJobHistory(limit int) []*SweepJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*SweepJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryBySite returns finished jobs of one site, newest first
func (s *SweepScheduler) GetJobHistoryBySite(site shared.SiteCode, limit int) []*SweepJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*SweepJob, 0)
	for _, job := range s.history {
		if job.Site != site {
			continue
		}
		result = append(result, job)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// GetJob returns a queued, running or finished job
func (s *SweepScheduler) GetJob(id uuid.UUID) (*SweepJob, error) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if job, ok := s.active[id]; ok {
		return job, nil
	}
	for _, job := range s.history {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, ErrJobNotFound
}
