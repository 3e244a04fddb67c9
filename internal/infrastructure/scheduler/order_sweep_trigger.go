package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/shared"
)

// LatestModifiedFinder reports the newest order modification already ingested
type LatestModifiedFinder interface {
	LatestModified(ctx context.Context, site shared.SiteCode) (*time.Time, error)
}

// ---------------------------------------------------------------------------
// MemoryWatermarks
// ---------------------------------------------------------------------------

// MemoryWatermarks keeps the last successful sweep time per site in memory.
// After a restart the trigger falls back to the order store.
type MemoryWatermarks struct {
	mu    sync.RWMutex
	times map[shared.SiteCode]time.Time
}

// NewMemoryWatermarks creates an empty watermark set
func NewMemoryWatermarks() *MemoryWatermarks {
	return &MemoryWatermarks{times: make(map[shared.SiteCode]time.Time)}
}

// LastSuccess returns the last successful sweep start of the site
func (w *MemoryWatermarks) LastSuccess(site shared.SiteCode) (time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.times[site]
	return t, ok
}

// RecordSuccess moves the watermark forward, never backward
func (w *MemoryWatermarks) RecordSuccess(site shared.SiteCode, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.times[site]; ok && prev.After(at) {
		return
	}
	w.times[site] = at
}

// Snapshot returns a copy of every watermark
func (w *MemoryWatermarks) Snapshot() map[shared.SiteCode]time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[shared.SiteCode]time.Time, len(w.times))
	for k, v := range w.times {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// SweepTriggerConfig
// ---------------------------------------------------------------------------

// SweepTriggerConfig holds configuration for the periodic sweep trigger
type SweepTriggerConfig struct {
	// Interval is how often every site is swept
	Interval time.Duration
	// Lookback is subtracted from the watermark so that orders modified
	// while the previous sweep ran are fetched again
	Lookback time.Duration
}

// DefaultSweepTriggerConfig returns default configuration
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		Interval: 15 * time.Minute,
		Lookback: 5 * time.Minute,
	}
}

// ---------------------------------------------------------------------------
// SweepTrigger
// ---------------------------------------------------------------------------

// SweepCronTrigger queues an incremental sweep of every site on an interval
type SweepCronTrigger struct {
	config     SweepTriggerConfig
	scheduler  *SweepScheduler
	sites      shared.SiteSet
	watermarks SweepWatermarks
	orders     LatestModifiedFinder
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastScheduledMu sync.RWMutex
	lastScheduled   map[shared.SiteCode]time.Time
}

// NewSweepCronTrigger creates a new sweep trigger
func NewSweepCronTrigger(
	config SweepTriggerConfig,
	scheduler *SweepScheduler,
	sites shared.SiteSet,
	watermarks SweepWatermarks,
	orders LatestModifiedFinder,
	logger *zap.Logger,
) *SweepCronTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepTriggerConfig().Interval
	}
	if config.Lookback < 0 {
		config.Lookback = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepCronTrigger{
		config:        config,
		scheduler:     scheduler,
		sites:         sites,
		watermarks:    watermarks,
		orders:        orders,
		logger:        logger,
		lastScheduled: make(map[shared.SiteCode]time.Time),
	}
}

// Start starts the trigger loop
func (c *SweepCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Order sweep trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Duration("lookback", c.config.Lookback),
		zap.Strings("sites", c.sites.Strings()),
	)
	return nil
}

// Stop stops the trigger loop
func (c *SweepCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Order sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SweepCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	c.checkAndSchedule(ctx, time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.checkAndSchedule(ctx, now.UTC())
		}
	}
}

// checkAndSchedule queues one sweep per site not scheduled within the interval
func (c *SweepCronTrigger) checkAndSchedule(ctx context.Context, now time.Time) {
	for _, site := range c.sites {
		if !c.due(site, now) {
			continue
		}

		since := c.sweepStart(ctx, site)
		job, err := c.scheduler.ScheduleSweep(site, since, SweepTriggerScheduled)
		if err != nil {
			c.logger.Error("Failed to schedule order sweep",
				zap.String("site", site.String()),
				zap.Error(err),
			)
			continue
		}

		fields := []zap.Field{
			zap.String("site", site.String()),
			zap.String("job_id", job.ID.String()),
		}
		if since != nil {
			fields = append(fields, zap.Time("modified_after", *since))
		}
		c.logger.Info("Scheduled order sweep", fields...)
		c.updateLastScheduled(site, now)
	}
}

func (c *SweepCronTrigger) due(site shared.SiteCode, now time.Time) bool {
	c.lastScheduledMu.RLock()
	last, ok := c.lastScheduled[site]
	c.lastScheduledMu.RUnlock()
	// ticker jitter must not skip a round
	return !ok || now.Sub(last) >= c.config.Interval-time.Second
}

// sweepStart returns the incremental window start: last successful sweep
// minus lookback, else the newest ingested modification minus lookback, else
// nil for a full first sweep
func (c *SweepCronTrigger) sweepStart(ctx context.Context, site shared.SiteCode) *time.Time {
	if c.watermarks != nil {
		if last, ok := c.watermarks.LastSuccess(site); ok {
			since := last.Add(-c.config.Lookback)
			return &since
		}
	}
	if c.orders == nil {
		return nil
	}
	latest, err := c.orders.LatestModified(ctx, site)
	if err != nil {
		c.logger.Warn("Failed to read newest ingested order, sweeping everything",
			zap.String("site", site.String()),
			zap.Error(err),
		)
		return nil
	}
	if latest == nil {
		return nil
	}
	since := latest.Add(-c.config.Lookback)
	return &since
}

func (c *SweepCronTrigger) updateLastScheduled(site shared.SiteCode, t time.Time) {
	c.lastScheduledMu.Lock()
	c.lastScheduled[site] = t
	c.lastScheduledMu.Unlock()
}

// TriggerManual queues an immediate sweep of one site, or of every site when
// site is empty. A nil since sweeps incrementally from the watermark.
func (c *SweepCronTrigger) TriggerManual(ctx context.Context, site shared.SiteCode, since *time.Time) ([]*SweepJob, error) {
	if since != nil && since.After(time.Now()) {
		return nil, ErrSweepInvalidWindow
	}
	sites := c.sites
	if site != "" {
		if !c.sites.Contains(site) {
			return nil, ErrSweepSiteUnknown
		}
		sites = shared.SiteSet{site}
	}

	jobs := make([]*SweepJob, 0, len(sites))
	for _, s := range sites {
		from := since
		if from == nil {
			from = c.sweepStart(ctx, s)
		}
		job, err := c.scheduler.ScheduleSweep(s, from, SweepTriggerManual)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}

	c.logger.Info("Manual order sweep triggered",
		zap.String("site", site.String()),
		zap.Int("jobs", len(jobs)),
	)
	return jobs, nil
}

// Stats returns the trigger state for monitoring
func (c *SweepCronTrigger) Stats() map[string]interface{} {
	c.mu.Lock()
	running := c.isRunning
	c.mu.Unlock()

	c.lastScheduledMu.RLock()
	defer c.lastScheduledMu.RUnlock()

	last := make(map[string]string, len(c.lastScheduled))
	for site, t := range c.lastScheduled {
		last[site.String()] = t.Format(time.RFC3339)
	}
	return map[string]interface{}{
		"is_running":     running,
		"interval":       c.config.Interval.String(),
		"lookback":       c.config.Lookback.String(),
		"last_scheduled": last,
	}
}
