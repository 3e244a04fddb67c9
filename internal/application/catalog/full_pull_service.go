package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// FullPullConfig tunes a full pull
type FullPullConfig struct {
	PerPage          int // listing page size
	Workers          int // concurrent variation fetches
	BatchSize        int // rows per canonical write
	CancelCheckEvery int // products between cancellation checks
}

// DefaultFullPullConfig returns the defaults
func DefaultFullPullConfig() FullPullConfig {
	return FullPullConfig{
		PerPage:          100,
		Workers:          10,
		BatchSize:        300,
		CancelCheckEvery: 50,
	}
}

func (c FullPullConfig) withDefaults() FullPullConfig {
	d := DefaultFullPullConfig()
	if c.PerPage <= 0 {
		c.PerPage = d.PerPage
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.CancelCheckEvery <= 0 {
		c.CancelCheckEvery = d.CancelCheckEvery
	}
	return c
}

// FullPullServiceImpl mirrors every product of a site into the canonical store.
// Progress is persisted so operators can poll it and ask the pull to stop.
type FullPullServiceImpl struct {
	stores    integration.StoreClientProvider
	products  catalog.ProductRepository
	progress  catalog.SyncProgressRepository
	publisher integration.EventPublisher
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
	cfg       FullPullConfig
	now       func() time.Time

	mu      sync.Mutex
	running map[shared.SiteCode]*catalog.SyncProgress
	wg      sync.WaitGroup
}

// NewFullPullService creates a new FullPullServiceImpl
func NewFullPullService(
	stores integration.StoreClientProvider,
	products catalog.ProductRepository,
	progress catalog.SyncProgressRepository,
	cfg FullPullConfig,
	publisher integration.EventPublisher,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *FullPullServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FullPullServiceImpl{
		stores:    stores,
		products:  products,
		progress:  progress,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
		running:   make(map[shared.SiteCode]*catalog.SyncProgress),
	}
}

// Start records a running progress row and pulls the site in the background.
// The pull outlives ctx; stop it with Cancel.
func (s *FullPullServiceImpl) Start(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	if _, err := s.stores.Client(site); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, busy := s.running[site]; busy {
		s.mu.Unlock()
		return nil, ErrFullPullRunning
	}
	p := catalog.NewSyncProgress(site)
	s.running[site] = p
	s.mu.Unlock()

	if err := s.progress.Create(ctx, p); err != nil {
		s.release(site)
		return nil, fmt.Errorf("create sync progress: %w", err)
	}

	started := *p
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(site)
		if err := s.Run(context.WithoutCancel(ctx), p); err != nil {
			s.logger.Error("Full pull failed", zap.String("site", site.String()), zap.Error(err))
		}
	}()
	return &started, nil
}

func (s *FullPullServiceImpl) release(site shared.SiteCode) {
	s.mu.Lock()
	delete(s.running, site)
	s.mu.Unlock()
}

// Wait blocks until every background pull has finished
func (s *FullPullServiceImpl) Wait() {
	s.wg.Wait()
}

// Progress returns the most recent pull of the site
func (s *FullPullServiceImpl) Progress(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	return s.progress.FindLatest(ctx, site)
}

// Cancel asks the running pull of the site to stop at its next checkpoint
func (s *FullPullServiceImpl) Cancel(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	latest, err := s.progress.FindLatest(ctx, site)
	if err != nil {
		return nil, err
	}
	if latest.Status != catalog.ProgressRunning {
		return nil, catalog.ErrProgressNotFound
	}
	if err := s.progress.Cancel(ctx, latest.ID); err != nil {
		return nil, err
	}
	s.logger.Info("Full pull cancellation requested",
		zap.String("site", site.String()),
		zap.String("progress_id", latest.ID.String()),
	)
	return latest, nil
}

// Run executes one full pull synchronously and records its terminal status.
// Products without a sku are skipped; a failed variation fetch or write
// counts the product as failed and the pull continues.
func (s *FullPullServiceImpl) Run(ctx context.Context, p *catalog.SyncProgress) error {
	site := p.Site
	ctx, span := telemetry.StartServiceSpan(ctx, "full_pull", "run",
		telemetry.WithAttribute("site", site.String()),
	)
	defer span.End()
	ctx, log := logger.WithJobID(ctx, s.logger, p.ID.String())
	ctx, log = logger.WithSite(ctx, log, site.String())

	client, err := s.stores.Client(site)
	if err != nil {
		return s.finish(ctx, p, catalog.ProgressError, err.Error(), err)
	}

	remote, page, err := client.ListProducts(ctx, integration.ProductListQuery{PerPage: s.cfg.PerPage})
	if err != nil {
		telemetry.RecordError(span, err)
		return s.finish(ctx, p, catalog.ProgressError, "listing products failed: "+err.Error(), err)
	}
	if page.Truncated {
		log.Warn("Product listing truncated at page ceiling", zap.Int("pages", page.Pages))
	}
	p.Total = len(remote)
	p.Advance(0, 0, 0, fmt.Sprintf("fetched %d products", len(remote)))
	s.save(ctx, p)
	log.Info("Full pull started", zap.Int("total", p.Total), zap.Int("pages", page.Pages))

	ref := s.stores.Sites().Reference()
	pending := make([]*catalog.Product, 0, s.cfg.BatchSize)
	success, failed := 0, 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := s.products.UpsertMany(ctx, pending); err != nil {
			log.Error("Full pull batch write failed", zap.Int("size", len(pending)), zap.Error(err))
			failed += len(pending)
		} else {
			success += len(pending)
		}
		pending = pending[:0]
	}

	for start := 0; start < len(remote); start += s.cfg.CancelCheckEvery {
		if stop, status, reason := s.shouldStop(ctx, p); stop {
			flush()
			p.Advance(start, success, failed, "")
			return s.finish(ctx, p, status, reason, nil)
		}

		end := min(start+s.cfg.CancelCheckEvery, len(remote))
		window := remote[start:end]
		patches, windowFailed, skipped := s.pullWindow(ctx, site, ref, window)
		failed += windowFailed
		p.Skipped += skipped
		pending = append(pending, patches...)
		if len(pending) >= s.cfg.BatchSize {
			flush()
		}

		p.Advance(end, success, failed, fmt.Sprintf("processed %d/%d", end, p.Total))
		s.save(ctx, p)
		s.metrics.RecordFullPullProgress(ctx, site, end)
	}
	flush()

	p.Advance(p.Total, success, failed, "")
	msg := fmt.Sprintf("pulled %d products (%d failed, %d skipped)", success, failed, p.Skipped)
	telemetry.SetAttributes(span, "pull.success", success, "pull.failed", failed, "pull.skipped", p.Skipped)
	telemetry.SetOK(span)
	return s.finish(ctx, p, catalog.ProgressCompleted, msg, nil)
}

// shouldStop checks the operator flag and the context
func (s *FullPullServiceImpl) shouldStop(ctx context.Context, p *catalog.SyncProgress) (bool, catalog.ProgressStatus, string) {
	if err := ctx.Err(); err != nil {
		return true, catalog.ProgressCancelled, "stopped: " + err.Error()
	}
	cancelled, err := s.progress.IsCancelled(ctx, p.ID)
	if err != nil {
		s.logger.Warn("Reading cancellation flag failed", zap.String("progress_id", p.ID.String()), zap.Error(err))
		return false, "", ""
	}
	if cancelled {
		return true, catalog.ProgressCancelled, "cancelled by operator"
	}
	return false, "", ""
}

// pullWindow fetches the variations of a window of products concurrently
// and returns their patches in listing order
func (s *FullPullServiceImpl) pullWindow(ctx context.Context, site, ref shared.SiteCode, window []integration.RemoteProduct) (patches []*catalog.Product, failed, skipped int) {
	client, err := s.stores.Client(site)
	if err != nil {
		return nil, len(window), 0
	}
	at := s.now()
	slots := make([]*catalog.Product, len(window))
	errs := make([]error, len(window))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range window {
		rp := &window[i]
		if strings.TrimSpace(rp.SKU) == "" {
			continue
		}
		g.Go(func() error {
			var vs []integration.RemoteVariation
			if rp.IsVariable() {
				list, err := client.ListVariations(gctx, rp.ID)
				if err != nil {
					errs[i] = err
					return nil
				}
				vs = list
			}
			slots[i] = PatchFromRemote(strings.TrimSpace(rp.SKU), site, ref, rp, vs, at)
			return nil
		})
	}
	_ = g.Wait()

	for i := range window {
		switch {
		case strings.TrimSpace(window[i].SKU) == "":
			skipped++
		case errs[i] != nil:
			failed++
			s.logger.Warn("Variation fetch failed",
				zap.String("site", site.String()),
				zap.Int64("remote_id", window[i].ID),
				zap.Error(errs[i]),
			)
		case slots[i] != nil:
			patches = append(patches, slots[i])
		}
	}
	return patches, failed, skipped
}

func (s *FullPullServiceImpl) save(ctx context.Context, p *catalog.SyncProgress) {
	if err := s.progress.Update(ctx, p); err != nil {
		s.logger.Warn("Saving sync progress failed", zap.String("progress_id", p.ID.String()), zap.Error(err))
	}
}

func (s *FullPullServiceImpl) finish(ctx context.Context, p *catalog.SyncProgress, status catalog.ProgressStatus, message string, cause error) error {
	p.Finish(status, message)
	// the terminal row is written even when ctx was cancelled
	if err := s.progress.Update(context.WithoutCancel(ctx), p); err != nil {
		s.logger.Error("Saving final sync progress failed", zap.String("progress_id", p.ID.String()), zap.Error(err))
		if cause == nil {
			cause = err
		}
	}

	s.logger.Info("Full pull finished",
		zap.String("site", p.Site.String()),
		zap.String("status", string(status)),
		zap.Int("success", p.Success),
		zap.Int("failed", p.Failed),
		zap.Int("skipped", p.Skipped),
	)
	if s.publisher != nil {
		event := integration.NewSyncEvent(integration.EventFullPullDone, "", p.Site)
		event.Attributes = map[string]any{
			"progress_id": p.ID.String(),
			"status":      string(status),
			"total":       p.Total,
			"success":     p.Success,
			"failed":      p.Failed,
			"skipped":     p.Skipped,
		}
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Warn("Publishing full pull event failed", zap.Error(err))
		}
	}
	if cause != nil && errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}
