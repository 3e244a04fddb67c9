package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopsync/backend/internal/domain/integration"
	domain "github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// DefaultBatchSize is the number of orders written per upsert
const DefaultBatchSize = 100

// SweepServiceImpl ingests storefront orders into the canonical order store
type SweepServiceImpl struct {
	stores    integration.StoreClientProvider
	repo      domain.Repository
	publisher integration.EventPublisher
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// SweepOption configures a SweepServiceImpl
type SweepOption func(*SweepServiceImpl)

// WithBatchSize sets the upsert batch size
func WithBatchSize(n int) SweepOption {
	return func(s *SweepServiceImpl) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSweepLogger sets the logger
func WithSweepLogger(l *zap.Logger) SweepOption {
	return func(s *SweepServiceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSweepMetrics records ingestion counters
func WithSweepMetrics(m *telemetry.SyncMetrics) SweepOption {
	return func(s *SweepServiceImpl) {
		s.metrics = m
	}
}

// WithSweepPublisher publishes an orders.ingested event after every site sweep
func WithSweepPublisher(p integration.EventPublisher) SweepOption {
	return func(s *SweepServiceImpl) {
		s.publisher = p
	}
}

// NewSweepService creates a new SweepServiceImpl
func NewSweepService(stores integration.StoreClientProvider, repo domain.Repository, opts ...SweepOption) *SweepServiceImpl {
	s := &SweepServiceImpl{
		stores:    stores,
		repo:      repo,
		logger:    zap.NewNop(),
		batchSize: DefaultBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncSiteOrders fetches every matching order of one site and upserts them
// in fixed-size batches. A failing batch is counted and the sweep continues
// with the next one. When the listing breaks off after some pages, the orders
// already read are still ingested and the report is marked truncated with the
// fetch error; a fetch that yields nothing fails the sweep.
func (s *SweepServiceImpl) SyncSiteOrders(ctx context.Context, site shared.SiteCode, opts SweepOptions) (*SweepReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sweep", "sync_site",
		telemetry.WithAttribute("site", site.String()),
	)
	defer span.End()
	ctx, log := logger.WithSite(ctx, s.logger, site.String())

	client, err := s.stores.Client(site)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	remote, page, err := client.ListOrders(ctx, integration.OrderListQuery{
		Status:        opts.Status,
		After:         opts.After,
		ModifiedAfter: opts.ModifiedAfter,
		PerPage:       opts.PerPage,
	})
	if err != nil && len(remote) == 0 {
		telemetry.RecordError(span, err)
		log.Warn("Order sweep fetch failed", zap.Error(err))
		return nil, fmt.Errorf("fetch orders of site %s: %w", site, err)
	}

	report := &SweepReport{
		Site:      site,
		Fetched:   len(remote),
		Pages:     page.Pages,
		Truncated: page.Truncated,
	}
	if page.Truncated {
		log.Warn("Order listing truncated at page ceiling", zap.Int("pages", page.Pages))
	}
	if err != nil {
		report.Truncated = true
		report.FetchError = err.Error()
		telemetry.RecordError(span, err)
		log.Warn("Order listing broke off, ingesting the orders already read",
			zap.Int("fetched", len(remote)),
			zap.Int("pages", page.Pages),
			zap.Error(err),
		)
	}

	syncedAt := s.now()
	batch := make([]*domain.Order, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		report.Batches++
		res, err := s.repo.UpsertBatch(ctx, batch)
		report.Applied += res.Applied
		report.Failed += res.Failed
		if err != nil {
			report.FailedBatches++
			log.Error("Order batch upsert failed",
				zap.Int("batch", report.Batches),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
		}
		batch = batch[:0]
	}

	for i := range remote {
		o := FromRemote(site, remote[i], syncedAt)
		if err := o.Validate(); err != nil {
			report.Failed++
			log.Warn("Skipping invalid remote order", zap.Int64("order_id", remote[i].ID), zap.Error(err))
			continue
		}
		batch = append(batch, o)
		if len(batch) == s.batchSize {
			flush()
		}
	}
	flush()

	s.metrics.RecordOrdersIngested(ctx, site, report.Applied, report.Failed)
	telemetry.SetAttributes(span,
		"orders.fetched", report.Fetched,
		"orders.applied", report.Applied,
		"orders.failed", report.Failed,
		"orders.truncated", report.Truncated,
	)
	if report.FetchError == "" {
		telemetry.SetOK(span)
	}

	log.Info("Order sweep finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("applied", report.Applied),
		zap.Int("failed", report.Failed),
		zap.Int("batches", report.Batches),
		zap.Int("failed_batches", report.FailedBatches),
	)
	s.publish(ctx, report)
	return report, nil
}

// SyncOrders sweeps the requested site, or every configured site in parallel
func (s *SweepServiceImpl) SyncOrders(ctx context.Context, req SyncOrdersRequest) (*SyncOrdersResult, error) {
	sites := s.stores.Sites()
	if req.Site != "" {
		if !sites.Contains(req.Site) {
			return nil, fmt.Errorf("%w: %s", integration.ErrSiteNotConfigured, req.Site)
		}
		sites = shared.SiteSet{req.Site}
	}
	opts := SweepOptions{
		Status:        req.Status,
		After:         req.After,
		ModifiedAfter: req.ModifiedAfter,
		PerPage:       req.PerPage,
	}

	var mu sync.Mutex
	result := &SyncOrdersResult{Results: make(map[shared.SiteCode]shared.Result[SweepReport], len(sites))}

	g, gctx := errgroup.WithContext(ctx)
	for _, site := range sites {
		site := site
		g.Go(func() error {
			report, err := s.SyncSiteOrders(gctx, site, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Results[site] = shared.FromError[SweepReport](err)
				return nil
			}
			result.Results[site] = shared.Ok(*report)
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

func (s *SweepServiceImpl) publish(ctx context.Context, report *SweepReport) {
	if s.publisher == nil {
		return
	}
	event := integration.NewSyncEvent(integration.EventOrdersIngested, "", report.Site)
	event.Attributes = map[string]any{
		"fetched":        report.Fetched,
		"applied":        report.Applied,
		"failed":         report.Failed,
		"failed_batches": report.FailedBatches,
		"truncated":      report.Truncated,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Publishing orders.ingested event failed",
			zap.String("site", report.Site.String()),
			zap.Error(err),
		)
	}
}
