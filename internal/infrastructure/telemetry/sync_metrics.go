package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shopsync/backend/internal/domain/shared"
)

// SyncMetrics records the outcome counters of the sync engine.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	siteSyncTotal       *Counter
	remoteRequestTotal  *Counter
	remoteRequestTiming *Histogram
	ordersIngestedTotal *Counter
	categoriesCreated   *Counter
	fullPullProcessed   *Gauge
}

// NewSyncMetrics registers the sync instruments on the meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	siteSync, err := NewCounter(meter,
		"shopsync_site_sync_total",
		"Per-site outcomes of product sync, pull, publish and delete operations",
		"{result}",
	)
	if err != nil {
		return nil, err
	}
	remoteTotal, err := NewCounter(meter,
		"shopsync_remote_request_total",
		"Storefront HTTP attempts by site, method and status",
		"{request}",
	)
	if err != nil {
		return nil, err
	}
	remoteTiming, err := NewHistogram(meter, HistogramOpts{
		Name:        "shopsync_remote_request_duration_seconds",
		Description: "Storefront HTTP attempt latency",
		Unit:        "s",
		Boundaries:  RemoteDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	ordersIngested, err := NewCounter(meter,
		"shopsync_orders_ingested_total",
		"Orders written by the ingestion sweep",
		"{order}",
	)
	if err != nil {
		return nil, err
	}
	categories, err := NewCounter(meter,
		"shopsync_categories_created_total",
		"Categories created on a storefront by the reconciler",
		"{category}",
	)
	if err != nil {
		return nil, err
	}
	fullPull, err := NewGauge(meter,
		"shopsync_full_pull_processed",
		"Products processed by the running full pull of a site",
		"{product}",
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		siteSyncTotal:       siteSync,
		remoteRequestTotal:  remoteTotal,
		remoteRequestTiming: remoteTiming,
		ordersIngestedTotal: ordersIngested,
		categoriesCreated:   categories,
		fullPullProcessed:   fullPull,
	}, nil
}

// RecordSiteResults counts every site result of one operation
func (m *SyncMetrics) RecordSiteResults(ctx context.Context, operation string, results []shared.SiteResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		attrs := []attribute.KeyValue{
			AttrOperation.String(operation),
			AttrSite.String(r.Site.String()),
		}
		if r.Success() {
			attrs = append(attrs, AttrOutcome.String("success"))
		} else {
			attrs = append(attrs,
				AttrOutcome.String("failure"),
				AttrErrorKind.String(string(r.Result.Failure().Kind)),
			)
		}
		m.siteSyncTotal.Inc(ctx, attrs...)
	}
}

// ObserveRequest records one storefront HTTP attempt. status is 0 when the
// attempt failed before a response arrived.
func (m *SyncMetrics) ObserveRequest(ctx context.Context, site shared.SiteCode, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	statusLabel := "none"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	attrs := []attribute.KeyValue{
		AttrSite.String(site.String()),
		AttrHTTPMethod.String(method),
		AttrHTTPStatusCode.String(statusLabel),
	}
	m.remoteRequestTotal.Inc(ctx, attrs...)
	m.remoteRequestTiming.RecordDuration(ctx, d, attrs...)
}

// RecordOrdersIngested counts the applied and failed orders of one sweep
func (m *SyncMetrics) RecordOrdersIngested(ctx context.Context, site shared.SiteCode, applied, failed int) {
	if m == nil {
		return
	}
	if applied > 0 {
		m.ordersIngestedTotal.Add(ctx, int64(applied), AttrSite.String(site.String()), AttrOutcome.String("applied"))
	}
	if failed > 0 {
		m.ordersIngestedTotal.Add(ctx, int64(failed), AttrSite.String(site.String()), AttrOutcome.String("failed"))
	}
}

// RecordCategoryCreated counts one remote category creation
func (m *SyncMetrics) RecordCategoryCreated(ctx context.Context, site shared.SiteCode) {
	if m == nil {
		return
	}
	m.categoriesCreated.Inc(ctx, AttrSite.String(site.String()))
}

// RecordFullPullProgress reports how many products the running full pull has processed
func (m *SyncMetrics) RecordFullPullProgress(ctx context.Context, site shared.SiteCode, processed int) {
	if m == nil {
		return
	}
	m.fullPullProcessed.Record(ctx, int64(processed), AttrSite.String(site.String()))
}
