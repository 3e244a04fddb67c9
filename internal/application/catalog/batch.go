package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// SyncBatch pushes many skus. SKUs run one after another in input order
// while the sites of each sku run in parallel; the four storefront APIs see
// at most one product update each at a time.
//
// An unknown sku fails only its own outcome. Once ctx is cancelled the
// current sku drains and the remaining skus are reported as failed without
// being sent.
func (s *ProductSyncServiceImpl) SyncBatch(ctx context.Context, skus []string, sites []shared.SiteCode, fields catalog.FieldSet) ([]SyncOutcome, error) {
	if len(skus) == 0 {
		return nil, ErrNoSKUs
	}
	set, err := s.resolveSites(sites)
	if err != nil {
		return nil, err
	}
	if fields.IsEmpty() {
		fields = catalog.DefaultFields()
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "sync_batch",
		telemetry.WithAttribute("skus", len(skus)),
		telemetry.WithAttribute("fields", fields.String()),
	)
	defer span.End()

	// one cache for the whole batch: each category name is created at most once
	cache := s.preload(ctx, set, fields)

	outcomes := make([]SyncOutcome, 0, len(skus))
	succeeded := 0
	for _, sku := range skus {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, failedOutcome(sku, set, err))
			continue
		}
		results, err := s.syncProduct(ctx, sku, set, fields, cache)
		if err != nil {
			if !isNotFound(err) {
				s.logger.Warn("Batch sku failed", zap.String("sku", sku), zap.Error(err))
			}
			outcomes = append(outcomes, failedOutcome(sku, set, err))
			continue
		}
		outcome := newSyncOutcome(sku, results)
		if outcome.FullySucceeded {
			succeeded++
		}
		outcomes = append(outcomes, outcome)
	}

	telemetry.SetAttributes(span, "batch.succeeded", succeeded, "batch.total", len(skus))
	telemetry.SetOK(span)
	s.logger.Info("Sync batch finished",
		zap.Int("skus", len(skus)),
		zap.Int("fully_succeeded", succeeded),
		zap.Bool("cancelled", ctx.Err() != nil),
	)
	return outcomes, nil
}

func failedOutcome(sku string, sites shared.SiteSet, err error) SyncOutcome {
	results := make([]shared.SiteResult, len(sites))
	for i, site := range sites {
		results[i] = shared.SiteErr(site, err)
	}
	return newSyncOutcome(sku, results)
}
