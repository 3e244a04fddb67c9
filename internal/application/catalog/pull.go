package catalog

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// PullProducts reads each sku from the site and merges the site's sub-keys
// into the canonical record. The reference site also refreshes the shared
// fields. Concurrent pulls of one sku may overwrite each other's merge; the
// next pull repairs it.
func (s *ProductSyncServiceImpl) PullProducts(ctx context.Context, skus []string, site shared.SiteCode) ([]PullOutcome, error) {
	if len(skus) == 0 {
		return nil, ErrNoSKUs
	}
	client, err := s.stores.Client(site)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "pull_products",
		telemetry.WithAttribute("site", site.String()),
		telemetry.WithAttribute("skus", len(skus)),
	)
	defer span.End()
	ctx, log := logger.WithSite(ctx, s.logger, site.String())

	known, err := s.knownProducts(ctx, skus)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ref := s.stores.Sites().Reference()
	outcomes := make([]PullOutcome, 0, len(skus))
	siteResults := make([]shared.SiteResult, 0, len(skus))
	for _, sku := range skus {
		if ctx.Err() != nil {
			outcomes = append(outcomes, PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](ctx.Err())})
			continue
		}
		out := s.pullOne(ctx, client, known[sku], sku, site, ref)
		outcomes = append(outcomes, out)
		if f := out.Result.Failure(); f != nil {
			siteResults = append(siteResults, shared.SiteResult{Site: site, Result: shared.Err[shared.Unit](f.Kind, f.Message)})
		} else {
			siteResults = append(siteResults, shared.SiteOk(site))
		}
	}

	s.metrics.RecordSiteResults(ctx, "pull", siteResults)
	s.publish(ctx, integration.EventProductPulled, "", site, nil)
	telemetry.SetOK(span)
	log.Info("Products pulled", zap.Int("skus", len(skus)))
	return outcomes, nil
}

func (s *ProductSyncServiceImpl) pullOne(ctx context.Context, client integration.StoreClient, p *catalog.Product, sku string, site, ref shared.SiteCode) PullOutcome {
	if p == nil {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](catalog.ErrProductNotFound)}
	}
	remoteID, ok := p.RemoteID(site)
	if !ok {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](catalog.ErrNotPublished)}
	}

	rp, err := client.GetProduct(ctx, remoteID)
	if err != nil {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](err)}
	}
	var vs []integration.RemoteVariation
	if rp.IsVariable() {
		if vs, err = client.ListVariations(ctx, remoteID); err != nil {
			return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](err)}
		}
	}

	patch := PatchFromRemote(sku, site, ref, rp, vs, s.now())
	if err := s.products.Upsert(ctx, patch); err != nil {
		logger.FromContext(ctx).Error("Pull merge failed", zap.String("sku", sku), zap.Error(err))
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](asStoreError(err))}
	}
	return PullOutcome{SKU: sku, Result: shared.Ok(PulledProduct{
		RemoteID:   remoteID,
		Type:       rp.Type,
		Variations: len(vs),
	})}
}

// PullBatch refreshes many skus from one site. Variants mode refreshes only
// the variation snapshots with a bounded worker pool; full mode delegates to
// PullProducts. Outcomes keep the input order.
func (s *ProductSyncServiceImpl) PullBatch(ctx context.Context, skus []string, site shared.SiteCode, mode PullMode) ([]PullOutcome, error) {
	switch mode {
	case PullModeFull:
		return s.PullProducts(ctx, skus, site)
	case PullModeVariants, "":
	default:
		return nil, ErrInvalidPullMode
	}
	if len(skus) == 0 {
		return nil, ErrNoSKUs
	}
	client, err := s.stores.Client(site)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "pull_variants",
		telemetry.WithAttribute("site", site.String()),
		telemetry.WithAttribute("skus", len(skus)),
	)
	defer span.End()

	known, err := s.knownProducts(ctx, skus)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outcomes := make([]PullOutcome, len(skus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pullConcurrency)
	for i, sku := range skus {
		g.Go(func() error {
			outcomes[i] = s.pullVariants(gctx, client, known[sku], sku, site)
			return nil
		})
	}
	_ = g.Wait()

	telemetry.SetOK(span)
	s.logger.Info("Variant snapshots refreshed",
		zap.String("site", site.String()),
		zap.Int("skus", len(skus)),
		zap.Int("workers", s.pullConcurrency),
	)
	return outcomes, nil
}

func (s *ProductSyncServiceImpl) pullVariants(ctx context.Context, client integration.StoreClient, p *catalog.Product, sku string, site shared.SiteCode) PullOutcome {
	if p == nil {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](catalog.ErrProductNotFound)}
	}
	remoteID, ok := p.RemoteID(site)
	if !ok {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](catalog.ErrNotPublished)}
	}
	vs, err := client.ListVariations(ctx, remoteID)
	if err != nil {
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](err)}
	}

	patch := catalog.Patch(sku)
	patch.SetVariations(site, Snapshots(vs))
	if err := s.products.Upsert(ctx, patch); err != nil {
		s.logger.Error("Variant snapshot merge failed", zap.String("sku", sku), zap.String("site", site.String()), zap.Error(err))
		return PullOutcome{SKU: sku, Result: shared.FromError[PulledProduct](asStoreError(err))}
	}
	return PullOutcome{SKU: sku, Result: shared.Ok(PulledProduct{RemoteID: remoteID, Variations: len(vs)})}
}

func (s *ProductSyncServiceImpl) knownProducts(ctx context.Context, skus []string) (map[string]*catalog.Product, error) {
	list, err := s.products.GetManyBySKU(ctx, skus)
	if err != nil {
		return nil, err
	}
	known := make(map[string]*catalog.Product, len(list))
	for _, p := range list {
		known[p.SKU] = p
	}
	return known, nil
}
