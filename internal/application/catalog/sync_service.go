package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// DefaultPullConcurrency bounds the variant-only batch pull
const DefaultPullConcurrency = 8

// ProductSyncServiceImpl pushes canonical products to the storefronts and
// pulls storefront state back into the canonical store
type ProductSyncServiceImpl struct {
	stores     integration.StoreClientProvider
	products   catalog.ProductRepository
	categories *CategoryReconciler
	variants   *VariantManager
	images     integration.ImageCleaner
	publisher  integration.EventPublisher
	metrics    *telemetry.SyncMetrics
	logger     *zap.Logger

	pullConcurrency int
	skuSource       io.Reader
	now             func() time.Time
}

// ProductSyncOption configures a ProductSyncServiceImpl
type ProductSyncOption func(*ProductSyncServiceImpl)

// WithImageCleaner sets the capability that purges media before images are re-attached
func WithImageCleaner(c integration.ImageCleaner) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		s.images = c
	}
}

// WithEventPublisher publishes a sync event after every operation
func WithEventPublisher(p integration.EventPublisher) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		s.publisher = p
	}
}

// WithSyncMetrics records per-site outcome counters
func WithSyncMetrics(m *telemetry.SyncMetrics) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPullConcurrency bounds the variant-only batch pull
func WithPullConcurrency(n int) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		if n > 0 {
			s.pullConcurrency = n
		}
	}
}

// WithSKUSource replaces the randomness used for new skus
func WithSKUSource(r io.Reader) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		s.skuSource = r
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) ProductSyncOption {
	return func(s *ProductSyncServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// NewProductSyncService creates a new ProductSyncServiceImpl
func NewProductSyncService(
	stores integration.StoreClientProvider,
	products catalog.ProductRepository,
	categories *CategoryReconciler,
	variants *VariantManager,
	opts ...ProductSyncOption,
) *ProductSyncServiceImpl {
	s := &ProductSyncServiceImpl{
		stores:          stores,
		products:        products,
		categories:      categories,
		variants:        variants,
		logger:          zap.NewNop(),
		pullConcurrency: DefaultPullConcurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveSites restricts the request to configured sites; nil or empty means every site
func (s *ProductSyncServiceImpl) resolveSites(requested []shared.SiteCode) (shared.SiteSet, error) {
	configured := s.stores.Sites()
	if len(configured) == 0 {
		return nil, catalog.ErrNoSites
	}
	if len(requested) == 0 {
		return configured, nil
	}
	known, unknown := configured.Restrict(requested)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %v", integration.ErrSiteNotConfigured, unknown)
	}
	return known, nil
}

// SyncProduct pushes the selected fields of one sku to every requested site
// in parallel. Only an unknown sku or invalid input fails the call; per-site
// failures are reported in the results.
func (s *ProductSyncServiceImpl) SyncProduct(ctx context.Context, sku string, sites []shared.SiteCode, fields catalog.FieldSet) ([]shared.SiteResult, error) {
	set, err := s.resolveSites(sites)
	if err != nil {
		return nil, err
	}
	if fields.IsEmpty() {
		fields = catalog.DefaultFields()
	}
	cache := s.preload(ctx, set, fields)
	return s.syncProduct(ctx, sku, set, fields, cache)
}

func (s *ProductSyncServiceImpl) preload(ctx context.Context, sites shared.SiteSet, fields catalog.FieldSet) *catalog.CategoryCache {
	if !fields.Has(catalog.FieldCategories) {
		return catalog.NewCategoryCache()
	}
	cache, err := s.categories.Preload(ctx, sites)
	if err != nil {
		// misses still resolve remotely
		s.logger.Warn("Category preload failed", zap.Error(err))
	}
	return cache
}

func (s *ProductSyncServiceImpl) syncProduct(ctx context.Context, sku string, sites shared.SiteSet, fields catalog.FieldSet, cache *catalog.CategoryCache) ([]shared.SiteResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "sync_product",
		telemetry.WithAttribute("sku", sku),
		telemetry.WithAttribute("fields", fields.String()),
	)
	defer span.End()
	ctx, log := logger.WithSKU(ctx, s.logger, sku)

	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	results := s.fanOut(ctx, sites, func(ctx context.Context, site shared.SiteCode) shared.SiteResult {
		return s.syncSite(ctx, p, site, fields, cache)
	})

	s.metrics.RecordSiteResults(ctx, "sync", results)
	s.publish(ctx, integration.EventProductSynced, sku, "", results)
	telemetry.SetAttribute(span, "sync.fully_succeeded", shared.AllSucceeded(results))
	telemetry.SetOK(span)
	log.Info("Product synced",
		zap.Strings("sites", sites.Strings()),
		zap.Bool("fully_succeeded", shared.AllSucceeded(results)),
	)
	return results, nil
}

// fanOut runs fn for every site in parallel. A panic inside fn becomes an
// internal failure of that site only. Results keep the site order.
func (s *ProductSyncServiceImpl) fanOut(ctx context.Context, sites shared.SiteSet, fn func(context.Context, shared.SiteCode) shared.SiteResult) []shared.SiteResult {
	results := make([]shared.SiteResult, len(sites))
	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		go func(i int, site shared.SiteCode) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Site operation panicked",
						zap.String("site", site.String()),
						zap.Any("panic", r),
						zap.Stack("stacktrace"),
					)
					results[i] = shared.SiteResult{
						Site:   site,
						Result: shared.Err[shared.Unit](shared.ErrorKindInternal, fmt.Sprintf("panic: %v", r)),
					}
				}
			}()
			siteCtx, _ := logger.WithSite(ctx, logger.FromContext(ctx), site.String())
			results[i] = fn(siteCtx, site)
		}(i, site)
	}
	wg.Wait()
	return results
}

// syncSite pushes one product to one site
func (s *ProductSyncServiceImpl) syncSite(ctx context.Context, p *catalog.Product, site shared.SiteCode, fields catalog.FieldSet, cache *catalog.CategoryCache) shared.SiteResult {
	remoteID, ok := p.RemoteID(site)
	if !ok {
		return shared.SiteErr(site, catalog.ErrNotPublished)
	}
	client, err := s.stores.Client(site)
	if err != nil {
		return shared.SiteErr(site, err)
	}
	log := logger.FromContext(ctx)
	ref := s.stores.Sites().Reference()

	var warnings []string
	payload := integration.ProductPayload{}
	content := p.ContentFor(site, ref)

	if fields.Has(catalog.FieldName) {
		payload.Name = &content.Name
	}
	if fields.Has(catalog.FieldDescription) {
		payload.Description = &content.Description
		payload.ShortDescription = &content.ShortDescription
	}
	if fields.Has(catalog.FieldCategories) && len(p.Categories) > 0 {
		refs, warns := s.categories.ResolveAll(ctx, cache, site, p.Categories)
		warnings = append(warnings, warns...)
		if len(refs) > 0 {
			payload.Categories = refs
		}
	}
	if fields.Has(catalog.FieldStatus) {
		payload.Status = string(p.StatusFor(site, ref))
	}
	if fields.Has(catalog.FieldStock) {
		manage := true
		qty := p.StockQuantityFor(site, ref)
		payload.ManageStock = &manage
		payload.StockQuantity = &qty
		payload.StockStatus = string(p.StockStatusFor(site, ref))
	}

	// Sized products keep prices on their variants. A simple remote is
	// converted once prices are pushed; stock stays on the parent.
	var variantWork variantSync
	if fields.Has(catalog.FieldPrices) || fields.Has(catalog.FieldStock) {
		remote, err := client.GetProduct(ctx, remoteID)
		if err != nil {
			return shared.SiteErr(site, err)
		}
		sized := len(p.Sizes()) > 0
		switch {
		case sized && remote.IsVariable() && fields.Has(catalog.FieldPrices):
			variantWork = variantSyncPrices
		case sized && remote.IsVariable():
			variantWork = variantSyncStock
		case sized && fields.Has(catalog.FieldPrices):
			variantWork = variantSyncConvert
		case fields.Has(catalog.FieldPrices):
			payload.RegularPrice, payload.SalePrice = PricesFor(p, site, ref).Fields()
		}
	}

	if fields.Has(catalog.FieldImages) {
		if s.images != nil {
			report, err := s.images.CleanupImages(ctx, site, remoteID)
			if err != nil || !report.Success {
				log.Warn("Image cleanup incomplete", zap.Strings("details", report.Details), zap.Error(err))
				warnings = append(warnings, fmt.Sprintf("image cleanup incomplete: %v", cleanupMessage(report, err)))
			}
		}
		payload.Images = remoteImages(p.Images)
	}

	if !payload.IsEmpty() {
		if _, err := client.UpdateProduct(ctx, remoteID, payload); err != nil {
			log.Warn("Product update failed", zap.Int64("remote_id", remoteID), zap.Error(err))
			return shared.SiteErr(site, err)
		}
	}

	patch := catalog.Patch(p.SKU)
	if variantWork != variantSyncNone {
		snapshots, err := s.syncVariants(ctx, variantWork, site, remoteID, p)
		if err != nil {
			log.Warn("Variant sync failed", zap.Int64("remote_id", remoteID), zap.Error(err))
			return shared.SiteErr(site, err)
		}
		if len(snapshots) > 0 {
			patch.SetVariations(site, snapshots)
		}
	}

	patch.MarkSynced(site, s.now())
	if err := s.products.Upsert(ctx, patch); err != nil {
		log.Error("Remote push succeeded but canonical update failed", zap.Error(err))
		warnings = append(warnings, asStoreError(err).Error())
	}
	return shared.SiteOk(site, warnings...)
}

type variantSync int

const (
	variantSyncNone variantSync = iota
	variantSyncPrices
	variantSyncStock
	variantSyncConvert
)

func (s *ProductSyncServiceImpl) syncVariants(ctx context.Context, work variantSync, site shared.SiteCode, remoteID int64, p *catalog.Product) ([]catalog.VariationSnapshot, error) {
	switch work {
	case variantSyncPrices:
		return s.variants.SyncPrices(ctx, site, remoteID, p)
	case variantSyncStock:
		return s.variants.ReleaseStock(ctx, site, remoteID)
	case variantSyncConvert:
		prices := PricesFor(p, site, s.stores.Sites().Reference())
		_, snapshots, err := s.variants.EnsureVariable(ctx, site, remoteID, p.Sizes(), prices)
		return snapshots, err
	}
	return nil, nil
}

func cleanupMessage(report integration.CleanupReport, err error) string {
	if err != nil {
		return err.Error()
	}
	if len(report.Details) > 0 {
		return report.Details[0]
	}
	return "unknown"
}

func (s *ProductSyncServiceImpl) publish(ctx context.Context, t integration.SyncEventType, sku string, site shared.SiteCode, results []shared.SiteResult) {
	if s.publisher == nil {
		return
	}
	event := integration.NewSyncEvent(t, sku, site)
	event.Results = results
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Publishing sync event failed",
			zap.String("type", string(t)),
			zap.String("sku", sku),
			zap.Error(err),
		)
	}
}

// isNotFound reports whether err means the sku is unknown
func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound)
}
