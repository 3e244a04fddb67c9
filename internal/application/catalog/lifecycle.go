package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// skuAttempts bounds the retries on a generated sku collision
const skuAttempts = 3

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

// DeleteProduct permanently deletes the product on every requested site in
// parallel. Sites without a remote id are skipped as success. The canonical
// row is removed only when deleteLocal is set and every remote delete
// succeeded; otherwise the succeeded sites are cleared from the per-site maps.
func (s *ProductSyncServiceImpl) DeleteProduct(ctx context.Context, sku string, sites []shared.SiteCode, deleteLocal bool) (*DeleteResult, error) {
	set, err := s.resolveSites(sites)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "delete_product",
		telemetry.WithAttribute("sku", sku),
	)
	defer span.End()
	ctx, log := logger.WithSKU(ctx, s.logger, sku)

	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	results := s.fanOut(ctx, set, func(ctx context.Context, site shared.SiteCode) shared.SiteResult {
		remoteID, ok := p.RemoteID(site)
		if !ok {
			return shared.SiteOk(site, "skipped: not published on this site")
		}
		client, err := s.stores.Client(site)
		if err != nil {
			return shared.SiteErr(site, err)
		}
		if err := client.DeleteProduct(ctx, remoteID); err != nil {
			if errors.Is(err, integration.ErrRemoteNotFound) {
				return shared.SiteOk(site, "already deleted on the storefront")
			}
			return shared.SiteErr(site, err)
		}
		return shared.SiteOk(site)
	})

	result := &DeleteResult{SKU: sku, Results: results}
	if deleteLocal && shared.AllSucceeded(results) {
		if err := s.products.Delete(ctx, sku); err != nil {
			log.Error("Remote deletes succeeded but canonical delete failed", zap.Error(err))
			appendWarning(results, asStoreError(err).Error())
		} else {
			result.LocalDeleted = true
		}
	} else {
		var cleared []shared.SiteCode
		for _, r := range results {
			if r.Success() && p.IsPublishedOn(r.Site) {
				cleared = append(cleared, r.Site)
			}
		}
		if len(cleared) > 0 {
			if err := s.products.ClearSites(ctx, sku, cleared); err != nil {
				log.Error("Remote deletes succeeded but canonical update failed", zap.Error(err))
				appendWarning(results, asStoreError(err).Error())
			}
		}
	}

	s.metrics.RecordSiteResults(ctx, "delete", results)
	s.publish(ctx, integration.EventProductDeleted, sku, "", results)
	telemetry.SetAttribute(span, "delete.local_deleted", result.LocalDeleted)
	telemetry.SetOK(span)
	log.Info("Product deleted",
		zap.Strings("sites", set.Strings()),
		zap.Bool("local_deleted", result.LocalDeleted),
	)
	return result, nil
}

// appendWarning adds a warning to every successful result
func appendWarning(results []shared.SiteResult, warning string) {
	for i := range results {
		if results[i].Success() {
			results[i].Warnings = append(results[i].Warnings, warning)
		}
	}
}

// ---------------------------------------------------------------------------
// Publish
// ---------------------------------------------------------------------------

// PublishProduct generates a sku, stores the canonical product and creates it
// on every requested site in parallel as a variable product with one variant
// per size. Remote ids are recorded for every site on which the product was
// created, even when its variants failed.
func (s *ProductSyncServiceImpl) PublishProduct(ctx context.Context, sites []shared.SiteCode, draft ProductDraft) (*PublishResult, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, ErrDraftNameRequired
	}
	set, err := s.resolveSites(sites)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "product_sync", "publish_product")
	defer span.End()

	p, err := s.newProduct(ctx, set, draft)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, "sku", p.SKU)
	ctx, log := logger.WithSKU(ctx, s.logger, p.SKU)

	cache := catalog.NewCategoryCache()
	if len(p.Categories) > 0 {
		cache = s.preload(ctx, set, catalog.NewFieldSet(catalog.FieldCategories))
	}

	var mu sync.Mutex
	remoteIDs := make(map[shared.SiteCode]int64, len(set))
	results := s.fanOut(ctx, set, func(ctx context.Context, site shared.SiteCode) shared.SiteResult {
		id, res := s.createOnSite(ctx, p, site, cache)
		if id > 0 {
			mu.Lock()
			remoteIDs[site] = id
			mu.Unlock()
		}
		return res
	})

	patch := catalog.Patch(p.SKU)
	for _, r := range results {
		id, ok := remoteIDs[r.Site]
		if !ok {
			continue
		}
		patch.SetRemoteID(r.Site, id)
		if r.Success() {
			patch.MarkSynced(r.Site, s.now())
		} else {
			patch.SyncStatus[r.Site] = catalog.SyncStatusError
		}
	}
	if len(remoteIDs) > 0 {
		if err := s.products.Upsert(ctx, patch); err != nil {
			log.Error("Product created remotely but remote ids were not recorded", zap.Error(err))
			appendWarning(results, asStoreError(err).Error())
		}
	}

	s.metrics.RecordSiteResults(ctx, "publish", results)
	s.publish(ctx, integration.EventProductCreated, p.SKU, "", results)
	telemetry.SetOK(span)
	log.Info("Product published",
		zap.Strings("sites", set.Strings()),
		zap.Int("created", len(remoteIDs)),
	)
	return &PublishResult{SKU: p.SKU, RemoteIDs: remoteIDs, Results: results}, nil
}

// newProduct builds the canonical product of a draft and saves it under a fresh sku
func (s *ProductSyncServiceImpl) newProduct(ctx context.Context, sites shared.SiteSet, draft ProductDraft) (*catalog.Product, error) {
	var sku string
	for attempt := 0; ; attempt++ {
		candidate, err := catalog.GenerateSKU(draft.Attributes, s.skuSource)
		if err != nil {
			return nil, err
		}
		_, err = s.products.GetBySKU(ctx, candidate)
		if isNotFound(err) {
			sku = candidate
			break
		}
		if err != nil {
			return nil, err
		}
		if attempt+1 >= skuAttempts {
			return nil, fmt.Errorf("generate sku: %d collisions in a row", skuAttempts)
		}
	}

	p, err := catalog.NewProduct(sku, draft.Name)
	if err != nil {
		return nil, err
	}
	p.Images = append([]string(nil), draft.Images...)
	p.Categories = append([]string(nil), draft.Categories...)
	p.Attributes = draft.Attributes

	status := draft.Status
	if !status.IsValid() {
		status = catalog.PublishStatusPublish
	}
	for _, site := range sites {
		price, ok := draft.SitePrices[site]
		if !ok {
			price = draft.Price
		}
		regular, ok := draft.SiteRegularPrices[site]
		if !ok {
			regular = draft.RegularPrice
		}
		p.Prices[site] = price
		p.RegularPrices[site] = regular
		if draft.StockQuantity != nil {
			p.StockQuantities[site] = *draft.StockQuantity
		}
		p.Statuses[site] = status
		content, ok := draft.SiteContent[site]
		if !ok {
			content = catalog.Content{
				Name:             draft.Name,
				Description:      draft.Description,
				ShortDescription: draft.ShortDescription,
			}
		}
		p.Content[site] = content
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// createOnSite creates the parent and its variants. The returned id is
// non-zero whenever the parent exists remotely.
func (s *ProductSyncServiceImpl) createOnSite(ctx context.Context, p *catalog.Product, site shared.SiteCode, cache *catalog.CategoryCache) (int64, shared.SiteResult) {
	client, err := s.stores.Client(site)
	if err != nil {
		return 0, shared.SiteErr(site, err)
	}
	ref := s.stores.Sites().Reference()
	content := p.ContentFor(site, ref)
	sizes := p.Sizes()

	manage := true
	qty := p.StockQuantityFor(site, ref)
	payload := integration.ProductPayload{
		Name:             &content.Name,
		Type:             integration.ProductTypeSimple,
		Status:           string(p.StatusFor(site, ref)),
		SKU:              p.SKU,
		Description:      &content.Description,
		ShortDescription: &content.ShortDescription,
		ManageStock:      &manage,
		StockQuantity:    &qty,
		StockStatus:      string(p.StockStatusFor(site, ref)),
		Images:           remoteImages(p.Images),
		Attributes:       descriptiveAttributes(p.Attributes),
	}
	if len(sizes) > 0 {
		payload.Type = integration.ProductTypeVariable
		payload.Attributes = append(payload.Attributes, SizeAttribute(sizes))
	} else {
		payload.RegularPrice, payload.SalePrice = PricesFor(p, site, ref).Fields()
	}

	var warnings []string
	if len(p.Categories) > 0 {
		refs, warns := s.categories.ResolveAll(ctx, cache, site, p.Categories)
		warnings = append(warnings, warns...)
		payload.Categories = refs
	}

	rp, err := client.CreateProduct(ctx, payload)
	if err != nil {
		return 0, shared.SiteErr(site, err)
	}
	if len(sizes) > 0 {
		if _, err := s.variants.create(ctx, client, rp.ID, p.SKU, sizes, PricesFor(p, site, ref)); err != nil {
			logger.FromContext(ctx).Warn("Product created without variants", zap.Int64("remote_id", rp.ID), zap.Error(err))
			return rp.ID, shared.SiteErr(site, err)
		}
	}
	return rp.ID, shared.SiteOk(site, warnings...)
}

// ---------------------------------------------------------------------------
// Variant rebuild
// ---------------------------------------------------------------------------

// RebuildVariants deletes and recreates the variants of the product on one
// site. It refuses to run unless confirm is set.
func (s *ProductSyncServiceImpl) RebuildVariants(ctx context.Context, sku string, site shared.SiteCode, confirm bool) (*RebuildResult, error) {
	if !confirm {
		return nil, ErrRebuildNotConfirmed
	}
	if _, err := s.stores.Client(site); err != nil {
		return nil, err
	}
	p, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	remoteID, ok := p.RemoteID(site)
	if !ok {
		return nil, catalog.ErrNotPublished
	}

	deleted, created, err := s.variants.Rebuild(ctx, site, remoteID, p.Sizes(), p)
	if err != nil {
		return nil, err
	}
	result := &RebuildResult{SKU: sku, Site: site, Deleted: deleted, Created: len(created)}

	patch := catalog.Patch(sku)
	patch.SetVariations(site, Snapshots(created))
	if err := s.products.Upsert(ctx, patch); err != nil {
		s.logger.Error("Variants rebuilt but snapshot was not stored",
			zap.String("sku", sku), zap.String("site", site.String()), zap.Error(err))
		result.Warnings = append(result.Warnings, asStoreError(err).Error())
	}

	s.publish(ctx, integration.EventVariantsRebuilt, sku, site, []shared.SiteResult{shared.SiteOk(site, result.Warnings...)})
	return result, nil
}
