package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// CategoryReconciler maps category names onto remote category ids, creating
// missing categories on the storefront.
//
// The remote listing of a site is fetched once per process and kept current
// with the categories this reconciler creates. It is read again only when a
// create collides with a term it does not hold.
type CategoryReconciler struct {
	stores  integration.StoreClientProvider
	repo    catalog.CategoryRepository
	metrics *telemetry.SyncMetrics
	logger  *zap.Logger

	mu       sync.Mutex
	listings map[shared.SiteCode]map[string]int64
	listing  singleflight.Group
}

// NewCategoryReconciler creates a new CategoryReconciler
func NewCategoryReconciler(
	stores integration.StoreClientProvider,
	repo catalog.CategoryRepository,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *CategoryReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryReconciler{
		stores:   stores,
		repo:     repo,
		metrics:  metrics,
		logger:   logger,
		listings: make(map[shared.SiteCode]map[string]int64),
	}
}

// Preload builds the cache of one top-level operation. Every site shares the
// reference site's taxonomy, so its stored categories seed every requested site.
func (r *CategoryReconciler) Preload(ctx context.Context, sites shared.SiteSet) (*catalog.CategoryCache, error) {
	cache := catalog.NewCategoryCache()
	ref := r.stores.Sites().Reference()
	if ref == "" {
		return cache, nil
	}
	refs, err := r.repo.FindBySite(ctx, ref)
	if err != nil {
		return cache, fmt.Errorf("preload categories of %s: %w", ref, err)
	}
	cache.SeedAll(sites, refs)
	r.logger.Debug("Category cache preloaded",
		zap.String("reference_site", ref.String()),
		zap.Int("categories", len(refs)),
		zap.Int("sites", len(sites)),
	)
	return cache, nil
}

// Resolve returns the remote id of a category name on the site
func (r *CategoryReconciler) Resolve(ctx context.Context, cache *catalog.CategoryCache, site shared.SiteCode, name string) (int64, error) {
	return cache.Resolve(ctx, site, name, r.findOrCreate)
}

// ResolveAll resolves every name. A name that cannot be resolved is skipped
// and reported as a warning; the error never fails the caller.
func (r *CategoryReconciler) ResolveAll(ctx context.Context, cache *catalog.CategoryCache, site shared.SiteCode, names []string) ([]integration.RemoteCategoryRef, []string) {
	refs := make([]integration.RemoteCategoryRef, 0, len(names))
	seen := make(map[int64]struct{}, len(names))
	var warnings []string

	for _, name := range names {
		if catalog.FoldName(name) == "" {
			continue
		}
		id, err := r.Resolve(ctx, cache, site, name)
		if err != nil {
			r.logger.Warn("Skipping unresolved category",
				zap.String("site", site.String()),
				zap.String("category", name),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("category %q skipped: %v", name, err))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, integration.RemoteCategoryRef{ID: id})
	}
	return refs, warnings
}

// findOrCreate matches the name against the remote listing, else creates it
func (r *CategoryReconciler) findOrCreate(ctx context.Context, site shared.SiteCode, name string) (int64, error) {
	client, err := r.stores.Client(site)
	if err != nil {
		return 0, err
	}
	listing, err := r.remoteListing(ctx, client)
	if err != nil {
		return 0, err
	}

	key := catalog.FoldName(name)
	r.mu.Lock()
	id, found := listing[key]
	r.mu.Unlock()

	if !found {
		created, err := client.CreateCategory(ctx, name)
		var exists *integration.CategoryExistsError
		switch {
		case errors.As(err, &exists):
			if id, err = r.existingCategory(ctx, client, name, exists); err != nil {
				return 0, err
			}
		case err != nil:
			return 0, fmt.Errorf("create category %q on %s: %w", name, site, err)
		default:
			id = created.ID
			r.metrics.RecordCategoryCreated(ctx, site)
			r.logger.Info("Category created",
				zap.String("site", site.String()),
				zap.String("category", name),
				zap.Int64("remote_id", id),
			)
		}
		r.mu.Lock()
		if current, ok := r.listings[site]; ok {
			current[key] = id
		}
		r.mu.Unlock()
	}

	if site == r.stores.Sites().Reference() {
		if err := r.repo.Upsert(ctx, site, catalog.CategoryRef{Name: name, RemoteID: id}); err != nil {
			r.logger.Warn("Persisting category failed",
				zap.String("site", site.String()),
				zap.String("category", name),
				zap.Error(err),
			)
		}
	}
	return id, nil
}

// existingCategory resolves a create that collided with a term the memoized
// listing does not hold. Without an id from the storefront the listing is
// dropped and read again.
func (r *CategoryReconciler) existingCategory(ctx context.Context, client integration.StoreClient, name string, exists *integration.CategoryExistsError) (int64, error) {
	site := client.Site()
	r.logger.Info("Category already exists on the storefront",
		zap.String("site", site.String()),
		zap.String("category", name),
		zap.Int64("remote_id", exists.ID),
	)
	if exists.ID > 0 {
		return exists.ID, nil
	}

	r.mu.Lock()
	delete(r.listings, site)
	r.mu.Unlock()
	listing, err := r.remoteListing(ctx, client)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	id, ok := listing[catalog.FoldName(name)]
	r.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("create category %q on %s: %w", name, site, exists)
	}
	return id, nil
}

// remoteListing returns the memoized folded-name index of the site's categories.
// A failed listing is not memoized.
func (r *CategoryReconciler) remoteListing(ctx context.Context, client integration.StoreClient) (map[string]int64, error) {
	site := client.Site()
	r.mu.Lock()
	listing, ok := r.listings[site]
	r.mu.Unlock()
	if ok {
		return listing, nil
	}

	v, err, _ := r.listing.Do(site.String(), func() (any, error) {
		r.mu.Lock()
		if existing, ok := r.listings[site]; ok {
			r.mu.Unlock()
			return existing, nil
		}
		r.mu.Unlock()

		cats, page, err := client.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories of %s: %w", site, err)
		}
		index := make(map[string]int64, len(cats))
		for _, c := range cats {
			if k := catalog.FoldName(c.Name); k != "" {
				if _, dup := index[k]; !dup {
					index[k] = c.ID
				}
			}
		}
		if page.Truncated {
			r.logger.Warn("Category listing truncated", zap.String("site", site.String()), zap.Int("pages", page.Pages))
		}

		r.mu.Lock()
		r.listings[site] = index
		r.mu.Unlock()
		return index, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]int64), nil
}
