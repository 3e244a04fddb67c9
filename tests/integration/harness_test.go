//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	orderapp "github.com/shopsync/backend/internal/application/order"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/woocommerce"
	"github.com/shopsync/backend/tests/testutil"
)

// syncStack is the sync engine wired against a test database and fake storefronts
type syncStack struct {
	DB        *TestDB
	Fronts    []*testutil.FakeStorefront
	Registry  *woocommerce.Registry
	Events    *testutil.RecordingPublisher
	Products  *persistence.GormProductRepository
	Orders    *persistence.GormOrderRepository
	Progress  *persistence.GormSyncProgressRepository
	Sync      *catalogapp.ProductSyncServiceImpl
	FullPull  *catalogapp.FullPullServiceImpl
	Sites     *catalogapp.SiteServiceImpl
	Sweeper   *orderapp.SweepServiceImpl
	OrderSvc  *orderapp.OrderServiceImpl
}

// newSyncStack starts one fake storefront per site; the first site is the reference
func newSyncStack(t *testing.T, sites ...string) *syncStack {
	t.Helper()

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	fronts := make([]*testutil.FakeStorefront, len(sites))
	configs := make([]woocommerce.SiteConfig, len(sites))
	for i, site := range sites {
		fronts[i] = testutil.NewFakeStorefront(t, shared.SiteCode(site))
		configs[i] = fronts[i].SiteConfig()
	}
	registry, err := woocommerce.NewRegistry(configs, woocommerce.WithRetryPolicy(woocommerce.RetryPolicy{
		MaxAttempts: 2,
		Backoff:     woocommerce.LinearBackoff(time.Millisecond),
	}))
	require.NoError(t, err)

	log := zap.NewNop()
	events := testutil.NewRecordingPublisher()
	products := persistence.NewGormProductRepository(tdb.DB)
	categories := persistence.NewGormCategoryRepository(tdb.DB)
	orders := persistence.NewGormOrderRepository(tdb.DB)
	progress := persistence.NewGormSyncProgressRepository(tdb.DB)

	reconciler := catalogapp.NewCategoryReconciler(registry, categories, nil, log)
	variants := catalogapp.NewVariantManager(registry, log)

	return &syncStack{
		DB:       tdb,
		Fronts:   fronts,
		Registry: registry,
		Events:   events,
		Products: products,
		Orders:   orders,
		Progress: progress,
		Sync: catalogapp.NewProductSyncService(registry, products, reconciler, variants,
			catalogapp.WithEventPublisher(events),
			catalogapp.WithLogger(log),
		),
		FullPull: catalogapp.NewFullPullService(registry, products, progress, catalogapp.FullPullConfig{
			PerPage:          10,
			Workers:          4,
			BatchSize:        7,
			CancelCheckEvery: 5,
		}, events, nil, log),
		Sites:    catalogapp.NewSiteService(registry, log),
		Sweeper: orderapp.NewSweepService(registry, orders,
			orderapp.WithBatchSize(3),
			orderapp.WithSweepLogger(log),
			orderapp.WithSweepPublisher(events),
		),
		OrderSvc: orderapp.NewOrderService(registry, orders, log),
	}
}

// Front returns the storefront of site
func (s *syncStack) Front(site string) *testutil.FakeStorefront {
	for _, f := range s.Fronts {
		if string(f.Site) == site {
			return f
		}
	}
	panic("no storefront for site " + site)
}
