package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// memProductRepo is an in-memory catalog.ProductRepository with merge semantics
type memProductRepo struct {
	mu       sync.Mutex
	rows     map[string]*catalog.Product
	upserts  int
	batches  [][]string
	upsertFn func(p *catalog.Product) error
	saveErr  error
	delErr   error
	cleared  []shared.SiteCode
}

func newMemProductRepo(ps ...*catalog.Product) *memProductRepo {
	r := &memProductRepo{rows: make(map[string]*catalog.Product)}
	for _, p := range ps {
		r.rows[p.SKU] = clone(p)
	}
	return r
}

func clone(p *catalog.Product) *catalog.Product {
	c := catalog.Patch(p.SKU)
	c.MergeFrom(p)
	c.CreatedAt = p.CreatedAt
	c.LastSyncedAt = p.LastSyncedAt
	return c
}

func (r *memProductRepo) GetBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[sku]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return clone(p), nil
}

func (r *memProductRepo) GetManyBySKU(_ context.Context, skus []string) ([]*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*catalog.Product
	for _, sku := range skus {
		if p, ok := r.rows[sku]; ok {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *memProductRepo) Upsert(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertFn != nil {
		if err := r.upsertFn(p); err != nil {
			return err
		}
	}
	r.merge(p)
	return nil
}

func (r *memProductRepo) merge(p *catalog.Product) {
	if existing, ok := r.rows[p.SKU]; ok {
		existing.MergeFrom(p)
		return
	}
	r.rows[p.SKU] = clone(p)
}

func (r *memProductRepo) UpsertMany(_ context.Context, ps []*catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	skus := make([]string, len(ps))
	for i, p := range ps {
		skus[i] = p.SKU
		if r.upsertFn != nil {
			if err := r.upsertFn(p); err != nil {
				return err
			}
		}
	}
	r.batches = append(r.batches, skus)
	for _, p := range ps {
		r.merge(p)
	}
	return nil
}

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.rows[p.SKU] = clone(p)
	return nil
}

func (r *memProductRepo) ClearSites(_ context.Context, sku string, sites []shared.SiteCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	p, ok := r.rows[sku]
	if !ok {
		return catalog.ErrProductNotFound
	}
	for _, site := range sites {
		p.ClearSite(site)
	}
	r.cleared = append(r.cleared, sites...)
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, sku string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delErr != nil {
		return r.delErr
	}
	delete(r.rows, sku)
	return nil
}

func (r *memProductRepo) get(sku string) *catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[sku]
}

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindBySite(ctx context.Context, site shared.SiteCode) ([]catalog.CategoryRef, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.CategoryRef), args.Error(1)
}

func (m *MockCategoryRepository) Upsert(ctx context.Context, site shared.SiteCode, ref catalog.CategoryRef) error {
	args := m.Called(ctx, site, ref)
	return args.Error(0)
}

// memProgressRepo is an in-memory catalog.SyncProgressRepository
type memProgressRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]catalog.SyncProgress
	cancelled map[uuid.UUID]bool
	updates   int
	// cancelAfter flags the pull as cancelled once IsCancelled was read n times
	cancelAfter int
	reads       int
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{
		rows:      make(map[uuid.UUID]catalog.SyncProgress),
		cancelled: make(map[uuid.UUID]bool),
	}
}

func (r *memProgressRepo) Create(_ context.Context, p *catalog.SyncProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *memProgressRepo) Update(_ context.Context, p *catalog.SyncProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.rows[p.ID] = *p
	return nil
}

func (r *memProgressRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.SyncProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, catalog.ErrProgressNotFound
	}
	return &p, nil
}

func (r *memProgressRepo) FindLatest(_ context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []catalog.SyncProgress
	for _, p := range r.rows {
		if p.Site == site {
			all = append(all, p)
		}
	}
	if len(all) == 0 {
		return nil, catalog.ErrProgressNotFound
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	return &all[0], nil
}

func (r *memProgressRepo) IsCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.cancelAfter > 0 && r.reads > r.cancelAfter {
		r.cancelled[id] = true
	}
	return r.cancelled[id], nil
}

func (r *memProgressRepo) Cancel(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.Status != catalog.ProgressRunning {
		return catalog.ErrProgressNotFound
	}
	r.cancelled[id] = true
	return nil
}

// ---------------------------------------------------------------------------
// Storefront fakes
// ---------------------------------------------------------------------------

// fakeStore is an in-memory storefront. Order methods are not implemented
// and panic through the nil embedded interface.
type fakeStore struct {
	integration.StoreClient
	site shared.SiteCode

	mu         sync.Mutex
	products   map[int64]*integration.RemoteProduct
	variations map[int64][]integration.RemoteVariation
	categories []integration.RemoteCategory
	listing    []integration.RemoteProduct
	nextID     int64

	getErr       error
	createErr    error
	updateErr    error
	deleteErr    error
	onDelete     func(id int64)
	listVarErr   error
	listVarErrOn map[int64]error
	batchErr     error
	listCatErr   error
	createCatErr error
	pingErr      error
	panicUpdate  bool

	creates       []integration.ProductPayload
	updates       []integration.ProductPayload
	batches       []integration.VariationBatch
	deleted       []int64
	listCatCalls  int
	createdCats   []string
	listVarCalls  int
	listProductsQ []integration.ProductListQuery
}

func newFakeStore(site shared.SiteCode) *fakeStore {
	return &fakeStore{
		site:       site,
		products:   make(map[int64]*integration.RemoteProduct),
		variations: make(map[int64][]integration.RemoteVariation),
		nextID:     1000,
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Site() shared.SiteCode { return f.site }

func (f *fakeStore) GetProduct(_ context.Context, id int64) (*integration.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, integration.ErrRemoteNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p integration.ProductPayload) (*integration.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	if f.createErr != nil {
		return nil, f.createErr
	}
	rp := &integration.RemoteProduct{ID: f.id(), SKU: p.SKU, Type: p.Type, Status: p.Status}
	if p.Name != nil {
		rp.Name = *p.Name
	}
	f.products[rp.ID] = rp
	return rp, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id int64, p integration.ProductPayload) (*integration.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicUpdate {
		panic("storefront exploded")
	}
	f.updates = append(f.updates, p)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	rp, ok := f.products[id]
	if !ok {
		return nil, integration.ErrRemoteNotFound
	}
	if p.Type != "" {
		rp.Type = p.Type
	}
	if p.Attributes != nil {
		rp.Attributes = p.Attributes
	}
	cp := *rp
	return &cp, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onDelete != nil {
		f.onDelete(id)
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.products, id)
	return nil
}

func (f *fakeStore) ListProducts(_ context.Context, q integration.ProductListQuery) ([]integration.RemoteProduct, integration.PageReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listProductsQ = append(f.listProductsQ, q)
	return f.listing, integration.PageReport{Pages: 1, Items: len(f.listing)}, nil
}

func (f *fakeStore) ListVariations(_ context.Context, productID int64) ([]integration.RemoteVariation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listVarCalls++
	if err := f.listVarErrOn[productID]; err != nil {
		return nil, err
	}
	if f.listVarErr != nil {
		return nil, f.listVarErr
	}
	return append([]integration.RemoteVariation(nil), f.variations[productID]...), nil
}

func (f *fakeStore) BatchVariations(_ context.Context, productID int64, batch integration.VariationBatch) (*integration.VariationBatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	res := &integration.VariationBatchResult{}

	if len(batch.Delete) > 0 {
		drop := make(map[int64]bool, len(batch.Delete))
		for _, id := range batch.Delete {
			drop[id] = true
		}
		var kept []integration.RemoteVariation
		for _, v := range f.variations[productID] {
			if drop[v.ID] {
				res.Delete = append(res.Delete, v)
				continue
			}
			kept = append(kept, v)
		}
		f.variations[productID] = kept
	}
	for _, u := range batch.Update {
		for i, v := range f.variations[productID] {
			if v.ID != u.ID {
				continue
			}
			if u.RegularPrice != nil {
				v.RegularPrice = integration.Money(*u.RegularPrice)
			}
			if u.SalePrice != nil {
				v.SalePrice = integration.Money(*u.SalePrice)
			}
			v.ManageStock = integration.FlexBool(u.ManageStock)
			f.variations[productID][i] = v
			res.Update = append(res.Update, v)
		}
	}
	for _, c := range batch.Create {
		v := integration.RemoteVariation{
			ID:          f.id(),
			SKU:         c.SKU,
			StockStatus: c.StockStatus,
			ManageStock: integration.FlexBool(c.ManageStock),
			Attributes:  c.Attributes,
		}
		if c.RegularPrice != nil {
			v.RegularPrice = integration.Money(*c.RegularPrice)
		}
		if c.SalePrice != nil {
			v.SalePrice = integration.Money(*c.SalePrice)
		}
		f.variations[productID] = append(f.variations[productID], v)
		res.Create = append(res.Create, v)
	}
	return res, nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]integration.RemoteCategory, integration.PageReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCatCalls++
	if f.listCatErr != nil {
		return nil, integration.PageReport{}, f.listCatErr
	}
	return append([]integration.RemoteCategory(nil), f.categories...), integration.PageReport{Pages: 1}, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, name string) (*integration.RemoteCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCatErr != nil {
		return nil, f.createCatErr
	}
	c := integration.RemoteCategory{ID: f.id(), Name: name}
	f.categories = append(f.categories, c)
	f.createdCats = append(f.createdCats, name)
	return &c, nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return f.pingErr
}

// addProduct registers a remote product and returns its id
func (f *fakeStore) addProduct(rp integration.RemoteProduct, vs ...integration.RemoteVariation) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rp.ID == 0 {
		rp.ID = f.id()
	}
	f.products[rp.ID] = &rp
	if len(vs) > 0 {
		f.variations[rp.ID] = vs
	}
	return rp.ID
}

// fakeProvider serves fakeStores by site; the first store is the reference site
type fakeProvider struct {
	sites  shared.SiteSet
	stores map[shared.SiteCode]*fakeStore
}

func newFakeProvider(stores ...*fakeStore) *fakeProvider {
	p := &fakeProvider{stores: make(map[shared.SiteCode]*fakeStore)}
	for _, s := range stores {
		p.sites = append(p.sites, s.site)
		p.stores[s.site] = s
	}
	return p
}

func (p *fakeProvider) Client(site shared.SiteCode) (integration.StoreClient, error) {
	s, ok := p.stores[site]
	if !ok {
		return nil, integration.ErrSiteNotConfigured
	}
	return s, nil
}

func (p *fakeProvider) Sites() shared.SiteSet { return p.sites }

// MockImageCleaner is a mock implementation of integration.ImageCleaner
type MockImageCleaner struct {
	mock.Mock
}

func (m *MockImageCleaner) CleanupImages(ctx context.Context, site shared.SiteCode, remoteID int64) (integration.CleanupReport, error) {
	args := m.Called(ctx, site, remoteID)
	return args.Get(0).(integration.CleanupReport), args.Error(1)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []integration.SyncEvent
}

func (r *recordingPublisher) Publish(_ context.Context, events ...integration.SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []integration.SyncEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.SyncEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// emptyCategories returns a category repo with nothing stored
func emptyCategories() *MockCategoryRepository {
	repo := new(MockCategoryRepository)
	repo.On("FindBySite", mock.Anything, mock.Anything).Return([]catalog.CategoryRef{}, nil).Maybe()
	repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return repo
}

type harness struct {
	provider *fakeProvider
	products *memProductRepo
	cats     *MockCategoryRepository
	pub      *recordingPublisher
	svc      *ProductSyncServiceImpl
}

func newHarness(products *memProductRepo, stores ...*fakeStore) *harness {
	provider := newFakeProvider(stores...)
	cats := emptyCategories()
	pub := &recordingPublisher{}
	reconciler := NewCategoryReconciler(provider, cats, nil, nil)
	variants := NewVariantManager(provider, nil)
	svc := NewProductSyncService(provider, products, reconciler, variants, WithEventPublisher(pub))
	return &harness{provider: provider, products: products, cats: cats, pub: pub, svc: svc}
}
