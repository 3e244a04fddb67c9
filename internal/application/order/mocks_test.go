package order

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shopsync/backend/internal/domain/integration"
	domain "github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) UpsertBatch(ctx context.Context, orders []*domain.Order) (domain.UpsertResult, error) {
	// copy the slice: the caller reuses its batch buffer
	snapshot := append([]*domain.Order(nil), orders...)
	args := m.Called(ctx, snapshot)
	return args.Get(0).(domain.UpsertResult), args.Error(1)
}

func (m *MockOrderRepository) FindByKey(ctx context.Context, site shared.SiteCode, remoteID int64) (*domain.Order, error) {
	args := m.Called(ctx, site, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string, modifiedAt time.Time) error {
	args := m.Called(ctx, site, remoteID, status, modifiedAt)
	return args.Error(0)
}

func (m *MockOrderRepository) IncrementNotes(ctx context.Context, site shared.SiteCode, remoteID int64) error {
	args := m.Called(ctx, site, remoteID)
	return args.Error(0)
}

func (m *MockOrderRepository) LatestModified(ctx context.Context, site shared.SiteCode) (*time.Time, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// fakeStore implements the order part of integration.StoreClient.
// Calling any other method panics through the nil embedded interface.
type fakeStore struct {
	integration.StoreClient
	site shared.SiteCode

	orders   []integration.RemoteOrder
	page     integration.PageReport
	listErr  error
	queries  []integration.OrderListQuery
	updated  *integration.RemoteOrder
	writeErr error
	note     *integration.RemoteOrderNote
}

func (f *fakeStore) Site() shared.SiteCode { return f.site }

func (f *fakeStore) ListOrders(_ context.Context, q integration.OrderListQuery) ([]integration.RemoteOrder, integration.PageReport, error) {
	f.queries = append(f.queries, q)
	return f.orders, f.page, f.listErr
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int64, status string) (*integration.RemoteOrder, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.updated != nil {
		return f.updated, nil
	}
	return &integration.RemoteOrder{ID: id, Status: status}, nil
}

func (f *fakeStore) AddOrderNote(_ context.Context, _ int64, note string, customerNote bool) (*integration.RemoteOrderNote, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.note != nil {
		return f.note, nil
	}
	return &integration.RemoteOrderNote{ID: 1, Note: note, CustomerNote: customerNote}, nil
}

// fakeProvider serves fakeStores by site
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

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []integration.SyncEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, events ...integration.SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }
