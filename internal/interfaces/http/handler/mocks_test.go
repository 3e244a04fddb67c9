package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	orderapp "github.com/shopsync/backend/internal/application/order"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/scheduler"
)

// MockProductSyncer implements ProductSyncer for testing
type MockProductSyncer struct {
	mock.Mock
}

func (m *MockProductSyncer) SyncProduct(ctx context.Context, sku string, sites []shared.SiteCode, fields catalog.FieldSet) ([]shared.SiteResult, error) {
	args := m.Called(ctx, sku, sites, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shared.SiteResult), args.Error(1)
}

func (m *MockProductSyncer) SyncBatch(ctx context.Context, skus []string, sites []shared.SiteCode, fields catalog.FieldSet) ([]catalogapp.SyncOutcome, error) {
	args := m.Called(ctx, skus, sites, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.SyncOutcome), args.Error(1)
}

func (m *MockProductSyncer) PullProducts(ctx context.Context, skus []string, site shared.SiteCode) ([]catalogapp.PullOutcome, error) {
	args := m.Called(ctx, skus, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.PullOutcome), args.Error(1)
}

func (m *MockProductSyncer) PullBatch(ctx context.Context, skus []string, site shared.SiteCode, mode catalogapp.PullMode) ([]catalogapp.PullOutcome, error) {
	args := m.Called(ctx, skus, site, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.PullOutcome), args.Error(1)
}

func (m *MockProductSyncer) DeleteProduct(ctx context.Context, sku string, sites []shared.SiteCode, deleteLocal bool) (*catalogapp.DeleteResult, error) {
	args := m.Called(ctx, sku, sites, deleteLocal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.DeleteResult), args.Error(1)
}

func (m *MockProductSyncer) PublishProduct(ctx context.Context, sites []shared.SiteCode, draft catalogapp.ProductDraft) (*catalogapp.PublishResult, error) {
	args := m.Called(ctx, sites, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.PublishResult), args.Error(1)
}

func (m *MockProductSyncer) RebuildVariants(ctx context.Context, sku string, site shared.SiteCode, confirm bool) (*catalogapp.RebuildResult, error) {
	args := m.Called(ctx, sku, site, confirm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.RebuildResult), args.Error(1)
}

// MockFullPuller implements FullPuller for testing
type MockFullPuller struct {
	mock.Mock
}

func (m *MockFullPuller) progress(args mock.Arguments) (*catalog.SyncProgress, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.SyncProgress), args.Error(1)
}

func (m *MockFullPuller) Start(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	return m.progress(m.Called(ctx, site))
}

func (m *MockFullPuller) Progress(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	return m.progress(m.Called(ctx, site))
}

func (m *MockFullPuller) Cancel(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	return m.progress(m.Called(ctx, site))
}

// MockSitePinger implements SitePinger for testing
type MockSitePinger struct {
	mock.Mock
}

func (m *MockSitePinger) Ping(ctx context.Context, site shared.SiteCode) (*catalogapp.PingResult, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.PingResult), args.Error(1)
}

func (m *MockSitePinger) PingAll(ctx context.Context) []catalogapp.PingResult {
	args := m.Called(ctx)
	return args.Get(0).([]catalogapp.PingResult)
}

// MockOrderService implements OrderSyncer and OrderUpdater for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) SyncOrders(ctx context.Context, req orderapp.SyncOrdersRequest) (*orderapp.SyncOrdersResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.SyncOrdersResult), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string) (*orderapp.StatusUpdate, error) {
	args := m.Called(ctx, site, remoteID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.StatusUpdate), args.Error(1)
}

func (m *MockOrderService) AddOrderNote(ctx context.Context, site shared.SiteCode, remoteID int64, note string, customerNote bool) (*orderapp.NoteAdded, error) {
	args := m.Called(ctx, site, remoteID, note, customerNote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.NoteAdded), args.Error(1)
}

// MockSweepScheduler implements SweepJobs and ManualSweeper for testing
type MockSweepScheduler struct {
	mock.Mock
}

func (m *MockSweepScheduler) GetJobHistory(limit int) []*scheduler.SweepJob {
	return m.Called(limit).Get(0).([]*scheduler.SweepJob)
}

func (m *MockSweepScheduler) GetJobHistoryBySite(site shared.SiteCode, limit int) []*scheduler.SweepJob {
	return m.Called(site, limit).Get(0).([]*scheduler.SweepJob)
}

func (m *MockSweepScheduler) GetJob(id uuid.UUID) (*scheduler.SweepJob, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.SweepJob), args.Error(1)
}

func (m *MockSweepScheduler) TriggerManual(ctx context.Context, site shared.SiteCode, since *time.Time) ([]*scheduler.SweepJob, error) {
	args := m.Called(ctx, site, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scheduler.SweepJob), args.Error(1)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
