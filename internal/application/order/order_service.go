package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	domain "github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// OrderServiceImpl changes orders on the storefront and mirrors the change
// into the canonical store. The storefront is the system of record: a
// canonical write failure is logged and reported as a warning, the remote
// change is never rolled back.
type OrderServiceImpl struct {
	stores integration.StoreClientProvider
	repo   domain.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService creates a new OrderServiceImpl
func NewOrderService(stores integration.StoreClientProvider, repo domain.Repository, logger *zap.Logger) *OrderServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderServiceImpl{
		stores: stores,
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetOrder returns the canonical copy of an ingested order
func (s *OrderServiceImpl) GetOrder(ctx context.Context, site shared.SiteCode, remoteID int64) (*domain.Order, error) {
	if remoteID <= 0 {
		return nil, domain.ErrOrderInvalidRemoteID
	}
	return s.repo.FindByKey(ctx, site, remoteID)
}

// UpdateOrderStatus sets the status on the storefront, then in the canonical store
func (s *OrderServiceImpl) UpdateOrderStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string) (*StatusUpdate, error) {
	status = strings.TrimSpace(status)
	if !domain.IsKnownStatus(status) {
		return nil, domain.ErrOrderInvalidStatus
	}
	if remoteID <= 0 {
		return nil, domain.ErrOrderInvalidRemoteID
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update_status",
		telemetry.WithAttribute("site", site.String()),
		telemetry.WithAttribute("order.id", remoteID),
		telemetry.WithAttribute("order.status", status),
	)
	defer span.End()

	client, err := s.stores.Client(site)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	remote, err := client.UpdateOrderStatus(ctx, remoteID, status)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := &StatusUpdate{Site: site, RemoteID: remoteID, Status: status}

	modifiedAt := s.now()
	if t := remote.DateModified.Ptr(); t != nil {
		modifiedAt = *t
	}
	err = s.repo.UpdateStatus(ctx, site, remoteID, status, modifiedAt)
	if errors.Is(err, domain.ErrOrderNotFound) {
		// not ingested yet: store the snapshot returned by the storefront
		_, err = s.repo.UpsertBatch(ctx, []*domain.Order{FromRemote(site, *remote, s.now())})
	}
	if err != nil {
		s.logger.Error("Order status changed remotely but canonical update failed",
			zap.String("site", site.String()),
			zap.Int64("order_id", remoteID),
			zap.String("status", status),
			zap.Error(err),
		)
		out.Warning = "canonical store not updated: " + err.Error()
	}

	telemetry.SetOK(span)
	return out, nil
}

// AddOrderNote appends a note on the storefront, then counts it in the canonical store
func (s *OrderServiceImpl) AddOrderNote(ctx context.Context, site shared.SiteCode, remoteID int64, note string, customerNote bool) (*NoteAdded, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, domain.ErrOrderEmptyNote
	}
	if remoteID <= 0 {
		return nil, domain.ErrOrderInvalidRemoteID
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "order", "add_note",
		telemetry.WithAttribute("site", site.String()),
		telemetry.WithAttribute("order.id", remoteID),
	)
	defer span.End()

	client, err := s.stores.Client(site)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	created, err := client.AddOrderNote(ctx, remoteID, note, customerNote)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := &NoteAdded{Site: site, RemoteID: remoteID, NoteID: created.ID}
	if err := s.repo.IncrementNotes(ctx, site, remoteID); err != nil {
		s.logger.Warn("Order note added remotely but canonical update failed",
			zap.String("site", site.String()),
			zap.Int64("order_id", remoteID),
			zap.Error(err),
		)
		out.Warning = "canonical store not updated: " + err.Error()
	}

	telemetry.SetOK(span)
	return out, nil
}
