package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// UpsertBatch writes the batch in one statement keyed by (site, remote_order_id).
// The whole batch either applies or fails.
func (r *GormOrderRepository) UpsertBatch(ctx context.Context, orders []*order.Order) (order.UpsertResult, error) {
	if len(orders) == 0 {
		return order.UpsertResult{}, nil
	}

	// the last occurrence of a key wins, matching a newest-first listing
	// that may repeat an order across page boundaries
	index := make(map[order.Key]int, len(orders))
	rows := make([]models.OrderModel, 0, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return order.UpsertResult{Failed: len(orders)}, fmt.Errorf("order %s/%d: %w", o.Site, o.RemoteID, err)
		}
		var m models.OrderModel
		if err := m.FromDomain(o); err != nil {
			return order.UpsertResult{Failed: len(orders)}, err
		}
		if i, dup := index[o.Key()]; dup {
			rows[i] = m
			continue
		}
		index[o.Key()] = len(rows)
		rows = append(rows, m)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site"}, {Name: "remote_order_id"}},
		DoUpdates: clause.AssignmentColumns(models.OrderUpsertColumns),
	}).Create(&rows).Error
	if err != nil {
		return order.UpsertResult{Failed: len(orders)}, err
	}
	return order.UpsertResult{Applied: len(orders)}, nil
}

// FindByKey finds one order
func (r *GormOrderRepository) FindByKey(ctx context.Context, site shared.SiteCode, remoteID int64) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("site = ? AND remote_order_id = ?", site.String(), remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// UpdateStatus changes the stored status
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string, modifiedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("site = ? AND remote_order_id = ?", site.String(), remoteID).
		Updates(map[string]any{
			"status":        status,
			"date_modified": modifiedAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// IncrementNotes bumps the note counter
func (r *GormOrderRepository) IncrementNotes(ctx context.Context, site shared.SiteCode, remoteID int64) error {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("site = ? AND remote_order_id = ?", site.String(), remoteID).
		Updates(map[string]any{
			"note_count": gorm.Expr("note_count + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// LatestModified returns the newest modification date ingested for the site
func (r *GormOrderRepository) LatestModified(ctx context.Context, site shared.SiteCode) (*time.Time, error) {
	var model models.OrderModel
	err := r.db.WithContext(ctx).
		Where("site = ? AND date_modified IS NOT NULL", site.String()).
		Order("date_modified DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.DateModified, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
