package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncProgressRepository implements catalog.SyncProgressRepository using GORM
type GormSyncProgressRepository struct {
	db *gorm.DB
}

// NewGormSyncProgressRepository creates a new GormSyncProgressRepository
func NewGormSyncProgressRepository(db *gorm.DB) *GormSyncProgressRepository {
	return &GormSyncProgressRepository{db: db}
}

// Create inserts a progress row
func (r *GormSyncProgressRepository) Create(ctx context.Context, p *catalog.SyncProgress) error {
	return r.db.WithContext(ctx).Create(models.SyncProgressModelFromDomain(p)).Error
}

// Update writes the counters and status. A row an operator already moved to
// cancelled keeps that status unless the update is terminal itself.
func (r *GormSyncProgressRepository) Update(ctx context.Context, p *catalog.SyncProgress) error {
	m := models.SyncProgressModelFromDomain(p)
	updates := map[string]any{
		"total":      m.Total,
		"current":    m.Current,
		"success":    m.Success,
		"failed":     m.Failed,
		"skipped":    m.Skipped,
		"message":    m.Message,
		"updated_at": m.UpdatedAt,
		"ended_at":   m.EndedAt,
	}
	q := r.db.WithContext(ctx).Model(&models.SyncProgressModel{}).Where("id = ?", p.ID)
	if p.Status.IsTerminal() {
		updates["status"] = m.Status
	} else {
		updates["status"] = gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", string(catalog.ProgressCancelled), m.Status)
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProgressNotFound
	}
	return nil
}

// FindByID finds a progress row
func (r *GormSyncProgressRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.SyncProgress, error) {
	var model models.SyncProgressModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProgressNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatest returns the most recently started progress of the site
func (r *GormSyncProgressRepository) FindLatest(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error) {
	var model models.SyncProgressModel
	if err := r.db.WithContext(ctx).
		Where("site = ?", site.String()).
		Order("started_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProgressNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// IsCancelled reports whether the row was moved to cancelled
func (r *GormSyncProgressRepository) IsCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	var status string
	if err := r.db.WithContext(ctx).Model(&models.SyncProgressModel{}).
		Where("id = ?", id).
		Select("status").
		Scan(&status).Error; err != nil {
		return false, err
	}
	return status == string(catalog.ProgressCancelled), nil
}

// Cancel moves a running progress row to cancelled
func (r *GormSyncProgressRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.SyncProgressModel{}).
		Where("id = ? AND status = ?", id, string(catalog.ProgressRunning)).
		Update("status", string(catalog.ProgressCancelled))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProgressNotFound
	}
	return nil
}

var _ catalog.SyncProgressRepository = (*GormSyncProgressRepository)(nil)
