package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
)

// SyncProgressModel is the progress row of one full pull
type SyncProgressModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Site      string     `gorm:"column:site;size:16;not null;index"`
	Status    string     `gorm:"column:status;size:16;not null"`
	Total     int        `gorm:"column:total;not null;default:0"`
	Current   int        `gorm:"column:current;not null;default:0"`
	Success   int        `gorm:"column:success;not null;default:0"`
	Failed    int        `gorm:"column:failed;not null;default:0"`
	Skipped   int        `gorm:"column:skipped;not null;default:0"`
	Message   string     `gorm:"column:message;type:text"`
	StartedAt time.Time  `gorm:"column:started_at;not null;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

// TableName returns the table name for GORM
func (SyncProgressModel) TableName() string {
	return "sync_progress"
}

// ToDomain converts the row to a domain SyncProgress
func (m *SyncProgressModel) ToDomain() *catalog.SyncProgress {
	return &catalog.SyncProgress{
		ID:        m.ID,
		Site:      shared.SiteCode(m.Site),
		Status:    catalog.ProgressStatus(m.Status),
		Total:     m.Total,
		Current:   m.Current,
		Success:   m.Success,
		Failed:    m.Failed,
		Skipped:   m.Skipped,
		Message:   m.Message,
		StartedAt: m.StartedAt,
		UpdatedAt: m.UpdatedAt,
		EndedAt:   m.EndedAt,
	}
}

// SyncProgressModelFromDomain builds a row from a domain SyncProgress
func SyncProgressModelFromDomain(p *catalog.SyncProgress) *SyncProgressModel {
	return &SyncProgressModel{
		ID:        p.ID,
		Site:      p.Site.String(),
		Status:    string(p.Status),
		Total:     p.Total,
		Current:   p.Current,
		Success:   p.Success,
		Failed:    p.Failed,
		Skipped:   p.Skipped,
		Message:   p.Message,
		StartedAt: p.StartedAt,
		UpdatedAt: p.UpdatedAt,
		EndedAt:   p.EndedAt,
	}
}

// AllModels lists every model owned by the sync engine, for AutoMigrate in tests
func AllModels() []any {
	return []any{&ProductModel{}, &CategoryModel{}, &OrderModel{}, &SyncProgressModel{}}
}
