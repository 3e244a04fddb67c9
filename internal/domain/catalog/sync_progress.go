package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/domain/shared"
)

// ProgressStatus is the lifecycle state of a full pull
type ProgressStatus string

const (
	ProgressRunning   ProgressStatus = "running"
	ProgressCompleted ProgressStatus = "completed"
	ProgressCancelled ProgressStatus = "cancelled"
	ProgressError     ProgressStatus = "error"
)

// IsTerminal reports whether the status is final
func (s ProgressStatus) IsTerminal() bool {
	return s == ProgressCompleted || s == ProgressCancelled || s == ProgressError
}

// SyncProgress tracks one full pull of a site.
// The row is polled by operators and doubles as the cancellation flag.
type SyncProgress struct {
	ID        uuid.UUID
	Site      shared.SiteCode
	Status    ProgressStatus
	Total     int
	Current   int
	Success   int
	Failed    int
	Skipped   int
	Message   string
	StartedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time
}

// NewSyncProgress starts a running progress row for a site
func NewSyncProgress(site shared.SiteCode) *SyncProgress {
	now := time.Now()
	return &SyncProgress{
		ID:        uuid.New(),
		Site:      site,
		Status:    ProgressRunning,
		Message:   "starting",
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance records progress counters
func (p *SyncProgress) Advance(current, success, failed int, message string) {
	p.Current = current
	p.Success = success
	p.Failed = failed
	if message != "" {
		p.Message = message
	}
	p.UpdatedAt = time.Now()
}

// Finish moves the progress into a terminal status
func (p *SyncProgress) Finish(status ProgressStatus, message string) {
	now := time.Now()
	p.Status = status
	p.Message = message
	p.UpdatedAt = now
	p.EndedAt = &now
}
