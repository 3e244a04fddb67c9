package order

import (
	"context"
	"time"

	"github.com/shopsync/backend/internal/domain/shared"
)

// UpsertResult counts rows written by one batch upsert
type UpsertResult struct {
	Applied int
	Failed  int
}

// Repository is the canonical order store
type Repository interface {
	// UpsertBatch writes the batch keyed by (site, remote id); the latest
	// remote state overwrites the stored row. A failing batch reports every
	// row as failed together with the error.
	UpsertBatch(ctx context.Context, orders []*Order) (UpsertResult, error)

	// FindByKey returns ErrOrderNotFound when the order was never ingested
	FindByKey(ctx context.Context, site shared.SiteCode, remoteID int64) (*Order, error)

	// UpdateStatus changes the stored status
	UpdateStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string, modifiedAt time.Time) error

	// IncrementNotes records an appended note
	IncrementNotes(ctx context.Context, site shared.SiteCode, remoteID int64) error

	// LatestModified returns the newest modification date ingested for the site
	LatestModified(ctx context.Context, site shared.SiteCode) (*time.Time, error)
}
