package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/domain/shared"
)

// ProductRepository is the canonical product store
type ProductRepository interface {
	// GetBySKU returns ErrProductNotFound when the sku is unknown
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// GetManyBySKU returns the known products; unknown skus are omitted
	GetManyBySKU(ctx context.Context, skus []string) ([]*Product, error)

	// Upsert merges p into the stored row (per-site maps merge per key),
	// creating the row when it does not exist
	Upsert(ctx context.Context, p *Product) error

	// UpsertMany merges every product, one statement batch per call
	UpsertMany(ctx context.Context, ps []*Product) error

	// Save overwrites the stored row with p
	Save(ctx context.Context, p *Product) error

	// ClearSites removes the per-site entries of the given sites from the
	// stored row and leaves every other site untouched
	ClearSites(ctx context.Context, sku string, sites []shared.SiteCode) error

	// Delete removes the row
	Delete(ctx context.Context, sku string) error
}

// CategoryRepository is the durable category taxonomy per site
type CategoryRepository interface {
	// FindBySite returns every category known for the site
	FindBySite(ctx context.Context, site shared.SiteCode) ([]CategoryRef, error)

	// Upsert records the remote id of a category name on the site
	Upsert(ctx context.Context, site shared.SiteCode, ref CategoryRef) error
}

// SyncProgressRepository persists full pull progress
type SyncProgressRepository interface {
	Create(ctx context.Context, p *SyncProgress) error
	Update(ctx context.Context, p *SyncProgress) error
	FindByID(ctx context.Context, id uuid.UUID) (*SyncProgress, error)

	// FindLatest returns the most recently started progress of the site
	FindLatest(ctx context.Context, site shared.SiteCode) (*SyncProgress, error)

	// IsCancelled reports whether an operator asked the pull to stop
	IsCancelled(ctx context.Context, id uuid.UUID) (bool, error)

	// Cancel flags a running pull; returns ErrProgressNotFound when nothing is running
	Cancel(ctx context.Context, id uuid.UUID) error
}
