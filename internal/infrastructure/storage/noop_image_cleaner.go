package storage

import (
	"context"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// NoopImageCleaner is used when the image mirror is disabled.
// Remote media is replaced by the storefront itself, so there is nothing to purge.
type NoopImageCleaner struct{}

// CleanupImages always succeeds
func (NoopImageCleaner) CleanupImages(_ context.Context, _ shared.SiteCode, _ int64) (integration.CleanupReport, error) {
	return integration.CleanupReport{Success: true, Details: []string{"image mirror disabled"}}, nil
}

var _ integration.ImageCleaner = NoopImageCleaner{}
