package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// SiteServiceImpl answers connectivity questions about configured sites
type SiteServiceImpl struct {
	stores integration.StoreClientProvider
	logger *zap.Logger
}

// NewSiteService creates a new SiteServiceImpl
func NewSiteService(stores integration.StoreClientProvider, logger *zap.Logger) *SiteServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteServiceImpl{stores: stores, logger: logger}
}

// Sites returns the configured sites, reference site first
func (s *SiteServiceImpl) Sites() shared.SiteSet {
	return s.stores.Sites()
}

// Ping tests the connection and credentials of one site.
// An unreachable site is reported in the result, not as an error.
func (s *SiteServiceImpl) Ping(ctx context.Context, site shared.SiteCode) (*PingResult, error) {
	client, err := s.stores.Client(site)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = client.Ping(ctx)
	result := &PingResult{
		Site:      site,
		Reachable: err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		CheckedAt: start.UTC(),
	}
	if err != nil {
		result.ErrorKind = shared.KindOf(err)
		result.Error = err.Error()
		s.logger.Warn("Site ping failed", zap.String("site", site.String()), zap.Error(err))
	}
	return result, nil
}

// PingAll pings every configured site concurrently, in configuration order
func (s *SiteServiceImpl) PingAll(ctx context.Context) []PingResult {
	sites := s.stores.Sites()
	results := make([]PingResult, len(sites))
	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Ping(ctx, site)
			if err != nil {
				results[i] = PingResult{
					Site:      site,
					ErrorKind: shared.KindOf(err),
					Error:     err.Error(),
					CheckedAt: time.Now().UTC(),
				}
				return
			}
			results[i] = *r
		}()
	}
	wg.Wait()
	return results
}
