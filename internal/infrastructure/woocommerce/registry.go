package woocommerce

import (
	"fmt"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// Registry holds one client per configured site
type Registry struct {
	sites   shared.SiteSet
	clients map[shared.SiteCode]integration.StoreClient
}

// NewRegistry builds a client for every site config. The first config is the
// reference site. Any invalid site config fails the whole registry.
func NewRegistry(configs []SiteConfig, opts ...Option) (*Registry, error) {
	r := &Registry{clients: make(map[shared.SiteCode]integration.StoreClient, len(configs))}
	for _, cfg := range configs {
		if _, dup := r.clients[cfg.Code]; dup {
			return nil, fmt.Errorf("woocommerce: duplicate site %q", cfg.Code)
		}
		c, err := NewClient(cfg, opts...)
		if err != nil {
			return nil, err
		}
		r.clients[cfg.Code] = c
		r.sites = append(r.sites, cfg.Code)
	}
	return r, nil
}

// NewRegistryFromClients wraps prebuilt clients, reference site first
func NewRegistryFromClients(clients ...integration.StoreClient) *Registry {
	r := &Registry{clients: make(map[shared.SiteCode]integration.StoreClient, len(clients))}
	for _, c := range clients {
		if _, dup := r.clients[c.Site()]; dup {
			continue
		}
		r.clients[c.Site()] = c
		r.sites = append(r.sites, c.Site())
	}
	return r
}

// Client returns the client of the site
func (r *Registry) Client(site shared.SiteCode) (integration.StoreClient, error) {
	c, ok := r.clients[site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrSiteNotConfigured, site)
	}
	return c, nil
}

// Sites returns the configured sites, reference site first
func (r *Registry) Sites() shared.SiteSet {
	return append(shared.SiteSet(nil), r.sites...)
}

var _ integration.StoreClientProvider = (*Registry)(nil)
