package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/shopsync/backend/internal/domain/shared"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// CategoryRef is a category name with its remote id on the reference site
type CategoryRef struct {
	Name     string
	RemoteID int64
}

// CategoryCache maps site -> category name -> remote id for the lifetime of
// one top-level operation. Names compare with Unicode case folding.
//
// Misses are read-through: Resolve runs the supplied find-or-create once per
// (site, name) even when many goroutines miss concurrently, and writes the
// result back. Different names resolve concurrently.
type CategoryCache struct {
	mu      sync.RWMutex
	entries map[shared.SiteCode]map[string]int64
	group   singleflight.Group
}

// NewCategoryCache returns an empty cache
func NewCategoryCache() *CategoryCache {
	return &CategoryCache{
		entries: make(map[shared.SiteCode]map[string]int64),
	}
}

// FoldName returns the case-folded key of a category name.
// A Caser is stateful, so each call builds its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Seed stores a known id without resolving
func (c *CategoryCache) Seed(site shared.SiteCode, name string, id int64) {
	k := FoldName(name)
	if k == "" || id <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[site]
	if !ok {
		m = make(map[string]int64)
		c.entries[site] = m
	}
	m[k] = id
}

// SeedAll stores the same refs for every site
func (c *CategoryCache) SeedAll(sites shared.SiteSet, refs []CategoryRef) {
	for _, s := range sites {
		for _, r := range refs {
			c.Seed(s, r.Name, r.RemoteID)
		}
	}
}

// Lookup returns a cached id
func (c *CategoryCache) Lookup(site shared.SiteCode, name string) (int64, bool) {
	k := FoldName(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[site][k]
	return id, ok
}

// Len returns the number of cached names for the site
func (c *CategoryCache) Len(site shared.SiteCode) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[site])
}

// Resolve returns the cached id or runs findOrCreate once for the (site, name)
// pair, caching a successful result. Failures are not cached.
func (c *CategoryCache) Resolve(
	ctx context.Context,
	site shared.SiteCode,
	name string,
	findOrCreate func(ctx context.Context, site shared.SiteCode, name string) (int64, error),
) (int64, error) {
	if id, ok := c.Lookup(site, name); ok {
		return id, nil
	}
	flightKey := string(site) + "\x00" + FoldName(name)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		// a previous flight may have finished between Lookup and Do
		if id, ok := c.Lookup(site, name); ok {
			return id, nil
		}
		id, err := findOrCreate(ctx, site, name)
		if err != nil {
			return int64(0), err
		}
		c.Seed(site, name, id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
