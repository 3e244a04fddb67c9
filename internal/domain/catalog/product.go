package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopsync/backend/internal/domain/shared"
)

// DefaultStockQuantity is the stock used when neither the site nor the reference site carries one
const DefaultStockQuantity = 100

// ---------------------------------------------------------------------------
// Per-site enums
// ---------------------------------------------------------------------------

// StockStatus is the remote stock status of a product on one site
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// IsValid reports whether the stock status is known
func (s StockStatus) IsValid() bool {
	return s == StockStatusInStock || s == StockStatusOutOfStock
}

// PublishStatus is the remote visibility of a product on one site
type PublishStatus string

const (
	PublishStatusPublish PublishStatus = "publish"
	PublishStatusDraft   PublishStatus = "draft"
)

// IsValid reports whether the publish status is known
func (s PublishStatus) IsValid() bool {
	return s == PublishStatusPublish || s == PublishStatusDraft
}

// SyncStatus records the outcome of the last push to a site
type SyncStatus string

const (
	SyncStatusSynced       SyncStatus = "synced"
	SyncStatusError        SyncStatus = "error"
	SyncStatusNotPublished SyncStatus = "not_published"
)

// ---------------------------------------------------------------------------
// Value objects
// ---------------------------------------------------------------------------

// Content is the localized text of a product on one site
type Content struct {
	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
}

// VariationSnapshot is a point-in-time copy of one remote size variant
type VariationSnapshot struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku,omitempty"`
	Size         string          `json:"size"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	StockStatus  StockStatus     `json:"stock_status,omitempty"`
	ManageStock  bool            `json:"manage_stock"`
}

// ---------------------------------------------------------------------------
// Product Aggregate Root
// ---------------------------------------------------------------------------

// Product is the canonical record of one logical product across all sites.
// Per-site maps are keyed by site code; a key in RemoteIDs means the product
// exists on that site.
type Product struct {
	// SKU is the immutable identity shared by every site
	SKU string
	// Name is the shared (reference) product name
	Name string
	// Images are the shared image URLs
	Images []string
	// Categories are category names, resolved per site at sync time
	Categories []string
	// Attributes are the structured jersey attributes
	Attributes Attributes

	RemoteIDs       map[shared.SiteCode]int64
	Prices          map[shared.SiteCode]decimal.Decimal
	RegularPrices   map[shared.SiteCode]decimal.Decimal
	StockQuantities map[shared.SiteCode]int
	StockStatuses   map[shared.SiteCode]StockStatus
	Statuses        map[shared.SiteCode]PublishStatus
	Content         map[shared.SiteCode]Content
	SyncStatus      map[shared.SiteCode]SyncStatus
	Variations      map[shared.SiteCode][]VariationSnapshot
	VariationCounts map[shared.SiteCode]int

	// LastSyncedAt is refreshed after every successful push
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProduct creates an empty canonical product
func NewProduct(sku, name string) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, ErrProductInvalidSKU
	}
	now := time.Now()
	p := &Product{SKU: sku, Name: strings.TrimSpace(name), CreatedAt: now, UpdatedAt: now}
	p.ensureMaps()
	return p, nil
}

// Patch returns an empty product carrying only the SKU, used to merge sub-keys
func Patch(sku string) *Product {
	p := &Product{SKU: sku}
	p.ensureMaps()
	return p
}

func (p *Product) ensureMaps() {
	if p.RemoteIDs == nil {
		p.RemoteIDs = map[shared.SiteCode]int64{}
	}
	if p.Prices == nil {
		p.Prices = map[shared.SiteCode]decimal.Decimal{}
	}
	if p.RegularPrices == nil {
		p.RegularPrices = map[shared.SiteCode]decimal.Decimal{}
	}
	if p.StockQuantities == nil {
		p.StockQuantities = map[shared.SiteCode]int{}
	}
	if p.StockStatuses == nil {
		p.StockStatuses = map[shared.SiteCode]StockStatus{}
	}
	if p.Statuses == nil {
		p.Statuses = map[shared.SiteCode]PublishStatus{}
	}
	if p.Content == nil {
		p.Content = map[shared.SiteCode]Content{}
	}
	if p.SyncStatus == nil {
		p.SyncStatus = map[shared.SiteCode]SyncStatus{}
	}
	if p.Variations == nil {
		p.Variations = map[shared.SiteCode][]VariationSnapshot{}
	}
	if p.VariationCounts == nil {
		p.VariationCounts = map[shared.SiteCode]int{}
	}
}

// ---------------------------------------------------------------------------
// Per-site lookups: map[site] ?? map[reference] ?? default
// ---------------------------------------------------------------------------

func lookup[V any](m map[shared.SiteCode]V, site, ref shared.SiteCode, def V) V {
	if v, ok := m[site]; ok {
		return v
	}
	if v, ok := m[ref]; ok {
		return v
	}
	return def
}

// RemoteID returns the remote product id on the site. There is no fallback:
// a remote id only ever belongs to its own site.
func (p *Product) RemoteID(site shared.SiteCode) (int64, bool) {
	id, ok := p.RemoteIDs[site]
	return id, ok && id > 0
}

// IsPublishedOn reports whether the product exists on the site
func (p *Product) IsPublishedOn(site shared.SiteCode) bool {
	_, ok := p.RemoteID(site)
	return ok
}

// PriceFor returns the selling price on the site
func (p *Product) PriceFor(site, ref shared.SiteCode) decimal.Decimal {
	return lookup(p.Prices, site, ref, decimal.Zero)
}

// RegularPriceFor returns the list price on the site
func (p *Product) RegularPriceFor(site, ref shared.SiteCode) decimal.Decimal {
	return lookup(p.RegularPrices, site, ref, decimal.Zero)
}

// StockQuantityFor returns the canonical stock quantity on the site
func (p *Product) StockQuantityFor(site, ref shared.SiteCode) int {
	return lookup(p.StockQuantities, site, ref, DefaultStockQuantity)
}

// StockStatusFor returns the stock status on the site
func (p *Product) StockStatusFor(site, ref shared.SiteCode) StockStatus {
	return lookup(p.StockStatuses, site, ref, StockStatusInStock)
}

// StatusFor returns the publish status on the site
func (p *Product) StatusFor(site, ref shared.SiteCode) PublishStatus {
	return lookup(p.Statuses, site, ref, PublishStatusPublish)
}

// ContentFor returns the site content. An empty name falls back to the shared name.
func (p *Product) ContentFor(site, ref shared.SiteCode) Content {
	c := lookup(p.Content, site, ref, Content{})
	if c.Name == "" {
		c.Name = p.Name
	}
	return c
}

// Sizes returns the size ladder derived from the gender attribute
func (p *Product) Sizes() []string {
	return SizesFor(p.Attributes.Gender)
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// SetRemoteID records the remote id of the product on a site
func (p *Product) SetRemoteID(site shared.SiteCode, id int64) {
	p.ensureMaps()
	p.RemoteIDs[site] = id
}

// MarkSynced records a successful push to the site
func (p *Product) MarkSynced(site shared.SiteCode, at time.Time) {
	p.ensureMaps()
	p.SyncStatus[site] = SyncStatusSynced
	p.LastSyncedAt = &at
}

// ClearSite removes every per-site entry for the site
func (p *Product) ClearSite(site shared.SiteCode) {
	delete(p.RemoteIDs, site)
	delete(p.Prices, site)
	delete(p.RegularPrices, site)
	delete(p.StockQuantities, site)
	delete(p.StockStatuses, site)
	delete(p.Statuses, site)
	delete(p.Content, site)
	delete(p.SyncStatus, site)
	delete(p.Variations, site)
	delete(p.VariationCounts, site)
	p.UpdatedAt = time.Now()
}

// SetVariations replaces the variation snapshot for the site
func (p *Product) SetVariations(site shared.SiteCode, vs []VariationSnapshot) {
	p.ensureMaps()
	p.Variations[site] = vs
	p.VariationCounts[site] = len(vs)
}

func mergeInto[V any](dst map[shared.SiteCode]V, src map[shared.SiteCode]V) {
	for k, v := range src {
		dst[k] = v
	}
}

// MergeFrom folds other into p. Per-site maps merge per key (other wins,
// keys other does not mention are kept). Shared fields are replaced only
// when other carries a value.
func (p *Product) MergeFrom(other *Product) {
	if other == nil {
		return
	}
	p.ensureMaps()

	if other.Name != "" {
		p.Name = other.Name
	}
	if len(other.Images) > 0 {
		p.Images = append([]string(nil), other.Images...)
	}
	if len(other.Categories) > 0 {
		p.Categories = append([]string(nil), other.Categories...)
	}
	if !other.Attributes.IsZero() {
		p.Attributes = other.Attributes
	}

	mergeInto(p.RemoteIDs, other.RemoteIDs)
	mergeInto(p.Prices, other.Prices)
	mergeInto(p.RegularPrices, other.RegularPrices)
	mergeInto(p.StockQuantities, other.StockQuantities)
	mergeInto(p.StockStatuses, other.StockStatuses)
	mergeInto(p.Statuses, other.Statuses)
	mergeInto(p.Content, other.Content)
	mergeInto(p.SyncStatus, other.SyncStatus)
	mergeInto(p.Variations, other.Variations)
	mergeInto(p.VariationCounts, other.VariationCounts)

	if other.LastSyncedAt != nil && (p.LastSyncedAt == nil || other.LastSyncedAt.After(*p.LastSyncedAt)) {
		t := *other.LastSyncedAt
		p.LastSyncedAt = &t
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = other.CreatedAt
	}
	p.UpdatedAt = time.Now()
}

// PublishedSites returns the sites of set on which the product exists, in set order
func (p *Product) PublishedSites(set shared.SiteSet) shared.SiteSet {
	out := make(shared.SiteSet, 0, len(set))
	for _, s := range set {
		if p.IsPublishedOn(s) {
			out = append(out, s)
		}
	}
	return out
}
