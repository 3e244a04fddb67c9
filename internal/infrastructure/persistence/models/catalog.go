package models

import (
	"time"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
)

// ProductModel is the canonical product row. Per-site maps live in JSON text
// columns keyed by site code.
type ProductModel struct {
	SKU                 string     `gorm:"column:sku;primaryKey;size:64"`
	Name                string     `gorm:"column:name;size:500;not null;default:''"`
	ImagesJSON          string     `gorm:"column:images;type:jsonb;not null;default:'[]'"`
	CategoriesJSON      string     `gorm:"column:categories;type:jsonb;not null;default:'[]'"`
	AttributesJSON      string     `gorm:"column:attributes;type:jsonb;not null;default:'{}'"`
	RemoteIDsJSON       string     `gorm:"column:remote_ids;type:jsonb;not null;default:'{}'"`
	PricesJSON          string     `gorm:"column:prices;type:jsonb;not null;default:'{}'"`
	RegularPricesJSON   string     `gorm:"column:regular_prices;type:jsonb;not null;default:'{}'"`
	StockQuantitiesJSON string     `gorm:"column:stock_quantities;type:jsonb;not null;default:'{}'"`
	StockStatusesJSON   string     `gorm:"column:stock_statuses;type:jsonb;not null;default:'{}'"`
	StatusesJSON        string     `gorm:"column:statuses;type:jsonb;not null;default:'{}'"`
	ContentJSON         string     `gorm:"column:content;type:jsonb;not null;default:'{}'"`
	SyncStatusJSON      string     `gorm:"column:sync_status;type:jsonb;not null;default:'{}'"`
	VariationsJSON      string     `gorm:"column:variations;type:jsonb;not null;default:'{}'"`
	VariationCountsJSON string     `gorm:"column:variation_counts;type:jsonb;not null;default:'{}'"`
	LastSyncedAt        *time.Time `gorm:"column:last_synced_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a domain Product
func (m *ProductModel) ToDomain() (*catalog.Product, error) {
	p := catalog.Patch(m.SKU)
	p.Name = m.Name
	p.LastSyncedAt = m.LastSyncedAt
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt

	columns := []struct {
		name string
		raw  string
		dst  any
	}{
		{"images", m.ImagesJSON, &p.Images},
		{"categories", m.CategoriesJSON, &p.Categories},
		{"attributes", m.AttributesJSON, &p.Attributes},
		{"remote_ids", m.RemoteIDsJSON, &p.RemoteIDs},
		{"prices", m.PricesJSON, &p.Prices},
		{"regular_prices", m.RegularPricesJSON, &p.RegularPrices},
		{"stock_quantities", m.StockQuantitiesJSON, &p.StockQuantities},
		{"stock_statuses", m.StockStatusesJSON, &p.StockStatuses},
		{"statuses", m.StatusesJSON, &p.Statuses},
		{"content", m.ContentJSON, &p.Content},
		{"sync_status", m.SyncStatusJSON, &p.SyncStatus},
		{"variations", m.VariationsJSON, &p.Variations},
		{"variation_counts", m.VariationCountsJSON, &p.VariationCounts},
	}
	for _, c := range columns {
		if err := decodeJSON(c.name, c.raw, c.dst); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromDomain populates the row from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) error {
	m.SKU = p.SKU
	m.Name = p.Name
	m.LastSyncedAt = p.LastSyncedAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	columns := []struct {
		dst   *string
		v     any
		empty string
	}{
		{&m.ImagesJSON, p.Images, "[]"},
		{&m.CategoriesJSON, p.Categories, "[]"},
		{&m.AttributesJSON, p.Attributes, "{}"},
		{&m.RemoteIDsJSON, p.RemoteIDs, "{}"},
		{&m.PricesJSON, p.Prices, "{}"},
		{&m.RegularPricesJSON, p.RegularPrices, "{}"},
		{&m.StockQuantitiesJSON, p.StockQuantities, "{}"},
		{&m.StockStatusesJSON, p.StockStatuses, "{}"},
		{&m.StatusesJSON, p.Statuses, "{}"},
		{&m.ContentJSON, p.Content, "{}"},
		{&m.SyncStatusJSON, p.SyncStatus, "{}"},
		{&m.VariationsJSON, p.Variations, "{}"},
		{&m.VariationCountsJSON, p.VariationCounts, "{}"},
	}
	for _, c := range columns {
		s, err := encodeJSON(c.v, c.empty)
		if err != nil {
			return err
		}
		*c.dst = s
	}
	return nil
}

// CategoryModel stores the remote id of a category name on one site
type CategoryModel struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Site      string    `gorm:"column:site;size:16;not null;uniqueIndex:idx_categories_site_name_key"`
	Name      string    `gorm:"column:name;size:255;not null"`
	NameKey   string    `gorm:"column:name_key;size:255;not null;uniqueIndex:idx_categories_site_name_key"`
	RemoteID  int64     `gorm:"column:remote_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the row to a CategoryRef
func (m *CategoryModel) ToDomain() catalog.CategoryRef {
	return catalog.CategoryRef{Name: m.Name, RemoteID: m.RemoteID}
}

// NewCategoryModel builds a row for the site
func NewCategoryModel(site shared.SiteCode, ref catalog.CategoryRef) *CategoryModel {
	now := time.Now()
	return &CategoryModel{
		Site:      site.String(),
		Name:      ref.Name,
		NameKey:   catalog.FoldName(ref.Name),
		RemoteID:  ref.RemoteID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
