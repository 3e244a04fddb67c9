package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
)

// SyncProductsRequest pushes one sku, or a batch when skus is set
// @Description Push canonical product data to storefronts
type SyncProductsRequest struct {
	SKU    string   `json:"sku" binding:"required_without=SKUs,omitempty,max=64" example:"ARS-2425-H-FAN"`
	SKUs   []string `json:"skus" binding:"required_without=SKU,omitempty,max=500,dive,required,max=64"`
	Sites  []string `json:"sites" binding:"omitempty,dive,sitecode" example:"com,uk"`
	Fields []string `json:"fields" binding:"omitempty,dive,syncfield" example:"prices,stock"`
}

// PullProductsRequest reads per-site data of skus back from one site
// @Description Pull storefront data into the canonical store
type PullProductsRequest struct {
	SKUs []string `json:"skus" binding:"required,min=1,max=500,dive,required,max=64"`
	Site string   `json:"site" binding:"required,sitecode" example:"uk"`
}

// PullBatchRequest pulls skus in bounded parallel
// @Description Batch pull; mode "variants" refreshes only variation snapshots
type PullBatchRequest struct {
	SKUs []string `json:"skus" binding:"required,min=1,max=2000,dive,required,max=64"`
	Site string   `json:"site" binding:"required,sitecode" example:"uk"`
	Mode string   `json:"mode" binding:"omitempty,oneof=variants full" example:"variants"`
}

// DeleteProductQuery selects the sites a product is removed from
type DeleteProductQuery struct {
	// Sites may be repeated or comma separated; empty means every site
	Sites       []string `form:"sites"`
	DeleteLocal bool     `form:"delete_local"`
}

// SiteContentRequest is the localized text of a product on one site
type SiteContentRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
}

// PublishProductRequest creates a new product on the storefronts.
// Per-site maps override the shared values for that site.
// @Description Publish a new product
type PublishProductRequest struct {
	Sites            []string           `json:"sites" binding:"omitempty,dive,sitecode" example:"com,uk"`
	Name             string             `json:"name" binding:"required,max=200" example:"Arsenal 24/25 Home Jersey"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description"`
	Images           []string           `json:"images" binding:"omitempty,max=20,dive,url"`
	Categories       []string           `json:"categories" binding:"omitempty,max=20,dive,required,max=100"`
	Attributes       catalog.Attributes `json:"attributes"`

	Price         decimal.Decimal `json:"price" swaggertype:"string" example:"79.99"`
	RegularPrice  decimal.Decimal `json:"regular_price" swaggertype:"string" example:"99.99"`
	StockQuantity *int            `json:"stock_quantity" binding:"omitempty,gte=0"`
	Status        string          `json:"status" binding:"omitempty,oneof=publish draft" example:"publish"`

	SitePrices        map[string]decimal.Decimal    `json:"site_prices" swaggertype:"object,string"`
	SiteRegularPrices map[string]decimal.Decimal    `json:"site_regular_prices" swaggertype:"object,string"`
	SiteContent       map[string]SiteContentRequest `json:"site_content"`
}

// ToDraft converts the request into a publish draft
func (r PublishProductRequest) ToDraft() (catalogapp.ProductDraft, error) {
	draft := catalogapp.ProductDraft{
		Name:             strings.TrimSpace(r.Name),
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Images:           r.Images,
		Categories:       r.Categories,
		Attributes:       r.Attributes,
		Price:            r.Price,
		RegularPrice:     r.RegularPrice,
		StockQuantity:    r.StockQuantity,
		Status:           catalog.PublishStatus(r.Status),
	}

	var err error
	if draft.SitePrices, err = siteKeyed(r.SitePrices); err != nil {
		return draft, err
	}
	if draft.SiteRegularPrices, err = siteKeyed(r.SiteRegularPrices); err != nil {
		return draft, err
	}
	content := make(map[string]catalog.Content, len(r.SiteContent))
	for site, c := range r.SiteContent {
		content[site] = catalog.Content{Name: c.Name, Description: c.Description, ShortDescription: c.ShortDescription}
	}
	if draft.SiteContent, err = siteKeyed(content); err != nil {
		return draft, err
	}
	return draft, nil
}

func siteKeyed[V any](in map[string]V) (map[shared.SiteCode]V, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[shared.SiteCode]V, len(in))
	for raw, v := range in {
		site, err := shared.ParseSiteCode(raw)
		if err != nil {
			return nil, err
		}
		out[site] = v
	}
	return out, nil
}

// RebuildVariantsRequest recreates every variant of a product on one site
// @Description Destructive; confirm must be true
type RebuildVariantsRequest struct {
	Site    string `json:"site" binding:"required,sitecode" example:"com"`
	Confirm bool   `json:"confirm" example:"true"`
}

// FullPullRequest starts or cancels a full pull of one site
type FullPullRequest struct {
	Site string `json:"site" binding:"required,sitecode" example:"uk"`
}

// FullPullQuery selects the site of a progress lookup
type FullPullQuery struct {
	Site string `form:"site" binding:"required,sitecode"`
}

// UpdateOrderStatusRequest changes the status of a remote order
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,max=32" example:"completed"`
}

// AddOrderNoteRequest appends a note to a remote order
type AddOrderNoteRequest struct {
	Note         string `json:"note" binding:"required,max=2000" example:"Shipped with DHL"`
	CustomerNote bool   `json:"customer_note"`
}

// SweepJobsQuery filters the scheduler job history
type SweepJobsQuery struct {
	Site  string `form:"site" binding:"omitempty,sitecode"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// TriggerSweepRequest queues scheduler sweeps now
type TriggerSweepRequest struct {
	Site string `json:"site" binding:"omitempty,sitecode"`
	// Since overrides the watermark, RFC 3339
	Since string `json:"since" binding:"omitempty" example:"2024-10-01T00:00:00Z"`
}

// parseSites converts validated raw codes, splitting comma separated values
func parseSites(raw []string) ([]shared.SiteCode, error) {
	var out []shared.SiteCode
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			site, err := shared.ParseSiteCode(part)
			if err != nil {
				return nil, err
			}
			out = append(out, site)
		}
	}
	return out, nil
}
