package integration

import (
	"context"
	"time"

	"github.com/shopsync/backend/internal/domain/shared"
)

// PageReport describes a paginated fetch
type PageReport struct {
	Pages     int  `json:"pages"`
	Items     int  `json:"items"`
	Truncated bool `json:"truncated"`
}

// ProductListQuery filters a product listing
type ProductListQuery struct {
	PerPage int
	Status  string
	SKU     string
}

// OrderListQuery filters an order listing
type OrderListQuery struct {
	// Status defaults to "any"
	Status string
	// After limits the listing to orders created after the instant
	After *time.Time
	// ModifiedAfter limits the listing to orders modified after the instant
	ModifiedAfter *time.Time
	PerPage       int
}

// StoreClient is the REST surface of one storefront site.
// Every method is bound to the site returned by Site.
type StoreClient interface {
	Site() shared.SiteCode

	// Products
	GetProduct(ctx context.Context, id int64) (*RemoteProduct, error)
	CreateProduct(ctx context.Context, p ProductPayload) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, id int64, p ProductPayload) (*RemoteProduct, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, q ProductListQuery) ([]RemoteProduct, PageReport, error)
	DetachImages(ctx context.Context, id int64) error

	// Variations
	ListVariations(ctx context.Context, productID int64) ([]RemoteVariation, error)
	BatchVariations(ctx context.Context, productID int64, batch VariationBatch) (*VariationBatchResult, error)

	// Categories
	ListCategories(ctx context.Context) ([]RemoteCategory, PageReport, error)
	CreateCategory(ctx context.Context, name string) (*RemoteCategory, error)

	// Orders. A listing that fails part way returns the orders of the pages
	// read so far together with the error.
	ListOrders(ctx context.Context, q OrderListQuery) ([]RemoteOrder, PageReport, error)
	GetOrder(ctx context.Context, id int64) (*RemoteOrder, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*RemoteOrder, error)
	AddOrderNote(ctx context.Context, id int64, note string, customerNote bool) (*RemoteOrderNote, error)

	// Ping checks connectivity and credentials with a one-item listing
	Ping(ctx context.Context) error
}

// StoreClientProvider hands out the client of a configured site
type StoreClientProvider interface {
	// Client returns ErrSiteNotConfigured for unknown sites
	Client(site shared.SiteCode) (StoreClient, error)

	// Sites returns the configured sites, reference site first
	Sites() shared.SiteSet
}

// CleanupReport is the outcome of an image cleanup
type CleanupReport struct {
	Success bool     `json:"success"`
	Details []string `json:"details,omitempty"`
}

// ImageCleaner purges the media currently attached to a remote product so a
// fresh image list can be attached without leaking orphaned files
type ImageCleaner interface {
	CleanupImages(ctx context.Context, site shared.SiteCode, remoteID int64) (CleanupReport, error)
}
