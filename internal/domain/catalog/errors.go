package catalog

import "github.com/shopsync/backend/internal/domain/shared"

// NotPublishedMessage is reported for a site on which the product has no remote id
const NotPublishedMessage = "该站点未发布此商品"

var (
	ErrProductNotFound   = shared.NewDomainError("NOT_FOUND", "product not found")
	ErrProductInvalidSKU = shared.NewDomainError("INVALID_SKU", "sku must not be empty")
	ErrProgressNotFound  = shared.NewDomainError("NOT_FOUND", "sync progress not found")
	ErrNoSites           = shared.NewDomainError("INVALID_SITES", "at least one site is required")
)

// notPublishedError is returned for a site without a remote id
type notPublishedError struct{}

func (notPublishedError) Error() string          { return NotPublishedMessage }
func (notPublishedError) Kind() shared.ErrorKind { return shared.ErrorKindNotPublished }

// ErrNotPublished is the per-site failure for a product missing on that site
var ErrNotPublished error = notPublishedError{}
