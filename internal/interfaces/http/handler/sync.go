package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
)

// ProductSyncer pushes, pulls and manages products on the storefronts
type ProductSyncer interface {
	SyncProduct(ctx context.Context, sku string, sites []shared.SiteCode, fields catalog.FieldSet) ([]shared.SiteResult, error)
	SyncBatch(ctx context.Context, skus []string, sites []shared.SiteCode, fields catalog.FieldSet) ([]catalogapp.SyncOutcome, error)
	PullProducts(ctx context.Context, skus []string, site shared.SiteCode) ([]catalogapp.PullOutcome, error)
	PullBatch(ctx context.Context, skus []string, site shared.SiteCode, mode catalogapp.PullMode) ([]catalogapp.PullOutcome, error)
	DeleteProduct(ctx context.Context, sku string, sites []shared.SiteCode, deleteLocal bool) (*catalogapp.DeleteResult, error)
	PublishProduct(ctx context.Context, sites []shared.SiteCode, draft catalogapp.ProductDraft) (*catalogapp.PublishResult, error)
	RebuildVariants(ctx context.Context, sku string, site shared.SiteCode, confirm bool) (*catalogapp.RebuildResult, error)
}

// FullPuller runs full catalog pulls in the background
type FullPuller interface {
	Start(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error)
	Progress(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error)
	Cancel(ctx context.Context, site shared.SiteCode) (*catalog.SyncProgress, error)
}

// SitePinger tests storefront connections
type SitePinger interface {
	Ping(ctx context.Context, site shared.SiteCode) (*catalogapp.PingResult, error)
	PingAll(ctx context.Context) []catalogapp.PingResult
}

// SyncHandler serves the product sync endpoints
type SyncHandler struct {
	BaseHandler
	products ProductSyncer
	fullPull FullPuller
	sites    SitePinger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(products ProductSyncer, fullPull FullPuller, sites SitePinger) *SyncHandler {
	return &SyncHandler{products: products, fullPull: fullPull, sites: sites}
}

// SyncProducts godoc
// @ID           syncProducts
//
//	@Summary		Push products to storefronts
//	@Description	Push one sku, or a batch of skus, to the selected sites. Per-site failures are reported in the body.
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SyncProductsRequest	true	"Push request"
//	@Success		200		{object}	APIResponse[[]catalogapp.SyncOutcome]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products [post]
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	var req SyncProductsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sites, err := parseSites(req.Sites)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	fields, err := catalog.ParseFields(req.Fields)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if len(req.SKUs) == 0 {
		results, err := h.products.SyncProduct(c.Request.Context(), req.SKU, sites, fields)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, []catalogapp.SyncOutcome{{
			SKU:            req.SKU,
			Results:        results,
			FullySucceeded: shared.AllSucceeded(results),
		}})
		return
	}

	skus := req.SKUs
	if req.SKU != "" {
		skus = append([]string{req.SKU}, skus...)
	}
	outcomes, err := h.products.SyncBatch(c.Request.Context(), skus, sites, fields)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("Product batch pushed",
		zap.Int("skus", len(skus)),
		zap.Int("outcomes", len(outcomes)),
	)
	h.Success(c, outcomes)
}

// PullProducts godoc
// @ID           pullProducts
//
//	@Summary		Pull products from one storefront
//	@Description	Read per-site data of the skus back into the canonical store
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PullProductsRequest	true	"Pull request"
//	@Success		200		{object}	APIResponse[[]catalogapp.PullOutcome]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products/pull [post]
func (h *SyncHandler) PullProducts(c *gin.Context) {
	var req PullProductsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	site, err := shared.ParseSiteCode(req.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	outcomes, err := h.products.PullProducts(c.Request.Context(), req.SKUs, site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcomes)
}

// PullBatch godoc
// @ID           pullProductBatch
//
//	@Summary		Pull many products from one storefront
//	@Description	Bounded parallel pull. Mode "variants" (default) refreshes only variation snapshots.
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PullBatchRequest	true	"Batch pull request"
//	@Success		200		{object}	APIResponse[[]catalogapp.PullOutcome]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products/pull-batch [post]
func (h *SyncHandler) PullBatch(c *gin.Context) {
	var req PullBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	site, err := shared.ParseSiteCode(req.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	mode, err := catalogapp.ParsePullMode(req.Mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	outcomes, err := h.products.PullBatch(c.Request.Context(), req.SKUs, site, mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcomes)
}

// DeleteProduct godoc
// @ID           deleteSyncedProduct
//
//	@Summary		Delete a product from storefronts
//	@Description	Remove the product and its variations from the selected sites, optionally from the canonical store too
//	@Tags			sync
//	@Produce		json
//	@Param			sku				path		string		true	"Product SKU"
//	@Param			sites			query		[]string	false	"Sites, comma separated; default all"
//	@Param			delete_local	query		bool		false	"Also delete the canonical record"
//	@Success		200				{object}	APIResponse[catalogapp.DeleteResult]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products/{sku} [delete]
func (h *SyncHandler) DeleteProduct(c *gin.Context) {
	var q DeleteProductQuery
	if !h.BindQuery(c, &q) {
		return
	}
	sites, err := parseSites(q.Sites)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.products.DeleteProduct(c.Request.Context(), c.Param("sku"), sites, q.DeleteLocal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("Product deleted from sites",
		zap.String("sku", result.SKU),
		zap.Bool("local_deleted", result.LocalDeleted),
	)
	h.Success(c, result)
}

// PublishProduct godoc
// @ID           publishProduct
//
//	@Summary		Publish a new product
//	@Description	Create a product on the selected sites with a generated sku. Send Idempotency-Key to make retries safe.
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Client chosen retry key"
//	@Param			request			body		PublishProductRequest	true	"Product draft"
//	@Success		201				{object}	APIResponse[catalogapp.PublishResult]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products/publish [post]
func (h *SyncHandler) PublishProduct(c *gin.Context) {
	var req PublishProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sites, err := parseSites(req.Sites)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	draft, err := req.ToDraft()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.products.PublishProduct(c.Request.Context(), sites, draft)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RebuildVariants godoc
// @ID           rebuildVariants
//
//	@Summary		Rebuild product variants on one site
//	@Description	Delete every variation of the product on the site and recreate them from canonical sizes. Requires confirm=true.
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			sku		path		string					true	"Product SKU"
//	@Param			request	body		RebuildVariantsRequest	true	"Rebuild request"
//	@Success		200		{object}	APIResponse[catalogapp.RebuildResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		428		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/products/{sku}/variants/rebuild [post]
func (h *SyncHandler) RebuildVariants(c *gin.Context) {
	var req RebuildVariantsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	site, err := shared.ParseSiteCode(req.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.products.RebuildVariants(c.Request.Context(), c.Param("sku"), site, req.Confirm)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Warn("Product variants rebuilt",
		zap.String("sku", result.SKU),
		zap.String("site", result.Site.String()),
		zap.Int("deleted", result.Deleted),
		zap.Int("created", result.Created),
	)
	h.Success(c, result)
}

// StartFullPull godoc
// @ID           startFullPull
//
//	@Summary		Start a full pull of one site
//	@Description	Pull every product of the site in the background. Poll progress with GET /sync/full/progress.
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FullPullRequest	true	"Site to pull"
//	@Success		202		{object}	APIResponse[catalogapp.ProgressResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/full [post]
func (h *SyncHandler) StartFullPull(c *gin.Context) {
	var req FullPullRequest
	if !h.BindJSON(c, &req) {
		return
	}
	site, err := shared.ParseSiteCode(req.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, err := h.fullPull.Start(c.Request.Context(), site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, catalogapp.ToProgressResponse(p))
}

// FullPullProgress godoc
// @ID           getFullPullProgress
//
//	@Summary		Full pull progress
//	@Description	Latest full pull of the site
//	@Tags			sync
//	@Produce		json
//	@Param			site	query		string	true	"Site code"
//	@Success		200		{object}	APIResponse[catalogapp.ProgressResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/full/progress [get]
func (h *SyncHandler) FullPullProgress(c *gin.Context) {
	var q FullPullQuery
	if !h.BindQuery(c, &q) {
		return
	}
	site, err := shared.ParseSiteCode(q.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, err := h.fullPull.Progress(c.Request.Context(), site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProgressResponse(p))
}

// CancelFullPull godoc
// @ID           cancelFullPull
//
//	@Summary		Cancel a running full pull
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FullPullRequest	true	"Site to cancel"
//	@Success		200		{object}	APIResponse[catalogapp.ProgressResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/full/cancel [post]
func (h *SyncHandler) CancelFullPull(c *gin.Context) {
	var req FullPullRequest
	if !h.BindJSON(c, &req) {
		return
	}
	site, err := shared.ParseSiteCode(req.Site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, err := h.fullPull.Cancel(c.Request.Context(), site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProgressResponse(p))
}

// PingSite godoc
// @ID           pingSite
//
//	@Summary		Test a storefront connection
//	@Description	An unreachable site is reported in the body, not as an error status
//	@Tags			sites
//	@Produce		json
//	@Param			site	path		string	true	"Site code"
//	@Success		200		{object}	APIResponse[catalogapp.PingResult]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/sites/{site}/ping [get]
func (h *SyncHandler) PingSite(c *gin.Context) {
	site, err := shared.ParseSiteCode(c.Param("site"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.sites.Ping(c.Request.Context(), site)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PingAllSites godoc
// @ID           pingAllSites
//
//	@Summary		Test every storefront connection
//	@Tags			sites
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]catalogapp.PingResult]
//	@Security		BearerAuth
//	@Router			/sync/sites/ping [get]
func (h *SyncHandler) PingAllSites(c *gin.Context) {
	results := h.sites.PingAll(c.Request.Context())
	h.SuccessWithMeta(c, results, len(results), len(results))
}
