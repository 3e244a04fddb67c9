package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	orderapp "github.com/shopsync/backend/internal/application/order"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/scheduler"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

const defaultJobHistoryLimit = 50

// OrderSyncer sweeps storefront orders into the canonical store
type OrderSyncer interface {
	SyncOrders(ctx context.Context, req orderapp.SyncOrdersRequest) (*orderapp.SyncOrdersResult, error)
}

// OrderUpdater writes order changes back to a storefront
type OrderUpdater interface {
	UpdateOrderStatus(ctx context.Context, site shared.SiteCode, remoteID int64, status string) (*orderapp.StatusUpdate, error)
	AddOrderNote(ctx context.Context, site shared.SiteCode, remoteID int64, note string, customerNote bool) (*orderapp.NoteAdded, error)
}

// SweepJobs exposes the scheduler job history
type SweepJobs interface {
	GetJobHistory(limit int) []*scheduler.SweepJob
	GetJobHistoryBySite(site shared.SiteCode, limit int) []*scheduler.SweepJob
	GetJob(id uuid.UUID) (*scheduler.SweepJob, error)
}

// ManualSweeper queues sweeps outside the schedule
type ManualSweeper interface {
	TriggerManual(ctx context.Context, site shared.SiteCode, since *time.Time) ([]*scheduler.SweepJob, error)
}

// OrderHandler serves the order sync endpoints
type OrderHandler struct {
	BaseHandler
	sweeper OrderSyncer
	orders  OrderUpdater
	jobs    SweepJobs
	trigger ManualSweeper
}

// NewOrderHandler creates a new OrderHandler. jobs and trigger may be nil
// when the scheduler is disabled.
func NewOrderHandler(sweeper OrderSyncer, orders OrderUpdater, jobs SweepJobs, trigger ManualSweeper) *OrderHandler {
	return &OrderHandler{sweeper: sweeper, orders: orders, jobs: jobs, trigger: trigger}
}

// SyncOrders godoc
// @ID           syncOrders
//
//	@Summary		Sweep storefront orders
//	@Description	Page through orders of one site, or of every site, and upsert them. Per-site failures are reported in the body.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		orderapp.SyncOrdersRequest	false	"Sweep filter"
//	@Success		200		{object}	APIResponse[orderapp.SyncOrdersResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/orders [post]
func (h *OrderHandler) SyncOrders(c *gin.Context) {
	var req orderapp.SyncOrdersRequest
	// an empty body sweeps every site
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.sweeper.SyncOrders(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !result.AllSucceeded() {
		logger.GetGinLogger(c).Warn("Order sweep finished with failures",
			zap.String("site", req.Site.String()),
			zap.Int("sites", len(result.Results)),
		)
	}
	h.Success(c, result)
}

// parseOrderKey reads the :site and :id path parameters
func (h *OrderHandler) parseOrderKey(c *gin.Context) (shared.SiteCode, int64, bool) {
	site, err := shared.ParseSiteCode(c.Param("site"))
	if err != nil {
		h.HandleError(c, err)
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.ErrorWithCode(c, dto.ErrCodeInvalidOrder, "order id must be a positive integer")
		return "", 0, false
	}
	return site, id, true
}

// UpdateStatus godoc
// @ID           updateOrderStatus
//
//	@Summary		Change an order status
//	@Description	Set the status on the storefront, then in the canonical store. A canonical failure is returned as a warning.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			site	path		string						true	"Site code"
//	@Param			id		path		int							true	"Storefront order id"
//	@Param			request	body		UpdateOrderStatusRequest	true	"New status"
//	@Success		200		{object}	APIResponse[orderapp.StatusUpdate]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{site}/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	site, id, ok := h.parseOrderKey(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orders.UpdateOrderStatus(c.Request.Context(), site, id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AddNote godoc
// @ID           addOrderNote
//
//	@Summary		Add an order note
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			site	path		string				true	"Site code"
//	@Param			id		path		int					true	"Storefront order id"
//	@Param			request	body		AddOrderNoteRequest	true	"Note"
//	@Success		201		{object}	APIResponse[orderapp.NoteAdded]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/orders/{site}/{id}/notes [post]
func (h *OrderHandler) AddNote(c *gin.Context) {
	site, id, ok := h.parseOrderKey(c)
	if !ok {
		return
	}
	var req AddOrderNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orders.AddOrderNote(c.Request.Context(), site, id, req.Note, req.CustomerNote)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListJobs godoc
// @ID           listSweepJobs
//
//	@Summary		Order sweep job history
//	@Description	Most recent scheduler jobs, newest first
//	@Tags			orders
//	@Produce		json
//	@Param			site	query		string	false	"Site code"
//	@Param			limit	query		int		false	"Max jobs"	default(50)
//	@Success		200		{object}	APIResponse[[]scheduler.SweepJob]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/orders/jobs [get]
func (h *OrderHandler) ListJobs(c *gin.Context) {
	if h.jobs == nil {
		h.ErrorWithCode(c, dto.ErrCodeSchedulerUnavailable, "order sweep scheduler is disabled")
		return
	}
	var q SweepJobsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultJobHistoryLimit
	}

	var jobs []*scheduler.SweepJob
	if q.Site == "" {
		jobs = h.jobs.GetJobHistory(limit)
	} else {
		site, err := shared.ParseSiteCode(q.Site)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		jobs = h.jobs.GetJobHistoryBySite(site, limit)
	}
	h.SuccessWithMeta(c, jobs, len(jobs), limit)
}

// GetJob godoc
// @ID           getSweepJob
//
//	@Summary		One order sweep job
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[scheduler.SweepJob]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/orders/jobs/{id} [get]
func (h *OrderHandler) GetJob(c *gin.Context) {
	if h.jobs == nil {
		h.ErrorWithCode(c, dto.ErrCodeSchedulerUnavailable, "order sweep scheduler is disabled")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}
	job, err := h.jobs.GetJob(id)
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}
	h.Success(c, job)
}

// TriggerSweep godoc
// @ID           triggerSweep
//
//	@Summary		Queue order sweeps now
//	@Description	Queue an incremental sweep of one site, or of every site. since overrides the watermark.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TriggerSweepRequest	false	"Trigger request"
//	@Success		202		{object}	APIResponse[[]scheduler.SweepJob]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/orders/jobs [post]
func (h *OrderHandler) TriggerSweep(c *gin.Context) {
	if h.trigger == nil {
		h.ErrorWithCode(c, dto.ErrCodeSchedulerUnavailable, "order sweep scheduler is disabled")
		return
	}
	var req TriggerSweepRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	var site shared.SiteCode
	if req.Site != "" {
		parsed, err := shared.ParseSiteCode(req.Site)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		site = parsed
	}
	var since *time.Time
	if req.Since != "" {
		t, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	jobs, err := h.trigger.TriggerManual(c.Request.Context(), site, since)
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}
	h.Accepted(c, jobs)
}

func (h *OrderHandler) handleSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.NotFound(c, err.Error())
	case errors.Is(err, scheduler.ErrSweepSiteUnknown):
		h.ErrorWithCode(c, dto.ErrCodeInvalidSite, err.Error())
	case errors.Is(err, scheduler.ErrSweepInvalidWindow):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, scheduler.ErrSchedulerNotRunning), errors.Is(err, scheduler.ErrJobQueueFull):
		h.ErrorWithCode(c, dto.ErrCodeSchedulerUnavailable, err.Error())
	default:
		h.HandleError(c, err)
	}
}
