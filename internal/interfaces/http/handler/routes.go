package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shopsync/backend/internal/interfaces/http/router"
)

// RouteGuards holds the per-scope middleware of the route groups.
// A nil guard is skipped.
type RouteGuards struct {
	SyncRead    gin.HandlerFunc
	SyncWrite   gin.HandlerFunc
	OrdersWrite gin.HandlerFunc
	// Idempotency is applied to non-repeatable creates
	Idempotency gin.HandlerFunc
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// SyncRoutes creates the route group for product sync endpoints
func SyncRoutes(h *SyncHandler, orders *OrderHandler, g RouteGuards) *router.DomainGroup {
	group := router.NewDomainGroup("sync", "/sync")

	// Products
	group.POST("/products", chain(g.SyncWrite, h.SyncProducts)...)
	group.POST("/products/pull", chain(g.SyncWrite, h.PullProducts)...)
	group.POST("/products/pull-batch", chain(g.SyncWrite, h.PullBatch)...)
	group.POST("/products/publish", chain(g.SyncWrite, g.Idempotency, h.PublishProduct)...)
	group.DELETE("/products/:sku", chain(g.SyncWrite, h.DeleteProduct)...)
	group.POST("/products/:sku/variants/rebuild", chain(g.SyncWrite, h.RebuildVariants)...)

	// Full pull
	group.POST("/full", chain(g.SyncWrite, h.StartFullPull)...)
	group.GET("/full/progress", chain(g.SyncRead, h.FullPullProgress)...)
	group.POST("/full/cancel", chain(g.SyncWrite, h.CancelFullPull)...)

	// Connection tests
	group.GET("/sites/ping", chain(g.SyncRead, h.PingAllSites)...)
	group.GET("/sites/:site/ping", chain(g.SyncRead, h.PingSite)...)

	// Order sweeps
	if orders != nil {
		group.POST("/orders", chain(g.OrdersWrite, orders.SyncOrders)...)
		group.GET("/orders/jobs", chain(g.SyncRead, orders.ListJobs)...)
		group.POST("/orders/jobs", chain(g.OrdersWrite, orders.TriggerSweep)...)
		group.GET("/orders/jobs/:id", chain(g.SyncRead, orders.GetJob)...)
	}

	return group
}

// OrderRoutes creates the route group for order write-back endpoints
func OrderRoutes(h *OrderHandler, g RouteGuards) *router.DomainGroup {
	group := router.NewDomainGroup("orders", "/orders")
	if g.OrdersWrite != nil {
		group.Use(g.OrdersWrite)
	}

	group.PUT("/:site/:id/status", h.UpdateStatus)
	group.POST("/:site/:id/notes", h.AddNote)

	return group
}

// SystemRoutes creates the route group for system endpoints
func SystemRoutes(h *SystemHandler, g RouteGuards) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")
	group.GET("/ping", h.Ping)
	group.GET("/info", chain(g.SyncRead, h.GetSystemInfo)...)
	return group
}
