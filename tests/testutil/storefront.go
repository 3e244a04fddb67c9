package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/woocommerce"
)

const (
	fakeConsumerKey    = "ck_test"
	fakeConsumerSecret = "cs_test"
	fakeTimeLayout     = "2006-01-02T15:04:05"
)

// RecordedRequest is one call received by a FakeStorefront
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// FakeOrder is an order held by a FakeStorefront
type FakeOrder struct {
	ID           int64
	Status       string
	Total        string
	Email        string
	DateCreated  time.Time
	DateModified time.Time
	Notes        []string
}

// FakeStorefront serves the subset of the storefront REST API the sync
// engine calls, backed by in-memory state.
type FakeStorefront struct {
	Site   shared.SiteCode
	server *httptest.Server

	mu         sync.Mutex
	nextID     int64
	products   map[int64]*integration.RemoteProduct
	variations map[int64][]integration.RemoteVariation
	categories []integration.RemoteCategory
	orders     map[int64]*FakeOrder
	requests   []RecordedRequest
	failNext   int
}

// NewFakeStorefront starts a storefront for site; it is closed on test cleanup
func NewFakeStorefront(t *testing.T, site shared.SiteCode) *FakeStorefront {
	t.Helper()

	f := &FakeStorefront{
		Site:       site,
		nextID:     1000,
		products:   make(map[int64]*integration.RemoteProduct),
		variations: make(map[int64][]integration.RemoteVariation),
		orders:     make(map[int64]*FakeOrder),
	}

	engine := gin.New()
	api := engine.Group("/wp-json/wc/v3", f.record, gin.BasicAuth(gin.Accounts{fakeConsumerKey: fakeConsumerSecret}), f.injectFailure)
	api.GET("/products", f.listProducts)
	api.POST("/products", f.createProduct)
	api.GET("/products/categories", f.listCategories)
	api.POST("/products/categories", f.createCategory)
	api.GET("/products/:id", f.getProduct)
	api.PUT("/products/:id", f.updateProduct)
	api.DELETE("/products/:id", f.deleteProduct)
	api.GET("/products/:id/variations", f.listVariations)
	api.POST("/products/:id/variations/batch", f.batchVariations)
	api.GET("/orders", f.listOrders)
	api.GET("/orders/:id", f.getOrder)
	api.PUT("/orders/:id", f.updateOrder)
	api.POST("/orders/:id/notes", f.addNote)

	f.server = httptest.NewServer(engine)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the storefront root
func (f *FakeStorefront) URL() string {
	return f.server.URL
}

// SiteConfig returns a client config pointing at the storefront
func (f *FakeStorefront) SiteConfig() woocommerce.SiteConfig {
	return woocommerce.SiteConfig{
		Code:           f.Site,
		BaseURL:        f.server.URL,
		ConsumerKey:    fakeConsumerKey,
		ConsumerSecret: fakeConsumerSecret,
		Timeout:        5 * time.Second,
		PerPage:        10,
		PageCeiling:    50,
	}
}

// FailNext makes the next n API calls answer 503
func (f *FakeStorefront) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

// AddProduct stores a product and its variations and returns its remote id
func (f *FakeStorefront) AddProduct(p integration.RemoteProduct, vs ...integration.RemoteVariation) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	p.ID = f.allocID()
	p.Variations = nil
	for i := range vs {
		vs[i].ID = f.allocID()
		p.Variations = append(p.Variations, vs[i].ID)
	}
	f.products[p.ID] = &p
	f.variations[p.ID] = vs
	return p.ID
}

// Product returns a copy of the stored product
func (f *FakeStorefront) Product(id int64) (integration.RemoteProduct, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return integration.RemoteProduct{}, false
	}
	return *p, true
}

// Variations returns a copy of the stored variations of a product
func (f *FakeStorefront) Variations(id int64) []integration.RemoteVariation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]integration.RemoteVariation(nil), f.variations[id]...)
}

// AddCategory stores a category and returns its remote id
func (f *FakeStorefront) AddCategory(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.allocID()
	f.categories = append(f.categories, integration.RemoteCategory{ID: id, Name: name})
	return id
}

// AddOrder stores an order
func (f *FakeStorefront) AddOrder(o FakeOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = &o
}

// Order returns a copy of the stored order
func (f *FakeStorefront) Order(id int64) (FakeOrder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return FakeOrder{}, false
	}
	return *o, true
}

// Requests returns every call received so far
func (f *FakeStorefront) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// CountRequests counts calls with the method whose path equals path
func (f *FakeStorefront) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == "/wp-json/wc/v3"+path {
			n++
		}
	}
	return n
}

func (f *FakeStorefront) allocID() int64 {
	f.nextID++
	return f.nextID
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (f *FakeStorefront) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = c.GetRawData()
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Body:   body,
	})
	f.mu.Unlock()
	c.Next()
}

func (f *FakeStorefront) injectFailure(c *gin.Context) {
	f.mu.Lock()
	fail := f.failNext > 0
	if fail {
		f.failNext--
	}
	f.mu.Unlock()
	if fail {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"code": "unavailable", "message": "try again"})
		return
	}
	c.Next()
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func (f *FakeStorefront) listProducts(c *gin.Context) {
	f.mu.Lock()
	items := make([]integration.RemoteProduct, 0, len(f.products))
	for _, p := range f.products {
		if sku := c.Query("sku"); sku != "" && p.SKU != sku {
			continue
		}
		if status := c.Query("status"); status != "" && status != "any" && p.Status != status {
			continue
		}
		items = append(items, *p)
	}
	f.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c.JSON(http.StatusOK, paginate(c, items))
}

func (f *FakeStorefront) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, found := f.Product(id)
	if !found {
		notFound(c, "woocommerce_rest_product_invalid_id")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (f *FakeStorefront) createProduct(c *gin.Context) {
	var payload integration.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}
	p := integration.RemoteProduct{Type: payload.Type, SKU: payload.SKU, Status: payload.Status}
	if p.Type == "" {
		p.Type = integration.ProductTypeSimple
	}
	applyPayload(&p, payload)

	f.mu.Lock()
	p.ID = f.allocID()
	f.products[p.ID] = &p
	f.mu.Unlock()
	c.JSON(http.StatusCreated, p)
}

func (f *FakeStorefront) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload integration.ProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}

	f.mu.Lock()
	p, found := f.products[id]
	if found {
		applyPayload(p, payload)
		if payload.Images != nil {
			p.Images = payload.Images
		}
	}
	var out integration.RemoteProduct
	if found {
		out = *p
	}
	f.mu.Unlock()

	if !found {
		notFound(c, "woocommerce_rest_product_invalid_id")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeStorefront) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f.mu.Lock()
	p, found := f.products[id]
	delete(f.products, id)
	delete(f.variations, id)
	f.mu.Unlock()
	if !found {
		notFound(c, "woocommerce_rest_product_invalid_id")
		return
	}
	c.JSON(http.StatusOK, p)
}

func applyPayload(p *integration.RemoteProduct, payload integration.ProductPayload) {
	if payload.Name != nil {
		p.Name = *payload.Name
	}
	if payload.Type != "" {
		p.Type = payload.Type
	}
	if payload.Status != "" {
		p.Status = payload.Status
	}
	if payload.Description != nil {
		p.Description = *payload.Description
	}
	if payload.ShortDescription != nil {
		p.ShortDescription = *payload.ShortDescription
	}
	if payload.RegularPrice != nil {
		p.RegularPrice = integration.Money(*payload.RegularPrice)
		p.Price = p.RegularPrice
	}
	if payload.SalePrice != nil {
		p.SalePrice = integration.Money(*payload.SalePrice)
		if *payload.SalePrice != "" {
			p.Price = p.SalePrice
		}
	}
	if payload.ManageStock != nil {
		p.ManageStock = integration.FlexBool(*payload.ManageStock)
	}
	if payload.StockQuantity != nil {
		qty := *payload.StockQuantity
		p.StockQuantity = &qty
	}
	if payload.StockStatus != "" {
		p.StockStatus = payload.StockStatus
	}
	if payload.Categories != nil {
		p.Categories = payload.Categories
	}
	if payload.Attributes != nil {
		p.Attributes = payload.Attributes
	}
	if payload.Images != nil {
		p.Images = payload.Images
	}
}

// ---------------------------------------------------------------------------
// Variations
// ---------------------------------------------------------------------------

func (f *FakeStorefront) listVariations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f.mu.Lock()
	_, found := f.products[id]
	items := append([]integration.RemoteVariation(nil), f.variations[id]...)
	f.mu.Unlock()
	if !found {
		notFound(c, "woocommerce_rest_product_invalid_id")
		return
	}
	c.JSON(http.StatusOK, paginate(c, items))
}

func (f *FakeStorefront) batchVariations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var batch integration.VariationBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, found := f.products[id]
	if !found {
		notFound(c, "woocommerce_rest_product_invalid_id")
		return
	}

	var result integration.VariationBatchResult
	current := f.variations[id]
	for _, del := range batch.Delete {
		for i, v := range current {
			if v.ID == del {
				result.Delete = append(result.Delete, v)
				current = append(current[:i], current[i+1:]...)
				break
			}
		}
	}
	for _, upd := range batch.Update {
		for i := range current {
			if current[i].ID == upd.ID {
				applyVariation(&current[i], upd)
				result.Update = append(result.Update, current[i])
			}
		}
	}
	for _, cre := range batch.Create {
		v := integration.RemoteVariation{ID: f.allocID()}
		applyVariation(&v, cre)
		current = append(current, v)
		result.Create = append(result.Create, v)
	}
	f.variations[id] = current
	p.Variations = p.Variations[:0]
	for _, v := range current {
		p.Variations = append(p.Variations, v.ID)
	}
	c.JSON(http.StatusOK, result)
}

func applyVariation(v *integration.RemoteVariation, payload integration.VariationPayload) {
	if payload.SKU != "" {
		v.SKU = payload.SKU
	}
	if payload.RegularPrice != nil {
		v.RegularPrice = integration.Money(*payload.RegularPrice)
		v.Price = v.RegularPrice
	}
	if payload.SalePrice != nil {
		v.SalePrice = integration.Money(*payload.SalePrice)
		if *payload.SalePrice != "" {
			v.Price = v.SalePrice
		}
	}
	v.ManageStock = integration.FlexBool(payload.ManageStock)
	if payload.StockStatus != "" {
		v.StockStatus = payload.StockStatus
	}
	if payload.Attributes != nil {
		v.Attributes = payload.Attributes
	}
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (f *FakeStorefront) listCategories(c *gin.Context) {
	f.mu.Lock()
	items := append([]integration.RemoteCategory(nil), f.categories...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (f *FakeStorefront) createCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}
	f.mu.Lock()
	for _, cat := range f.categories {
		if cat.Name == body.Name {
			f.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"code": "term_exists", "message": "A term with the name provided already exists.", "data": gin.H{"resource_id": cat.ID}})
			return
		}
	}
	cat := integration.RemoteCategory{ID: f.allocID(), Name: body.Name}
	f.categories = append(f.categories, cat)
	f.mu.Unlock()
	c.JSON(http.StatusCreated, cat)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func (f *FakeStorefront) listOrders(c *gin.Context) {
	var modifiedAfter time.Time
	if raw := c.Query("modified_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": "modified_after"})
			return
		}
		modifiedAfter = t
	}
	status := c.DefaultQuery("status", "any")

	f.mu.Lock()
	items := make([]FakeOrder, 0, len(f.orders))
	for _, o := range f.orders {
		if status != "any" && o.Status != status {
			continue
		}
		if !modifiedAfter.IsZero() && !o.DateModified.After(modifiedAfter) {
			continue
		}
		items = append(items, *o)
	}
	f.mu.Unlock()

	// newest first
	sort.Slice(items, func(i, j int) bool { return items[i].DateCreated.After(items[j].DateCreated) })
	out := make([]gin.H, 0, len(items))
	for _, o := range paginate(c, items) {
		out = append(out, o.wire())
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeStorefront) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, found := f.Order(id)
	if !found {
		notFound(c, "woocommerce_rest_shop_order_invalid_id")
		return
	}
	c.JSON(http.StatusOK, o.wire())
}

func (f *FakeStorefront) updateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}
	f.mu.Lock()
	o, found := f.orders[id]
	var out gin.H
	if found {
		o.Status = body.Status
		o.DateModified = time.Now().UTC().Truncate(time.Second)
		out = o.wire()
	}
	f.mu.Unlock()
	if !found {
		notFound(c, "woocommerce_rest_shop_order_invalid_id")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeStorefront) addNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Note         string `json:"note" binding:"required"`
		CustomerNote bool   `json:"customer_note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "rest_invalid_param", "message": err.Error()})
		return
	}
	f.mu.Lock()
	o, found := f.orders[id]
	var noteID int64
	if found {
		o.Notes = append(o.Notes, body.Note)
		noteID = f.allocID()
	}
	f.mu.Unlock()
	if !found {
		notFound(c, "woocommerce_rest_shop_order_invalid_id")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":            noteID,
		"note":          body.Note,
		"customer_note": body.CustomerNote,
		"date_created":  time.Now().UTC().Format(fakeTimeLayout),
	})
}

func (o FakeOrder) wire() gin.H {
	total := o.Total
	if total == "" {
		total = "0.00"
	}
	return gin.H{
		"id":             o.ID,
		"number":         strconv.FormatInt(o.ID, 10),
		"status":         o.Status,
		"currency":       "GBP",
		"total":          total,
		"shipping_total": "0.00",
		"discount_total": "0.00",
		"total_tax":      "0.00",
		"billing":        gin.H{"first_name": "Test", "last_name": "Customer", "email": o.Email, "country": "GB"},
		"shipping":       gin.H{"first_name": "Test", "last_name": "Customer", "country": "GB"},
		"payment_method": "stripe",
		"date_created":   o.DateCreated.UTC().Format(fakeTimeLayout),
		"date_modified":  o.DateModified.UTC().Format(fakeTimeLayout),
		"date_paid":      nil,
		"line_items": []gin.H{{
			"id": o.ID*10 + 1, "product_id": 1, "sku": "TST-2425-HOM-AAAAA", "name": "Home Jersey",
			"quantity": 1, "price": 49.99, "subtotal": total, "total": total,
		}},
		"shipping_lines": []gin.H{},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func paginate[T any](c *gin.Context, items []T) []T {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	c.Header("X-WP-Total", strconv.Itoa(len(items)))
	c.Header("X-WP-TotalPages", strconv.Itoa((len(items)+perPage-1)/perPage))
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c, "rest_no_route")
		return 0, false
	}
	return id, true
}

func notFound(c *gin.Context, code string) {
	c.JSON(http.StatusNotFound, gin.H{"code": code, "message": "Invalid ID.", "data": gin.H{"status": http.StatusNotFound}})
}

// MustJSON marshals v or fails the test
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
