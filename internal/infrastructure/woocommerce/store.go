package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, id int64) (*integration.RemoteProduct, error) {
	path := productPath(id)
	raw, err := c.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	p, err := decode[integration.RemoteProduct](c, http.MethodGet, path, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, payload integration.ProductPayload) (*integration.RemoteProduct, error) {
	raw, err := c.Request(ctx, http.MethodPost, "/products", nil, payload)
	if err != nil {
		return nil, err
	}
	p, err := decode[integration.RemoteProduct](c, http.MethodPost, "/products", raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct updates a product
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload integration.ProductPayload) (*integration.RemoteProduct, error) {
	path := productPath(id)
	raw, err := c.Request(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return nil, err
	}
	p, err := decode[integration.RemoteProduct](c, http.MethodPut, path, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct permanently deletes a product (force=true, no trash)
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := c.Request(ctx, http.MethodDelete, productPath(id), url.Values{"force": {"true"}}, nil)
	return err
}

// DetachImages removes every image from the product
func (c *Client) DetachImages(ctx context.Context, id int64) error {
	_, err := c.Request(ctx, http.MethodPut, productPath(id), nil, map[string]any{"images": []any{}})
	return err
}

// ListProducts lists every product matching the query
func (c *Client) ListProducts(ctx context.Context, q integration.ProductListQuery) ([]integration.RemoteProduct, integration.PageReport, error) {
	query := url.Values{}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.SKU != "" {
		query.Set("sku", q.SKU)
	}
	return getAllAs[integration.RemoteProduct](ctx, c, "/products", query, q.PerPage)
}

// Ping lists one product to check the site answers with valid credentials
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodGet, "/products", url.Values{"per_page": {"1"}}, nil)
	return err
}

// ---------------------------------------------------------------------------
// Variations
// ---------------------------------------------------------------------------

// ListVariations lists every variation of a product
func (c *Client) ListVariations(ctx context.Context, productID int64) ([]integration.RemoteVariation, error) {
	vs, _, err := getAllAs[integration.RemoteVariation](ctx, c, productPath(productID)+"/variations", nil, 100)
	return vs, err
}

// BatchVariations creates, updates and deletes variations in one call
func (c *Client) BatchVariations(ctx context.Context, productID int64, batch integration.VariationBatch) (*integration.VariationBatchResult, error) {
	path := productPath(productID) + "/variations/batch"
	raw, err := c.Request(ctx, http.MethodPost, path, nil, batch)
	if err != nil {
		return nil, err
	}
	res, err := decode[integration.VariationBatchResult](c, http.MethodPost, path, raw)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// ListCategories lists every product category
func (c *Client) ListCategories(ctx context.Context) ([]integration.RemoteCategory, integration.PageReport, error) {
	return getAllAs[integration.RemoteCategory](ctx, c, "/products/categories", nil, 100)
}

// CreateCategory creates a top-level category. A name the storefront already
// holds comes back as *integration.CategoryExistsError.
func (c *Client) CreateCategory(ctx context.Context, name string) (*integration.RemoteCategory, error) {
	const path = "/products/categories"
	raw, err := c.Request(ctx, http.MethodPost, path, nil, map[string]string{"name": name})
	if err != nil {
		if exists := termExists(err, name); exists != nil {
			return nil, exists
		}
		return nil, err
	}
	cat, err := decode[integration.RemoteCategory](c, http.MethodPost, path, raw)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// termExists recognizes the 400 answered for a taken category name
func termExists(err error, name string) error {
	var re *RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusBadRequest {
		return nil
	}
	var body struct {
		Code string `json:"code"`
		Data struct {
			ResourceID int64 `json:"resource_id"`
		} `json:"data"`
	}
	if json.Unmarshal([]byte(re.Body), &body) != nil {
		// cut off by snippet; the id is looked up again by the caller
		if strings.Contains(re.Body, `"term_exists"`) {
			return &integration.CategoryExistsError{Name: name}
		}
		return nil
	}
	if body.Code != "term_exists" {
		return nil
	}
	return &integration.CategoryExistsError{Name: name, ID: body.Data.ResourceID}
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ListOrders lists orders newest first
func (c *Client) ListOrders(ctx context.Context, q integration.OrderListQuery) ([]integration.RemoteOrder, integration.PageReport, error) {
	query := url.Values{}
	status := q.Status
	if status == "" {
		status = "any"
	}
	query.Set("status", status)
	query.Set("orderby", "date")
	query.Set("order", "desc")
	if q.After != nil {
		query.Set("after", q.After.UTC().Format(time.RFC3339))
	}
	if q.ModifiedAfter != nil {
		query.Set("modified_after", q.ModifiedAfter.UTC().Format(time.RFC3339))
	}
	return getAllAs[integration.RemoteOrder](ctx, c, "/orders", query, q.PerPage)
}

// GetOrder fetches one order
func (c *Client) GetOrder(ctx context.Context, id int64) (*integration.RemoteOrder, error) {
	path := orderPath(id)
	raw, err := c.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	o, err := decode[integration.RemoteOrder](c, http.MethodGet, path, raw)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus changes the status of an order
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (*integration.RemoteOrder, error) {
	path := orderPath(id)
	raw, err := c.Request(ctx, http.MethodPut, path, nil, map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	o, err := decode[integration.RemoteOrder](c, http.MethodPut, path, raw)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// AddOrderNote appends a note to an order
func (c *Client) AddOrderNote(ctx context.Context, id int64, note string, customerNote bool) (*integration.RemoteOrderNote, error) {
	path := orderPath(id) + "/notes"
	body := map[string]any{"note": note, "customer_note": customerNote}
	raw, err := c.Request(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	n, err := decode[integration.RemoteOrderNote](c, http.MethodPost, path, raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func orderPath(id int64) string {
	return fmt.Sprintf("/orders/%d", id)
}

var _ integration.StoreClient = (*Client)(nil)
