package integration

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Wire helpers
// ---------------------------------------------------------------------------

// Money is a storefront money value. Storefronts send prices as strings
// ("19.99", "") and line item prices as numbers; both decode.
type Money string

// UnmarshalJSON accepts a JSON string, number or null
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Money(strings.TrimSpace(s))
		return nil
	}
	*m = Money(data)
	return nil
}

// Decimal parses the value; empty or malformed values are zero
func (m Money) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(m))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsSet reports whether a value was sent
func (m Money) IsSet() bool {
	return m != ""
}

// MoneyFrom formats a decimal the way storefronts expect
func MoneyFrom(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FlexBool decodes true/false as well as storefront strings such as "parent"
// (a variant inheriting stock from its parent does not manage stock itself)
type FlexBool bool

// UnmarshalJSON accepts a JSON bool or string
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

// RemoteTime decodes storefront timestamps ("2024-01-02T10:00:00" in site
// time, optionally with a zone). Null, empty and unparseable values decode to nil.
type RemoteTime struct {
	time.Time
	Valid bool
}

var remoteTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// UnmarshalJSON never fails; bad dates become invalid times
func (t *RemoteTime) UnmarshalJSON(data []byte) error {
	*t = RemoteTime{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
		return nil
	}
	for _, layout := range remoteTimeLayouts {
		if parsed, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			t.Time = parsed
			t.Valid = true
			return nil
		}
	}
	return nil
}

// Ptr returns nil for an invalid time
func (t RemoteTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// Product types
const (
	ProductTypeSimple   = "simple"
	ProductTypeVariable = "variable"
)

// SizeAttributeName is the variation attribute carrying the size ladder
const SizeAttributeName = "Size"

// RemoteCategoryRef is a category attached to a product
type RemoteCategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// RemoteImage is an image attached to a product
type RemoteImage struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
}

// RemoteAttribute is a product attribute as reported by a storefront
type RemoteAttribute struct {
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// RemoteProduct is a storefront product
type RemoteProduct struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	SKU              string              `json:"sku"`
	Type             string              `json:"type"`
	Status           string              `json:"status"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	Price            Money               `json:"price"`
	RegularPrice     Money               `json:"regular_price"`
	SalePrice        Money               `json:"sale_price"`
	ManageStock      FlexBool            `json:"manage_stock"`
	StockQuantity    *int                `json:"stock_quantity"`
	StockStatus      string              `json:"stock_status"`
	Categories       []RemoteCategoryRef `json:"categories"`
	Images           []RemoteImage       `json:"images"`
	Attributes       []RemoteAttribute   `json:"attributes"`
	Variations       []int64             `json:"variations"`
}

// IsVariable reports whether the product carries variants
func (p *RemoteProduct) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// ProductPayload is a create/update body. Nil pointers are not sent.
type ProductPayload struct {
	Name             *string             `json:"name,omitempty"`
	Type             string              `json:"type,omitempty"`
	Status           string              `json:"status,omitempty"`
	SKU              string              `json:"sku,omitempty"`
	Description      *string             `json:"description,omitempty"`
	ShortDescription *string             `json:"short_description,omitempty"`
	RegularPrice     *string             `json:"regular_price,omitempty"`
	SalePrice        *string             `json:"sale_price,omitempty"`
	ManageStock      *bool               `json:"manage_stock,omitempty"`
	StockQuantity    *int                `json:"stock_quantity,omitempty"`
	StockStatus      string              `json:"stock_status,omitempty"`
	Categories       []RemoteCategoryRef `json:"categories,omitempty"`
	Images           []RemoteImage       `json:"images,omitempty"`
	Attributes       []RemoteAttribute   `json:"attributes,omitempty"`
}

// IsEmpty reports whether the payload would change nothing
func (p ProductPayload) IsEmpty() bool {
	return p.Name == nil && p.Type == "" && p.Status == "" && p.SKU == "" &&
		p.Description == nil && p.ShortDescription == nil && p.RegularPrice == nil &&
		p.SalePrice == nil && p.ManageStock == nil && p.StockQuantity == nil &&
		p.StockStatus == "" && p.Categories == nil && p.Images == nil && p.Attributes == nil
}

// ---------------------------------------------------------------------------
// Variations
// ---------------------------------------------------------------------------

// RemoteVariationAttribute is the option a variant selects
type RemoteVariationAttribute struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

// RemoteItemError is a per-item failure inside a batch response
type RemoteItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemoteVariation is a storefront size variant
type RemoteVariation struct {
	ID           int64                      `json:"id"`
	SKU          string                     `json:"sku"`
	Price        Money                      `json:"price"`
	RegularPrice Money                      `json:"regular_price"`
	SalePrice    Money                      `json:"sale_price"`
	ManageStock  FlexBool                   `json:"manage_stock"`
	StockStatus  string                     `json:"stock_status"`
	Attributes   []RemoteVariationAttribute `json:"attributes"`
	Error        *RemoteItemError           `json:"error,omitempty"`
}

// Size returns the option of the size attribute, or ""
func (v *RemoteVariation) Size() string {
	for _, a := range v.Attributes {
		if strings.EqualFold(a.Name, SizeAttributeName) {
			return a.Option
		}
	}
	return ""
}

// VariationPayload is a variant create/update body.
// ManageStock has no omitempty: false is always sent.
type VariationPayload struct {
	ID           int64                      `json:"id,omitempty"`
	SKU          string                     `json:"sku,omitempty"`
	RegularPrice *string                    `json:"regular_price,omitempty"`
	SalePrice    *string                    `json:"sale_price,omitempty"`
	ManageStock  bool                       `json:"manage_stock"`
	StockStatus  string                     `json:"stock_status,omitempty"`
	Attributes   []RemoteVariationAttribute `json:"attributes,omitempty"`
}

// VariationBatch is a batch create/update/delete body
type VariationBatch struct {
	Create []VariationPayload `json:"create,omitempty"`
	Update []VariationPayload `json:"update,omitempty"`
	Delete []int64            `json:"delete,omitempty"`
}

// Len returns the number of operations in the batch
func (b VariationBatch) Len() int {
	return len(b.Create) + len(b.Update) + len(b.Delete)
}

// VariationBatchResult is the batch response
type VariationBatchResult struct {
	Create []RemoteVariation `json:"create"`
	Update []RemoteVariation `json:"update"`
	Delete []RemoteVariation `json:"delete"`
}

// Errors returns the per-item failures of the batch
func (r *VariationBatchResult) Errors() []RemoteItemError {
	var out []RemoteItemError
	for _, group := range [][]RemoteVariation{r.Create, r.Update, r.Delete} {
		for _, v := range group {
			if v.Error != nil {
				out = append(out, *v.Error)
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// RemoteCategory is a storefront product category
type RemoteCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Parent int64  `json:"parent,omitempty"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// RemoteAddress is a storefront billing/shipping block
type RemoteAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// RemoteLineItem is an ordered product
type RemoteLineItem struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Price       Money  `json:"price"`
	Subtotal    Money  `json:"subtotal"`
	Total       Money  `json:"total"`
}

// RemoteShippingLine is a shipping charge
type RemoteShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       Money  `json:"total"`
}

// RemoteOrder is a storefront order
type RemoteOrder struct {
	ID                 int64                `json:"id"`
	Number             string               `json:"number"`
	Status             string               `json:"status"`
	Currency           string               `json:"currency"`
	Total              Money                `json:"total"`
	ShippingTotal      Money                `json:"shipping_total"`
	DiscountTotal      Money                `json:"discount_total"`
	TotalTax           Money                `json:"total_tax"`
	Billing            RemoteAddress        `json:"billing"`
	Shipping           RemoteAddress        `json:"shipping"`
	PaymentMethod      string               `json:"payment_method"`
	PaymentMethodTitle string               `json:"payment_method_title"`
	DateCreated        RemoteTime           `json:"date_created"`
	DateModified       RemoteTime           `json:"date_modified"`
	DatePaid           RemoteTime           `json:"date_paid"`
	DateCompleted      RemoteTime           `json:"date_completed"`
	LineItems          []RemoteLineItem     `json:"line_items"`
	ShippingLines      []RemoteShippingLine `json:"shipping_lines"`
}

// RemoteOrderNote is a note appended to an order
type RemoteOrderNote struct {
	ID           int64      `json:"id"`
	Note         string     `json:"note"`
	CustomerNote bool       `json:"customer_note"`
	DateCreated  RemoteTime `json:"date_created"`
}
