package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Order (ingested snapshot of a remote order)
// ---------------------------------------------------------------------------

// Address is a flattened billing or shipping address
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName joins first and last name
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// LineItem is a point-in-time copy of an ordered product
type LineItem struct {
	RemoteID    int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// ShippingLine is a point-in-time copy of a shipping charge
type ShippingLine struct {
	MethodID    string          `json:"method_id,omitempty"`
	MethodTitle string          `json:"method_title,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

// Order is identified by (Site, RemoteID)
type Order struct {
	Site     shared.SiteCode
	RemoteID int64
	Number   string
	Status   string
	Currency string

	Total         decimal.Decimal
	Subtotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal
	TotalTax      decimal.Decimal

	CustomerEmail string
	CustomerName  string
	Billing       Address
	Shipping      Address

	PaymentMethod      string
	PaymentMethodTitle string

	DateCreated   *time.Time
	DateModified  *time.Time
	DatePaid      *time.Time
	DateCompleted *time.Time

	LineItems     []LineItem
	ShippingLines []ShippingLine
	NoteCount     int
	SyncedAt      time.Time
}

// Key is the natural key of an order
type Key struct {
	Site     shared.SiteCode
	RemoteID int64
}

// Key returns the natural key
func (o *Order) Key() Key {
	return Key{Site: o.Site, RemoteID: o.RemoteID}
}

// Validate checks identity fields
func (o *Order) Validate() error {
	if !o.Site.IsValid() {
		return ErrOrderInvalidSite
	}
	if o.RemoteID <= 0 {
		return ErrOrderInvalidRemoteID
	}
	return nil
}

// ItemCount returns the total quantity across line items
func (o *Order) ItemCount() int {
	n := 0
	for _, li := range o.LineItems {
		n += li.Quantity
	}
	return n
}

// terminalStatuses are storefront statuses after which only status
// transitions and notes change the order
var terminalStatuses = map[string]bool{
	"completed": true,
	"cancelled": true,
	"refunded":  true,
	"failed":    true,
	"trash":     true,
}

// IsTerminal reports whether the order reached a terminal status
func (o *Order) IsTerminal() bool {
	return terminalStatuses[o.Status]
}

// knownStatuses are the storefront order statuses accepted for updates
var knownStatuses = map[string]bool{
	"pending":    true,
	"processing": true,
	"on-hold":    true,
	"completed":  true,
	"cancelled":  true,
	"refunded":   true,
	"failed":     true,
}

// IsKnownStatus reports whether s can be sent as an order status update
func IsKnownStatus(s string) bool {
	return knownStatuses[s]
}
