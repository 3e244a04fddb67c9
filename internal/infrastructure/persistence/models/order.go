package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
)

// OrderModel is an ingested storefront order, unique per (site, remote_order_id).
// Billing and shipping blocks are flattened into columns.
type OrderModel struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Site          string          `gorm:"column:site;size:16;not null;uniqueIndex:idx_orders_site_remote"`
	RemoteOrderID int64           `gorm:"column:remote_order_id;not null;uniqueIndex:idx_orders_site_remote"`
	Number        string          `gorm:"column:number;size:64"`
	Status        string          `gorm:"column:status;size:32;index"`
	Currency      string          `gorm:"column:currency;size:8"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null;default:0"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:decimal(18,2);not null;default:0"`
	ShippingTotal decimal.Decimal `gorm:"column:shipping_total;type:decimal(18,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"column:discount_total;type:decimal(18,2);not null;default:0"`
	TotalTax      decimal.Decimal `gorm:"column:total_tax;type:decimal(18,2);not null;default:0"`
	CustomerEmail string          `gorm:"column:customer_email;size:255;index"`
	CustomerName  string          `gorm:"column:customer_name;size:255"`

	BillingFirstName  string `gorm:"column:billing_first_name;size:100"`
	BillingLastName   string `gorm:"column:billing_last_name;size:100"`
	BillingCompany    string `gorm:"column:billing_company;size:255"`
	BillingAddress1   string `gorm:"column:billing_address_1;size:255"`
	BillingAddress2   string `gorm:"column:billing_address_2;size:255"`
	BillingCity       string `gorm:"column:billing_city;size:100"`
	BillingState      string `gorm:"column:billing_state;size:100"`
	BillingPostcode   string `gorm:"column:billing_postcode;size:32"`
	BillingCountry    string `gorm:"column:billing_country;size:8"`
	BillingPhone      string `gorm:"column:billing_phone;size:64"`
	ShippingFirstName string `gorm:"column:shipping_first_name;size:100"`
	ShippingLastName  string `gorm:"column:shipping_last_name;size:100"`
	ShippingCompany   string `gorm:"column:shipping_company;size:255"`
	ShippingAddress1  string `gorm:"column:shipping_address_1;size:255"`
	ShippingAddress2  string `gorm:"column:shipping_address_2;size:255"`
	ShippingCity      string `gorm:"column:shipping_city;size:100"`
	ShippingState     string `gorm:"column:shipping_state;size:100"`
	ShippingPostcode  string `gorm:"column:shipping_postcode;size:32"`
	ShippingCountry   string `gorm:"column:shipping_country;size:8"`
	ShippingPhone     string `gorm:"column:shipping_phone;size:64"`

	PaymentMethod      string     `gorm:"column:payment_method;size:64"`
	PaymentMethodTitle string     `gorm:"column:payment_method_title;size:255"`
	DateCreated        *time.Time `gorm:"column:date_created;index"`
	DateModified       *time.Time `gorm:"column:date_modified"`
	DatePaid           *time.Time `gorm:"column:date_paid"`
	DateCompleted      *time.Time `gorm:"column:date_completed"`
	LineItemsJSON      string     `gorm:"column:line_items;type:jsonb;not null;default:'[]'"`
	ShippingLinesJSON  string     `gorm:"column:shipping_lines;type:jsonb;not null;default:'[]'"`
	NoteCount          int        `gorm:"column:note_count;not null;default:0"`
	SyncedAt           time.Time  `gorm:"column:synced_at;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderUpsertColumns are overwritten when an ingested order already exists.
// note_count is kept: notes are appended through this service, not ingested.
var OrderUpsertColumns = []string{
	"number", "status", "currency", "total", "subtotal", "shipping_total", "discount_total", "total_tax",
	"customer_email", "customer_name",
	"billing_first_name", "billing_last_name", "billing_company", "billing_address_1", "billing_address_2",
	"billing_city", "billing_state", "billing_postcode", "billing_country", "billing_phone",
	"shipping_first_name", "shipping_last_name", "shipping_company", "shipping_address_1", "shipping_address_2",
	"shipping_city", "shipping_state", "shipping_postcode", "shipping_country", "shipping_phone",
	"payment_method", "payment_method_title",
	"date_created", "date_modified", "date_paid", "date_completed",
	"line_items", "shipping_lines", "synced_at", "updated_at",
}

// FromDomain populates the row from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) error {
	now := time.Now()
	m.Site = o.Site.String()
	m.RemoteOrderID = o.RemoteID
	m.Number = o.Number
	m.Status = o.Status
	m.Currency = o.Currency
	m.Total = o.Total
	m.Subtotal = o.Subtotal
	m.ShippingTotal = o.ShippingTotal
	m.DiscountTotal = o.DiscountTotal
	m.TotalTax = o.TotalTax
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName

	b, s := o.Billing, o.Shipping
	m.BillingFirstName, m.BillingLastName, m.BillingCompany = b.FirstName, b.LastName, b.Company
	m.BillingAddress1, m.BillingAddress2, m.BillingCity = b.Address1, b.Address2, b.City
	m.BillingState, m.BillingPostcode, m.BillingCountry, m.BillingPhone = b.State, b.Postcode, b.Country, b.Phone
	m.ShippingFirstName, m.ShippingLastName, m.ShippingCompany = s.FirstName, s.LastName, s.Company
	m.ShippingAddress1, m.ShippingAddress2, m.ShippingCity = s.Address1, s.Address2, s.City
	m.ShippingState, m.ShippingPostcode, m.ShippingCountry, m.ShippingPhone = s.State, s.Postcode, s.Country, s.Phone

	m.PaymentMethod = o.PaymentMethod
	m.PaymentMethodTitle = o.PaymentMethodTitle
	m.DateCreated = o.DateCreated
	m.DateModified = o.DateModified
	m.DatePaid = o.DatePaid
	m.DateCompleted = o.DateCompleted
	m.NoteCount = o.NoteCount

	var err error
	if m.LineItemsJSON, err = encodeJSON(o.LineItems, "[]"); err != nil {
		return err
	}
	if m.ShippingLinesJSON, err = encodeJSON(o.ShippingLines, "[]"); err != nil {
		return err
	}

	m.SyncedAt = o.SyncedAt
	if m.SyncedAt.IsZero() {
		m.SyncedAt = now
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return nil
}

// ToDomain converts the row to a domain Order
func (m *OrderModel) ToDomain() (*order.Order, error) {
	o := &order.Order{
		Site:          shared.SiteCode(m.Site),
		RemoteID:      m.RemoteOrderID,
		Number:        m.Number,
		Status:        m.Status,
		Currency:      m.Currency,
		Total:         m.Total,
		Subtotal:      m.Subtotal,
		ShippingTotal: m.ShippingTotal,
		DiscountTotal: m.DiscountTotal,
		TotalTax:      m.TotalTax,
		CustomerEmail: m.CustomerEmail,
		CustomerName:  m.CustomerName,
		Billing: order.Address{
			FirstName: m.BillingFirstName, LastName: m.BillingLastName, Company: m.BillingCompany,
			Address1: m.BillingAddress1, Address2: m.BillingAddress2, City: m.BillingCity,
			State: m.BillingState, Postcode: m.BillingPostcode, Country: m.BillingCountry,
			Email: m.CustomerEmail, Phone: m.BillingPhone,
		},
		Shipping: order.Address{
			FirstName: m.ShippingFirstName, LastName: m.ShippingLastName, Company: m.ShippingCompany,
			Address1: m.ShippingAddress1, Address2: m.ShippingAddress2, City: m.ShippingCity,
			State: m.ShippingState, Postcode: m.ShippingPostcode, Country: m.ShippingCountry,
			Phone: m.ShippingPhone,
		},
		PaymentMethod:      m.PaymentMethod,
		PaymentMethodTitle: m.PaymentMethodTitle,
		DateCreated:        m.DateCreated,
		DateModified:       m.DateModified,
		DatePaid:           m.DatePaid,
		DateCompleted:      m.DateCompleted,
		NoteCount:          m.NoteCount,
		SyncedAt:           m.SyncedAt,
	}
	if err := decodeJSON("line_items", m.LineItemsJSON, &o.LineItems); err != nil {
		return nil, err
	}
	if err := decodeJSON("shipping_lines", m.ShippingLinesJSON, &o.ShippingLines); err != nil {
		return nil, err
	}
	return o, nil
}
