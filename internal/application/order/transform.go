package order

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/integration"
	domain "github.com/shopsync/backend/internal/domain/order"
	"github.com/shopsync/backend/internal/domain/shared"
)

// FromRemote flattens a storefront order into the canonical shape.
// Money becomes decimal and missing or unparseable dates become nil.
func FromRemote(site shared.SiteCode, r integration.RemoteOrder, syncedAt time.Time) *domain.Order {
	o := &domain.Order{
		Site:               site,
		RemoteID:           r.ID,
		Number:             r.Number,
		Status:             r.Status,
		Currency:           r.Currency,
		Total:              r.Total.Decimal(),
		ShippingTotal:      r.ShippingTotal.Decimal(),
		DiscountTotal:      r.DiscountTotal.Decimal(),
		TotalTax:           r.TotalTax.Decimal(),
		CustomerEmail:      r.Billing.Email,
		Billing:            addressFromRemote(r.Billing),
		Shipping:           addressFromRemote(r.Shipping),
		PaymentMethod:      r.PaymentMethod,
		PaymentMethodTitle: r.PaymentMethodTitle,
		DateCreated:        r.DateCreated.Ptr(),
		DateModified:       r.DateModified.Ptr(),
		DatePaid:           r.DatePaid.Ptr(),
		DateCompleted:      r.DateCompleted.Ptr(),
		SyncedAt:           syncedAt,
	}
	if o.Number == "" {
		o.Number = strconv.FormatInt(r.ID, 10)
	}
	o.CustomerName = o.Billing.FullName()

	subtotal := decimal.Zero
	o.LineItems = make([]domain.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		line := li.Subtotal.Decimal()
		if !li.Subtotal.IsSet() {
			line = li.Total.Decimal()
		}
		subtotal = subtotal.Add(line)
		o.LineItems = append(o.LineItems, domain.LineItem{
			RemoteID:    li.ID,
			ProductID:   li.ProductID,
			VariationID: li.VariationID,
			SKU:         li.SKU,
			Name:        li.Name,
			Quantity:    li.Quantity,
			UnitPrice:   li.Price.Decimal(),
			Total:       li.Total.Decimal(),
		})
	}
	o.Subtotal = subtotal

	o.ShippingLines = make([]domain.ShippingLine, 0, len(r.ShippingLines))
	for _, sl := range r.ShippingLines {
		o.ShippingLines = append(o.ShippingLines, domain.ShippingLine{
			MethodID:    sl.MethodID,
			MethodTitle: sl.MethodTitle,
			Total:       sl.Total.Decimal(),
		})
	}
	return o
}

func addressFromRemote(a integration.RemoteAddress) domain.Address {
	return domain.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
