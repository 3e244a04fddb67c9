package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// VariantPrices are the prices pushed to every variant of a product
type VariantPrices struct {
	Price        decimal.Decimal
	RegularPrice decimal.Decimal
}

// PricesFor returns the site prices of a product
func PricesFor(p *catalog.Product, site, ref shared.SiteCode) VariantPrices {
	return VariantPrices{
		Price:        p.PriceFor(site, ref),
		RegularPrice: p.RegularPriceFor(site, ref),
	}
}

// OnSale reports whether a discount applies: both prices positive and the
// regular price above the selling price
func (vp VariantPrices) OnSale() bool {
	return vp.Price.IsPositive() && vp.RegularPrice.IsPositive() && vp.RegularPrice.GreaterThan(vp.Price)
}

// Fields returns the regular_price and sale_price to send. Without a
// discount the flat price goes out as regular_price and sale_price is cleared.
func (vp VariantPrices) Fields() (regular, sale *string) {
	if vp.OnSale() {
		r, s := integration.MoneyFrom(vp.RegularPrice), integration.MoneyFrom(vp.Price)
		return &r, &s
	}
	flat := vp.Price
	if !flat.IsPositive() {
		flat = vp.RegularPrice
	}
	r, s := integration.MoneyFrom(flat), ""
	return &r, &s
}

// VariantManager keeps the size variants of a remote product in shape.
// The parent owns stock; variants never manage stock.
type VariantManager struct {
	stores integration.StoreClientProvider
	logger *zap.Logger
}

// NewVariantManager creates a new VariantManager
func NewVariantManager(stores integration.StoreClientProvider, logger *zap.Logger) *VariantManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantManager{stores: stores, logger: logger}
}

// SizeAttribute is the variation attribute listing the sizes
func SizeAttribute(sizes []string) integration.RemoteAttribute {
	return integration.RemoteAttribute{
		Name:      integration.SizeAttributeName,
		Options:   append([]string(nil), sizes...),
		Visible:   true,
		Variation: true,
	}
}

// EnsureVariable converts a simple product into a variable one with a Size
// attribute and one variant per size. A product that already has variants
// is returned unchanged with no snapshots.
func (m *VariantManager) EnsureVariable(ctx context.Context, site shared.SiteCode, remoteID int64, sizes []string, prices VariantPrices) (*integration.RemoteProduct, []catalog.VariationSnapshot, error) {
	client, err := m.stores.Client(site)
	if err != nil {
		return nil, nil, err
	}
	rp, err := client.GetProduct(ctx, remoteID)
	if err != nil {
		return nil, nil, err
	}
	return m.convert(ctx, client, rp, sizes, prices)
}

func (m *VariantManager) convert(ctx context.Context, client integration.StoreClient, rp *integration.RemoteProduct, sizes []string, prices VariantPrices) (*integration.RemoteProduct, []catalog.VariationSnapshot, error) {
	if rp.IsVariable() && len(rp.Variations) > 0 {
		return rp, nil, nil
	}
	if len(sizes) == 0 {
		return rp, nil, nil
	}

	attrs := make([]integration.RemoteAttribute, 0, len(rp.Attributes)+1)
	for _, a := range rp.Attributes {
		if !strings.EqualFold(a.Name, integration.SizeAttributeName) {
			attrs = append(attrs, a)
		}
	}
	attrs = append(attrs, SizeAttribute(sizes))

	updated, err := client.UpdateProduct(ctx, rp.ID, integration.ProductPayload{
		Type:       integration.ProductTypeVariable,
		Attributes: attrs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("convert product %d to variable: %w", rp.ID, err)
	}

	created, err := m.create(ctx, client, rp.ID, rp.SKU, sizes, prices)
	if err != nil {
		return nil, nil, err
	}
	m.logger.Info("Product converted to variable",
		zap.String("site", client.Site().String()),
		zap.Int64("remote_id", rp.ID),
		zap.Int("variants", len(created)),
	)
	updated.Variations = make([]int64, 0, len(created))
	for _, v := range created {
		updated.Variations = append(updated.Variations, v.ID)
	}
	return updated, Snapshots(created), nil
}

// SyncPrices pushes the product prices to every variant, creating the
// variants first when the product has none.
func (m *VariantManager) SyncPrices(ctx context.Context, site shared.SiteCode, remoteID int64, p *catalog.Product) ([]catalog.VariationSnapshot, error) {
	client, err := m.stores.Client(site)
	if err != nil {
		return nil, err
	}
	ref := m.stores.Sites().Reference()
	prices := PricesFor(p, site, ref)

	existing, err := client.ListVariations(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("list variations of %d: %w", remoteID, err)
	}
	if len(existing) == 0 {
		created, err := m.create(ctx, client, remoteID, p.SKU, p.Sizes(), prices)
		if err != nil {
			return nil, err
		}
		return Snapshots(created), nil
	}

	regular, sale := prices.Fields()
	batch := integration.VariationBatch{Update: make([]integration.VariationPayload, 0, len(existing))}
	for _, v := range existing {
		batch.Update = append(batch.Update, integration.VariationPayload{
			ID:           v.ID,
			RegularPrice: regular,
			SalePrice:    sale,
			ManageStock:  false,
		})
	}
	res, err := client.BatchVariations(ctx, remoteID, batch)
	if err != nil {
		return nil, fmt.Errorf("update variations of %d: %w", remoteID, err)
	}
	if err := batchError(res); err != nil {
		return nil, err
	}
	return Snapshots(res.Update), nil
}

// ReleaseStock turns stock management off on every existing variant and
// leaves their prices alone. The parent carries the quantity.
func (m *VariantManager) ReleaseStock(ctx context.Context, site shared.SiteCode, remoteID int64) ([]catalog.VariationSnapshot, error) {
	client, err := m.stores.Client(site)
	if err != nil {
		return nil, err
	}
	existing, err := client.ListVariations(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("list variations of %d: %w", remoteID, err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	batch := integration.VariationBatch{Update: make([]integration.VariationPayload, 0, len(existing))}
	for _, v := range existing {
		batch.Update = append(batch.Update, integration.VariationPayload{ID: v.ID, ManageStock: false})
	}
	res, err := client.BatchVariations(ctx, remoteID, batch)
	if err != nil {
		return nil, fmt.Errorf("update variations of %d: %w", remoteID, err)
	}
	if err := batchError(res); err != nil {
		return nil, err
	}
	return Snapshots(res.Update), nil
}

// Rebuild deletes every variant and recreates one per size. Remote variant
// ids change, so orders referencing the old ids lose their link.
func (m *VariantManager) Rebuild(ctx context.Context, site shared.SiteCode, remoteID int64, sizes []string, p *catalog.Product) (deleted int, created []integration.RemoteVariation, err error) {
	client, err := m.stores.Client(site)
	if err != nil {
		return 0, nil, err
	}
	m.logger.Warn("Rebuilding variants: existing variant ids will be deleted",
		zap.String("site", site.String()),
		zap.String("sku", p.SKU),
		zap.Int64("remote_id", remoteID),
	)

	existing, err := client.ListVariations(ctx, remoteID)
	if err != nil {
		return 0, nil, fmt.Errorf("list variations of %d: %w", remoteID, err)
	}
	if len(existing) > 0 {
		ids := make([]int64, len(existing))
		for i, v := range existing {
			ids[i] = v.ID
		}
		res, err := client.BatchVariations(ctx, remoteID, integration.VariationBatch{Delete: ids})
		if err != nil {
			return 0, nil, fmt.Errorf("delete variations of %d: %w", remoteID, err)
		}
		if err := batchError(res); err != nil {
			return 0, nil, err
		}
		deleted = len(ids)
	}

	created, err = m.create(ctx, client, remoteID, p.SKU, sizes, PricesFor(p, site, m.stores.Sites().Reference()))
	if err != nil {
		return deleted, nil, err
	}
	return deleted, created, nil
}

// create batch-creates one variant per size
func (m *VariantManager) create(ctx context.Context, client integration.StoreClient, remoteID int64, sku string, sizes []string, prices VariantPrices) ([]integration.RemoteVariation, error) {
	if len(sizes) == 0 {
		return nil, nil
	}
	regular, sale := prices.Fields()
	batch := integration.VariationBatch{Create: make([]integration.VariationPayload, 0, len(sizes))}
	for _, size := range sizes {
		v := integration.VariationPayload{
			RegularPrice: regular,
			SalePrice:    sale,
			ManageStock:  false,
			StockStatus:  string(catalog.StockStatusInStock),
			Attributes: []integration.RemoteVariationAttribute{
				{Name: integration.SizeAttributeName, Option: size},
			},
		}
		if sku != "" {
			v.SKU = sku + "-" + size
		}
		batch.Create = append(batch.Create, v)
	}
	res, err := client.BatchVariations(ctx, remoteID, batch)
	if err != nil {
		return nil, fmt.Errorf("create variations of %d: %w", remoteID, err)
	}
	if err := batchError(res); err != nil {
		return nil, err
	}
	return res.Create, nil
}

// batchError folds per-item failures of a batch response into one error
func batchError(res *integration.VariationBatchResult) error {
	if res == nil {
		return nil
	}
	errs := res.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Code + ": " + e.Message
	}
	return fmt.Errorf("%w: %d variation operations failed: %s",
		integration.ErrRemoteRequestFailed, len(errs), strings.Join(msgs, "; "))
}

// Snapshots converts remote variations into canonical snapshots
func Snapshots(vs []integration.RemoteVariation) []catalog.VariationSnapshot {
	out := make([]catalog.VariationSnapshot, 0, len(vs))
	for _, v := range vs {
		if v.Error != nil {
			continue
		}
		out = append(out, catalog.VariationSnapshot{
			ID:           v.ID,
			SKU:          v.SKU,
			Size:         v.Size(),
			RegularPrice: v.RegularPrice.Decimal(),
			SalePrice:    v.SalePrice.Decimal(),
			StockStatus:  catalog.StockStatus(v.StockStatus),
			ManageStock:  bool(v.ManageStock),
		})
	}
	return out
}
