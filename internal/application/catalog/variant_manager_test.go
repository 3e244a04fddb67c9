package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
)

func TestVariantPrices_Fields(t *testing.T) {
	tests := []struct {
		name        string
		price       string
		regular     string
		wantRegular string
		wantSale    string
		wantOnSale  bool
	}{
		{name: "discounted", price: "59.99", regular: "79.99", wantRegular: "79.99", wantSale: "59.99", wantOnSale: true},
		{name: "equal prices", price: "79.99", regular: "79.99", wantRegular: "79.99", wantSale: ""},
		{name: "regular below price", price: "79.99", regular: "59.99", wantRegular: "79.99", wantSale: ""},
		{name: "no regular price", price: "49.00", regular: "0", wantRegular: "49.00", wantSale: ""},
		{name: "no selling price", price: "0", regular: "65.5", wantRegular: "65.50", wantSale: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := VariantPrices{
				Price:        decimal.RequireFromString(tt.price),
				RegularPrice: decimal.RequireFromString(tt.regular),
			}
			regular, sale := vp.Fields()
			require.NotNil(t, regular)
			require.NotNil(t, sale)
			assert.Equal(t, tt.wantRegular, *regular)
			assert.Equal(t, tt.wantSale, *sale)
			assert.Equal(t, tt.wantOnSale, vp.OnSale())
		})
	}
}

func TestPricesFor_FallsBackToReferenceSite(t *testing.T) {
	p := catalog.Patch("SKU-1")
	p.Prices["com"] = decimal.NewFromInt(50)
	p.RegularPrices["com"] = decimal.NewFromInt(70)
	p.Prices["de"] = decimal.NewFromInt(45)

	vp := PricesFor(p, "de", "com")
	assert.True(t, vp.Price.Equal(decimal.NewFromInt(45)))
	assert.True(t, vp.RegularPrice.Equal(decimal.NewFromInt(70)))
}

func TestVariantManager_EnsureVariable(t *testing.T) {
	t.Run("converts simple product", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{
			SKU:        "MAN-2425-HOM-AAAAA",
			Type:       integration.ProductTypeSimple,
			Attributes: []integration.RemoteAttribute{{Name: "Team", Options: []string{"Man Utd"}}, {Name: "size", Options: []string{"X"}}},
		})
		m := NewVariantManager(newFakeProvider(com), nil)

		rp, snapshots, err := m.EnsureVariable(context.Background(), "com", id, []string{"S", "M"}, VariantPrices{Price: decimal.NewFromInt(30)})
		require.NoError(t, err)

		assert.Equal(t, integration.ProductTypeVariable, rp.Type)
		assert.Len(t, rp.Variations, 2)
		require.Len(t, snapshots, 2)
		assert.Equal(t, "S", snapshots[0].Size)
		assert.False(t, snapshots[0].ManageStock)
		require.Len(t, com.updates, 1)
		attrs := com.updates[0].Attributes
		require.Len(t, attrs, 2)
		assert.Equal(t, "Team", attrs[0].Name)
		assert.Equal(t, integration.SizeAttributeName, attrs[1].Name)
		assert.True(t, attrs[1].Variation)
		assert.Equal(t, []string{"S", "M"}, attrs[1].Options)

		require.Len(t, com.batches, 1)
		for _, v := range com.batches[0].Create {
			assert.False(t, v.ManageStock)
			assert.Equal(t, "instock", v.StockStatus)
		}
		assert.Equal(t, "MAN-2425-HOM-AAAAA-S", com.batches[0].Create[0].SKU)
	})

	t.Run("variable product with variants is unchanged", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable, Variations: []int64{1}})
		m := NewVariantManager(newFakeProvider(com), nil)

		_, snapshots, err := m.EnsureVariable(context.Background(), "com", id, []string{"S"}, VariantPrices{})
		require.NoError(t, err)
		assert.Empty(t, snapshots)
		assert.Empty(t, com.updates)
		assert.Empty(t, com.batches)
	})
}

func TestVariantManager_SyncPrices(t *testing.T) {
	product := func() *catalog.Product {
		p := catalog.Patch("SKU-1")
		p.Prices["com"] = decimal.RequireFromString("59.99")
		p.RegularPrices["com"] = decimal.RequireFromString("79.99")
		return p
	}

	t.Run("updates existing variants without managing stock", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable},
			integration.RemoteVariation{ID: 1, ManageStock: true, Attributes: []integration.RemoteVariationAttribute{{Name: "Size", Option: "S"}}},
			integration.RemoteVariation{ID: 2, Attributes: []integration.RemoteVariationAttribute{{Name: "Size", Option: "M"}}},
		)
		m := NewVariantManager(newFakeProvider(com), nil)

		snaps, err := m.SyncPrices(context.Background(), "com", id, product())
		require.NoError(t, err)

		require.Len(t, com.batches, 1)
		batch := com.batches[0]
		assert.Empty(t, batch.Create)
		require.Len(t, batch.Update, 2)
		for _, u := range batch.Update {
			assert.False(t, u.ManageStock)
			assert.Equal(t, "79.99", *u.RegularPrice)
			assert.Equal(t, "59.99", *u.SalePrice)
		}
		require.Len(t, snaps, 2)
		assert.Equal(t, "S", snaps[0].Size)
		assert.False(t, snaps[0].ManageStock)
		assert.True(t, snaps[1].SalePrice.Equal(decimal.RequireFromString("59.99")))
	})

	t.Run("creates variants when none exist", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable})
		m := NewVariantManager(newFakeProvider(com), nil)

		p := product()
		p.Attributes.Gender = "Kids"
		snaps, err := m.SyncPrices(context.Background(), "com", id, p)
		require.NoError(t, err)

		require.Len(t, com.batches, 1)
		assert.Len(t, com.batches[0].Create, 7)
		assert.Len(t, snaps, 7)
		assert.Equal(t, "16", snaps[0].Size)
	})

	t.Run("item errors are folded into one error", func(t *testing.T) {
		res := &integration.VariationBatchResult{Update: []integration.RemoteVariation{
			{ID: 1, Error: &integration.RemoteItemError{Code: "invalid", Message: "bad price"}},
			{ID: 2},
		}}
		err := batchError(res)
		require.Error(t, err)
		assert.ErrorIs(t, err, integration.ErrRemoteRequestFailed)
		assert.Contains(t, err.Error(), "1 variation operations failed")
		assert.Contains(t, err.Error(), "bad price")
	})
}

func TestVariantManager_Rebuild(t *testing.T) {
	com := newFakeStore("com")
	id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable},
		integration.RemoteVariation{ID: 1}, integration.RemoteVariation{ID: 2}, integration.RemoteVariation{ID: 3},
	)
	m := NewVariantManager(newFakeProvider(com), nil)

	p := catalog.Patch("SKU-9")
	p.Prices["com"] = decimal.NewFromInt(40)
	deleted, created, err := m.Rebuild(context.Background(), "com", id, []string{"S", "M"}, p)
	require.NoError(t, err)

	assert.Equal(t, 3, deleted)
	require.Len(t, created, 2)
	require.Len(t, com.batches, 2)
	assert.Equal(t, []int64{1, 2, 3}, com.batches[0].Delete)
	assert.Len(t, com.batches[1].Create, 2)
	assert.Equal(t, "40.00", *com.batches[1].Create[0].RegularPrice)
	assert.Equal(t, "", *com.batches[1].Create[0].SalePrice)
}

func TestVariantManager_ReleaseStock(t *testing.T) {
	t.Run("clears manage_stock and keeps prices", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable},
			integration.RemoteVariation{ID: 1, RegularPrice: "79.99", SalePrice: "59.99", ManageStock: true},
			integration.RemoteVariation{ID: 2, RegularPrice: "79.99", ManageStock: true},
		)
		m := NewVariantManager(newFakeProvider(com), nil)

		snaps, err := m.ReleaseStock(context.Background(), "com", id)
		require.NoError(t, err)

		require.Len(t, com.batches, 1)
		require.Len(t, com.batches[0].Update, 2)
		for _, u := range com.batches[0].Update {
			assert.False(t, u.ManageStock)
			assert.Nil(t, u.RegularPrice)
			assert.Nil(t, u.SalePrice)
		}
		require.Len(t, snaps, 2)
		assert.False(t, snaps[0].ManageStock)
		assert.True(t, snaps[0].SalePrice.Equal(decimal.RequireFromString("59.99")))
		assert.True(t, snaps[1].RegularPrice.Equal(decimal.RequireFromString("79.99")))
	})

	t.Run("no variants sends nothing", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable})
		m := NewVariantManager(newFakeProvider(com), nil)

		snaps, err := m.ReleaseStock(context.Background(), "com", id)
		require.NoError(t, err)
		assert.Empty(t, snaps)
		assert.Empty(t, com.batches)
	})
}

func TestSnapshots_SkipsFailedItems(t *testing.T) {
	snaps := Snapshots([]integration.RemoteVariation{
		{ID: 1, RegularPrice: "10", Attributes: []integration.RemoteVariationAttribute{{Name: "Size", Option: "L"}}},
		{ID: 2, Error: &integration.RemoteItemError{Code: "x"}},
	})
	require.Len(t, snaps, 1)
	assert.Equal(t, "L", snaps[0].Size)
	assert.True(t, snaps[0].RegularPrice.Equal(decimal.NewFromInt(10)))
}
