package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

func TestProductSyncService_DeleteProduct(t *testing.T) {
	t.Run("deletes local row when every site succeeded", func(t *testing.T) {
		com, uk, de := newFakeStore("com"), newFakeStore("uk"), newFakeStore("de")
		p := publishedProduct("SKU-1", com, uk)
		products := newMemProductRepo(p)
		h := newHarness(products, com, uk, de)

		res, err := h.svc.DeleteProduct(context.Background(), "SKU-1", nil, true)
		require.NoError(t, err)

		assert.True(t, res.LocalDeleted)
		assert.True(t, shared.AllSucceeded(res.Results))
		assert.Equal(t, []string{"skipped: not published on this site"}, res.Results[2].Warnings)
		assert.Len(t, com.deleted, 1)
		assert.Len(t, uk.deleted, 1)
		assert.Nil(t, products.get("SKU-1"))
		assert.Contains(t, h.pub.types(), integration.EventProductDeleted)
	})

	t.Run("partial failure keeps the row and clears succeeded sites", func(t *testing.T) {
		com, uk := newFakeStore("com"), newFakeStore("uk")
		p := publishedProduct("SKU-1", com, uk)
		uk.deleteErr = integration.ErrRemoteUnavailable
		products := newMemProductRepo(p)
		h := newHarness(products, com, uk)

		res, err := h.svc.DeleteProduct(context.Background(), "SKU-1", nil, true)
		require.NoError(t, err)

		assert.False(t, res.LocalDeleted)
		assert.True(t, res.Results[0].Success())
		assert.False(t, res.Results[1].Success())

		stored := products.get("SKU-1")
		require.NotNil(t, stored)
		assert.False(t, stored.IsPublishedOn("com"))
		assert.True(t, stored.IsPublishedOn("uk"))
	})

	t.Run("partial failure keeps writes made during the remote delete", func(t *testing.T) {
		com, uk := newFakeStore("com"), newFakeStore("uk")
		p := publishedProduct("SKU-1", com, uk)
		uk.deleteErr = integration.ErrRemoteUnavailable
		products := newMemProductRepo(p)
		com.onDelete = func(int64) {
			patch := catalog.Patch("SKU-1")
			patch.Prices["uk"] = decimal.RequireFromString("39.99")
			patch.StockQuantities["uk"] = 12
			require.NoError(t, products.Upsert(context.Background(), patch))
		}
		h := newHarness(products, com, uk)

		_, err := h.svc.DeleteProduct(context.Background(), "SKU-1", nil, true)
		require.NoError(t, err)

		assert.Equal(t, []shared.SiteCode{"com"}, products.cleared)
		stored := products.get("SKU-1")
		require.NotNil(t, stored)
		assert.False(t, stored.IsPublishedOn("com"))
		assert.NotContains(t, stored.Prices, shared.SiteCode("com"))
		assert.Equal(t, "39.99", stored.Prices["uk"].StringFixed(2))
		assert.Equal(t, 12, stored.StockQuantities["uk"])
	})

	t.Run("remote 404 counts as deleted", func(t *testing.T) {
		com := newFakeStore("com")
		p := publishedProduct("SKU-1", com)
		com.deleteErr = integration.ErrRemoteNotFound
		h := newHarness(newMemProductRepo(p), com)

		res, err := h.svc.DeleteProduct(context.Background(), "SKU-1", nil, false)
		require.NoError(t, err)
		require.True(t, res.Results[0].Success())
		assert.Equal(t, []string{"already deleted on the storefront"}, res.Results[0].Warnings)
		assert.False(t, res.LocalDeleted)
	})

	t.Run("local delete failure becomes a warning", func(t *testing.T) {
		com := newFakeStore("com")
		p := publishedProduct("SKU-1", com)
		products := newMemProductRepo(p)
		products.delErr = errors.New("locked")
		h := newHarness(products, com)

		res, err := h.svc.DeleteProduct(context.Background(), "SKU-1", nil, true)
		require.NoError(t, err)
		assert.False(t, res.LocalDeleted)
		require.Len(t, res.Results[0].Warnings, 1)
		assert.Contains(t, res.Results[0].Warnings[0], "store: locked")
	})

	t.Run("unknown sku", func(t *testing.T) {
		h := newHarness(newMemProductRepo(), newFakeStore("com"))
		_, err := h.svc.DeleteProduct(context.Background(), "NOPE", nil, true)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})
}

func TestProductSyncService_PublishProduct(t *testing.T) {
	draft := ProductDraft{
		Name:         "Arsenal Home 24/25",
		Description:  "Official replica",
		Images:       []string{"https://cdn/a.jpg"},
		Categories:   []string{"Premier League"},
		Attributes:   catalog.Attributes{Team: "Arsenal", Season: "2024/25", Type: "Home", Gender: "Men"},
		Price:        decimal.RequireFromString("59.99"),
		RegularPrice: decimal.RequireFromString("79.99"),
		SitePrices:   map[shared.SiteCode]decimal.Decimal{"uk": decimal.RequireFromString("49.99")},
	}

	t.Run("creates a variable product on every site", func(t *testing.T) {
		com, uk := newFakeStore("com"), newFakeStore("uk")
		products := newMemProductRepo()
		h := newHarness(products, com, uk)
		WithSKUSource(bytes.NewReader(make([]byte, 64)))(h.svc)

		res, err := h.svc.PublishProduct(context.Background(), nil, draft)
		require.NoError(t, err)

		assert.True(t, catalog.IsGeneratedSKU(res.SKU), res.SKU)
		assert.True(t, shared.AllSucceeded(res.Results))
		require.Len(t, res.RemoteIDs, 2)

		for _, s := range []*fakeStore{com, uk} {
			require.Len(t, s.creates, 1, s.site)
			payload := s.creates[0]
			assert.Equal(t, integration.ProductTypeVariable, payload.Type)
			assert.True(t, *payload.ManageStock)
			assert.Nil(t, payload.RegularPrice)
			assert.Len(t, payload.Categories, 1)
			last := payload.Attributes[len(payload.Attributes)-1]
			assert.Equal(t, integration.SizeAttributeName, last.Name)
			require.Len(t, s.batches, 1)
			assert.Len(t, s.batches[0].Create, 7)
		}
		assert.Equal(t, "49.99", *uk.batches[0].Create[0].SalePrice)
		assert.Equal(t, "59.99", *com.batches[0].Create[0].SalePrice)

		stored := products.get(res.SKU)
		require.NotNil(t, stored)
		assert.Equal(t, res.RemoteIDs["com"], stored.RemoteIDs["com"])
		assert.Equal(t, catalog.SyncStatusSynced, stored.SyncStatus["uk"])
		assert.Equal(t, "Arsenal Home 24/25", stored.Content["uk"].Name)
		assert.Contains(t, h.pub.types(), integration.EventProductCreated)
	})

	t.Run("variant failure still records the remote id", func(t *testing.T) {
		com := newFakeStore("com")
		com.batchErr = integration.ErrRemoteUnavailable
		products := newMemProductRepo()
		h := newHarness(products, com)

		res, err := h.svc.PublishProduct(context.Background(), nil, draft)
		require.NoError(t, err)

		assert.False(t, res.Results[0].Success())
		require.Contains(t, res.RemoteIDs, shared.SiteCode("com"))
		stored := products.get(res.SKU)
		assert.Equal(t, res.RemoteIDs["com"], stored.RemoteIDs["com"])
		assert.Equal(t, catalog.SyncStatusError, stored.SyncStatus["com"])
	})

	t.Run("create failure records nothing remote", func(t *testing.T) {
		com := newFakeStore("com")
		com.createErr = integration.ErrRemoteUnauthorized
		products := newMemProductRepo()
		h := newHarness(products, com)

		res, err := h.svc.PublishProduct(context.Background(), nil, draft)
		require.NoError(t, err)
		assert.Equal(t, shared.ErrorKindFatal, res.Results[0].Result.Failure().Kind)
		assert.Empty(t, res.RemoteIDs)
		assert.False(t, products.get(res.SKU).IsPublishedOn("com"))
	})

	t.Run("name is required", func(t *testing.T) {
		h := newHarness(newMemProductRepo(), newFakeStore("com"))
		_, err := h.svc.PublishProduct(context.Background(), nil, ProductDraft{Name: "  "})
		assert.ErrorIs(t, err, ErrDraftNameRequired)
	})

	t.Run("sku collisions are retried", func(t *testing.T) {
		h := newHarness(newMemProductRepo(), newFakeStore("com"))
		// a constant randomness source always yields the same sku
		WithSKUSource(bytes.NewReader(make([]byte, 64)))(h.svc)
		first, err := h.svc.PublishProduct(context.Background(), nil, draft)
		require.NoError(t, err)

		WithSKUSource(bytes.NewReader(make([]byte, 64)))(h.svc)
		_, err = h.svc.PublishProduct(context.Background(), nil, draft)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collisions")
		assert.NotNil(t, h.products.get(first.SKU))
	})
}

func TestProductSyncService_RebuildVariants(t *testing.T) {
	t.Run("requires confirmation", func(t *testing.T) {
		h := newHarness(newMemProductRepo(), newFakeStore("com"))
		_, err := h.svc.RebuildVariants(context.Background(), "SKU-1", "com", false)
		assert.ErrorIs(t, err, ErrRebuildNotConfirmed)
	})

	t.Run("replaces variants and stores the snapshot", func(t *testing.T) {
		com := newFakeStore("com")
		id := com.addProduct(integration.RemoteProduct{Type: integration.ProductTypeVariable},
			integration.RemoteVariation{ID: 1}, integration.RemoteVariation{ID: 2},
		)
		p, _ := catalog.NewProduct("SKU-1", "Shirt")
		p.SetRemoteID("com", id)
		p.Attributes.Gender = "Kids"
		products := newMemProductRepo(p)
		h := newHarness(products, com)

		res, err := h.svc.RebuildVariants(context.Background(), "SKU-1", "com", true)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Deleted)
		assert.Equal(t, 7, res.Created)
		assert.Equal(t, 7, products.get("SKU-1").VariationCounts["com"])
		assert.Equal(t, []integration.SyncEventType{integration.EventVariantsRebuilt}, h.pub.types())
	})

	t.Run("not published", func(t *testing.T) {
		p, _ := catalog.NewProduct("SKU-1", "Shirt")
		h := newHarness(newMemProductRepo(p), newFakeStore("com"))
		_, err := h.svc.RebuildVariants(context.Background(), "SKU-1", "com", true)
		assert.ErrorIs(t, err, catalog.ErrNotPublished)
	})
}
