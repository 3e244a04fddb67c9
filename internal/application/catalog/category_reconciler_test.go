package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

func TestCategoryReconciler_Preload_SeedsEverySiteFromReference(t *testing.T) {
	com, de := newFakeStore("com"), newFakeStore("de")
	provider := newFakeProvider(com, de)
	repo := new(MockCategoryRepository)
	repo.On("FindBySite", mock.Anything, shared.SiteCode("com")).
		Return([]catalog.CategoryRef{{Name: "Premier League", RemoteID: 11}}, nil).Once()

	r := NewCategoryReconciler(provider, repo, nil, nil)
	cache, err := r.Preload(context.Background(), provider.Sites())
	require.NoError(t, err)

	for _, site := range []shared.SiteCode{"com", "de"} {
		id, ok := cache.Lookup(site, "premier league")
		assert.True(t, ok, site)
		assert.Equal(t, int64(11), id)
	}
	repo.AssertExpectations(t)
}

func TestCategoryReconciler_Preload_ErrorKeepsEmptyCache(t *testing.T) {
	com := newFakeStore("com")
	repo := new(MockCategoryRepository)
	repo.On("FindBySite", mock.Anything, shared.SiteCode("com")).Return(nil, errors.New("db down"))

	r := NewCategoryReconciler(newFakeProvider(com), repo, nil, nil)
	cache, err := r.Preload(context.Background(), shared.SiteSet{"com"})
	require.Error(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len("com"))
}

func TestCategoryReconciler_Resolve_MatchesRemoteListingCaseInsensitively(t *testing.T) {
	de := newFakeStore("de")
	de.categories = []integration.RemoteCategory{{ID: 7, Name: "BUNDESLIGA"}}
	r := NewCategoryReconciler(newFakeProvider(newFakeStore("com"), de), emptyCategories(), nil, nil)

	id, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "bundesliga")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Empty(t, de.createdCats)
}

func TestCategoryReconciler_BatchCreatesEachCategoryOnce(t *testing.T) {
	com := newFakeStore("com")
	r := NewCategoryReconciler(newFakeProvider(com), emptyCategories(), nil, nil)
	cache := catalog.NewCategoryCache()

	names := []string{"Retro", "Premier League", "La Liga", "Serie A", "Bundesliga"}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := names[i%len(names)]
			if i%2 == 0 {
				name = fmt.Sprintf("  %s ", name)
			}
			_, warnings := r.ResolveAll(context.Background(), cache, "com", []string{name})
			assert.Empty(t, warnings)
		}()
	}
	wg.Wait()

	assert.Len(t, com.createdCats, 5)
	assert.Equal(t, 1, com.listCatCalls)
	for _, n := range names {
		_, ok := cache.Lookup("com", n)
		assert.True(t, ok, n)
	}
}

func TestCategoryReconciler_ListingIsMemoizedAcrossOperations(t *testing.T) {
	com := newFakeStore("com")
	r := NewCategoryReconciler(newFakeProvider(com), emptyCategories(), nil, nil)

	_, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "com", "Retro")
	require.NoError(t, err)
	// a fresh operation cache still sees the category created above
	_, err = r.Resolve(context.Background(), catalog.NewCategoryCache(), "com", "retro")
	require.NoError(t, err)

	assert.Equal(t, 1, com.listCatCalls)
	assert.Equal(t, []string{"Retro"}, com.createdCats)
}

func TestCategoryReconciler_Resolve_TermCreatedElsewhere(t *testing.T) {
	t.Run("uses the id named by the storefront", func(t *testing.T) {
		de := newFakeStore("de")
		de.createCatErr = &integration.CategoryExistsError{Name: "Retro", ID: 77}
		r := NewCategoryReconciler(newFakeProvider(newFakeStore("com"), de), emptyCategories(), nil, nil)

		id, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "Retro")
		require.NoError(t, err)
		assert.Equal(t, int64(77), id)

		// remembered without another create
		de.createCatErr = errors.New("unexpected create")
		id, err = r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "retro")
		require.NoError(t, err)
		assert.Equal(t, int64(77), id)
		assert.Equal(t, 1, de.listCatCalls)
	})

	t.Run("reads the listing again without an id", func(t *testing.T) {
		de := newFakeStore("de")
		r := NewCategoryReconciler(newFakeProvider(newFakeStore("com"), de), emptyCategories(), nil, nil)
		_, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "Serie A")
		require.NoError(t, err)

		// another writer adds the term after the listing was memoized
		de.categories = append(de.categories, integration.RemoteCategory{ID: 91, Name: "Retro"})
		de.createCatErr = &integration.CategoryExistsError{Name: "Retro"}

		id, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "Retro")
		require.NoError(t, err)
		assert.Equal(t, int64(91), id)
		assert.Equal(t, 2, de.listCatCalls)
		assert.Equal(t, []string{"Serie A"}, de.createdCats)
	})

	t.Run("term missing from the fresh listing is an error", func(t *testing.T) {
		de := newFakeStore("de")
		de.createCatErr = &integration.CategoryExistsError{Name: "Retro"}
		r := NewCategoryReconciler(newFakeProvider(newFakeStore("com"), de), emptyCategories(), nil, nil)

		_, err := r.Resolve(context.Background(), catalog.NewCategoryCache(), "de", "Retro")
		var exists *integration.CategoryExistsError
		require.ErrorAs(t, err, &exists)
		assert.Contains(t, err.Error(), "Retro")
		assert.Equal(t, 2, de.listCatCalls)
	})
}

func TestCategoryReconciler_ResolveAll(t *testing.T) {
	t.Run("dedupes ids and skips blank names", func(t *testing.T) {
		com := newFakeStore("com")
		com.categories = []integration.RemoteCategory{{ID: 3, Name: "Retro"}}
		r := NewCategoryReconciler(newFakeProvider(com), emptyCategories(), nil, nil)

		refs, warnings := r.ResolveAll(context.Background(), catalog.NewCategoryCache(), "com", []string{"Retro", " ", "RETRO"})
		assert.Empty(t, warnings)
		assert.Equal(t, []integration.RemoteCategoryRef{{ID: 3}}, refs)
	})

	t.Run("failure becomes a warning", func(t *testing.T) {
		com := newFakeStore("com")
		com.createCatErr = integration.ErrRemoteUnavailable
		com.categories = []integration.RemoteCategory{{ID: 3, Name: "Retro"}}
		r := NewCategoryReconciler(newFakeProvider(com), emptyCategories(), nil, nil)

		refs, warnings := r.ResolveAll(context.Background(), catalog.NewCategoryCache(), "com", []string{"Retro", "New One"})
		assert.Equal(t, []integration.RemoteCategoryRef{{ID: 3}}, refs)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "New One")
	})

	t.Run("listing failure is retried on the next call", func(t *testing.T) {
		com := newFakeStore("com")
		com.listCatErr = integration.ErrRemoteUnavailable
		r := NewCategoryReconciler(newFakeProvider(com), emptyCategories(), nil, nil)

		_, warnings := r.ResolveAll(context.Background(), catalog.NewCategoryCache(), "com", []string{"Retro"})
		require.Len(t, warnings, 1)

		com.listCatErr = nil
		_, warnings = r.ResolveAll(context.Background(), catalog.NewCategoryCache(), "com", []string{"Retro"})
		assert.Empty(t, warnings)
		assert.Equal(t, 2, com.listCatCalls)
	})
}

func TestCategoryReconciler_PersistsOnlyReferenceSite(t *testing.T) {
	com, uk := newFakeStore("com"), newFakeStore("uk")
	repo := new(MockCategoryRepository)
	repo.On("Upsert", mock.Anything, shared.SiteCode("com"), mock.MatchedBy(func(ref catalog.CategoryRef) bool {
		return ref.Name == "Retro" && ref.RemoteID > 0
	})).Return(nil).Once()

	r := NewCategoryReconciler(newFakeProvider(com, uk), repo, nil, nil)
	cache := catalog.NewCategoryCache()
	_, err := r.Resolve(context.Background(), cache, "com", "Retro")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), cache, "uk", "Retro")
	require.NoError(t, err)

	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "Upsert", 1)
}
