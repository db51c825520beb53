package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/searchindex"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// mockStore fails the test on any call without an expectation.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CountMatching(ctx context.Context, set catalog.PredicateSet) (int64, error) {
	args := m.Called(ctx, set)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) FetchPage(ctx context.Context, set catalog.PredicateSet, order catalog.Order, w catalog.Window) ([]domain.Product, error) {
	args := m.Called(ctx, set, order, w)
	if v := args.Get(0); v != nil {
		return v.([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestListCatalogItems_ValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		req  domain.QueryRequest
	}{
		{"page zero", domain.QueryRequest{Page: 0, PageSize: 10}},
		{"page size zero", domain.QueryRequest{Page: 1, PageSize: 0}},
		{"page size too large", domain.QueryRequest{Page: 1, PageSize: 101}},
		{"negative min price", domain.QueryRequest{Page: 1, PageSize: 10, MinPrice: decPtr("-1")}},
		{"negative max price", domain.QueryRequest{Page: 1, PageSize: 10, MaxPrice: decPtr("-0.01")}},
		{"min above max", domain.QueryRequest{Page: 1, PageSize: 10, MinPrice: decPtr("10"), MaxPrice: decPtr("9.99")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			svc := NewCatalogService(store, logger.Discard())

			result, err := svc.ListCatalogItems(context.Background(), tt.req)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			store.AssertNotCalled(t, "CountMatching", mock.Anything, mock.Anything)
		})
	}
}

func TestListCatalogItems_EqualPriceBoundsAllowed(t *testing.T) {
	store := new(mockStore)
	store.On("CountMatching", mock.Anything, mock.Anything).Return(int64(0), nil)
	svc := NewCatalogService(store, logger.Discard())

	result, err := svc.ListCatalogItems(context.Background(), domain.QueryRequest{
		Page: 1, PageSize: 10, MinPrice: decPtr("5"), MaxPrice: decPtr("5.00"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
}

func TestListCatalogItems_StopWordsOnlyIsEmptyPage(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	s.product(t, 1, c.ID, "The Bag", "of the best", "10", 1)

	for _, search := range []string{"the", "!!!", "the and of"} {
		result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
			Page: 1, PageSize: 10, Search: search,
		})
		require.NoError(t, err, search)
		assert.NotNil(t, result.Items, search)
		assert.Empty(t, result.Items, search)
		assert.Zero(t, result.Total, search)
	}
}

func TestListCatalogItems_UnsearchableQuery(t *testing.T) {
	store := new(mockStore)
	svc := NewCatalogService(store, logger.Discard())

	_, err := svc.ListCatalogItems(context.Background(), domain.QueryRequest{Page: 1, PageSize: 10, Search: "bag \xff"})
	require.Error(t, err)
	assert.ErrorIs(t, err, searchindex.ErrUnsearchable)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNSEARCHABLE_QUERY", appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	store.AssertNotCalled(t, "CountMatching", mock.Anything, mock.Anything)
}

func TestListCatalogItems_UnknownCategoryOrSellerMatchesNothing(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	s.product(t, 1, c.ID, "Leather Bag", "", "10", 1)

	for _, req := range []domain.QueryRequest{
		{Page: 1, PageSize: 10, CategoryID: int64Ptr(0)},
		{Page: 1, PageSize: 10, CategoryID: int64Ptr(-3)},
		{Page: 1, PageSize: 10, CategoryID: int64Ptr(c.ID + 100)},
		{Page: 1, PageSize: 10, SellerID: int64Ptr(0)},
	} {
		result, err := s.catalog.ListCatalogItems(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Zero(t, result.Total)
	}
}

func TestListCatalogItems_StoreErrorNoPartialResult(t *testing.T) {
	store := new(mockStore)
	store.On("CountMatching", mock.Anything, mock.Anything).Return(int64(3), nil)
	store.On("FetchPage", mock.Anything, mock.Anything, catalog.OrderByID, mock.Anything).
		Return(nil, errors.New("connection reset"))
	svc := NewCatalogService(store, logger.Discard())

	result, err := svc.ListCatalogItems(context.Background(), domain.QueryRequest{Page: 1, PageSize: 10})
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "connection reset")
}

func TestListCatalogItems_NoFiltersTotalsAndPaging(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	for i := 0; i < 7; i++ {
		s.product(t, 1, c.ID, fmt.Sprintf("Item %d", i), "", "10", 1)
	}
	deleted := s.product(t, 1, c.ID, "Gone", "", "10", 1)
	require.NoError(t, s.products.DeleteProduct(context.Background(), 1, deleted.ID))

	seen := make(map[int64]int)
	var total int64
	for page := 1; page <= 4; page++ {
		result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{Page: page, PageSize: 2})
		require.NoError(t, err)
		total = result.Total
		for _, p := range result.Items {
			seen[p.ID]++
		}
	}

	assert.Equal(t, int64(7), total)
	assert.Len(t, seen, 7)
	for id, n := range seen {
		assert.Equal(t, 1, n, "product %d seen more than once", id)
		assert.NotEqual(t, deleted.ID, id)
	}
}

func TestListCatalogItems_TwentyFiveItems(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	for i := 1; i <= 25; i++ {
		s.product(t, 1, c.ID, fmt.Sprintf("Item %d", i), "", "10", 1)
	}

	get := func(page int) *domain.QueryResult {
		result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{Page: page, PageSize: 10})
		require.NoError(t, err)
		return result
	}

	first := get(1)
	assert.Equal(t, int64(25), first.Total)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, itemIDs(first.Items))

	third := get(3)
	assert.Equal(t, int64(25), third.Total)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, itemIDs(third.Items))

	fourth := get(4)
	assert.Equal(t, int64(25), fourth.Total)
	assert.NotNil(t, fourth.Items)
	assert.Empty(t, fourth.Items)
	assert.Equal(t, 4, fourth.Page)
	assert.Equal(t, 10, fourth.PageSize)
}

func TestListCatalogItems_PriceBounds(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	for _, price := range []string{"1.00", "4.99", "5.00", "12.50", "20.00", "20.01", "99"} {
		s.product(t, 1, c.ID, "Item", "", price, 1)
	}

	result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
		Page: 1, PageSize: 100, MinPrice: decPtr("5"), MaxPrice: decPtr("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	for _, p := range result.Items {
		assert.True(t, p.Price.GreaterThanOrEqual(*decPtr("5")), "price %s below bound", p.Price)
		assert.True(t, p.Price.LessThanOrEqual(*decPtr("20")), "price %s above bound", p.Price)
	}
}

func TestListCatalogItems_StockSellerAndCategoryFilters(t *testing.T) {
	s := newStack(t)
	bags := s.category(t, "Bags")
	shoes := s.category(t, "Shoes")
	a := s.product(t, 1, bags.ID, "A", "", "10", 0)
	b := s.product(t, 2, bags.ID, "B", "", "10", 3)
	c := s.product(t, 1, shoes.ID, "C", "", "10", 3)

	list := func(req domain.QueryRequest) []int64 {
		req.Page, req.PageSize = 1, 50
		result, err := s.catalog.ListCatalogItems(context.Background(), req)
		require.NoError(t, err)
		return itemIDs(result.Items)
	}

	assert.Equal(t, []int64{b.ID, c.ID}, list(domain.QueryRequest{InStock: boolPtr(true)}))
	assert.Equal(t, []int64{a.ID}, list(domain.QueryRequest{InStock: boolPtr(false)}))
	assert.Equal(t, []int64{a.ID, c.ID}, list(domain.QueryRequest{SellerID: int64Ptr(1)}))
	assert.Equal(t, []int64{a.ID, b.ID}, list(domain.QueryRequest{CategoryID: &bags.ID}))
	assert.Empty(t, list(domain.QueryRequest{CategoryID: int64Ptr(999)}))
}

func TestListCatalogItems_LeatherWalletRanking(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Accessories")
	bag := s.product(t, 1, c.ID, "Bag", "leather accessory, wallet included", "10", 1)
	wallet := s.product(t, 1, c.ID, "Leather Wallet", "", "10", 1)
	s.product(t, 1, c.ID, "Belt", "brown", "10", 1)

	result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
		Page: 1, PageSize: 10, Search: "leather wallet",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	assert.Equal(t, []int64{wallet.ID, bag.ID}, itemIDs(result.Items))
}

func TestListCatalogItems_SearchResultsMatchAndAreOrdered(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	s.product(t, 1, c.ID, "Leather Bag", "", "10", 1)
	s.product(t, 1, c.ID, "Tote", "leather handles", "10", 1)
	s.product(t, 1, c.ID, "Leather", "leather strap", "10", 1)
	s.product(t, 1, c.ID, "Canvas Bag", "", "10", 1)
	s.product(t, 1, c.ID, "Clutch", "leather", "10", 1)

	q, err := searchindex.ParseQuery("leather")
	require.NoError(t, err)

	result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
		Page: 1, PageSize: 10, Search: "leather",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	prevScore := -1
	var prevID int64
	for i, p := range result.Items {
		assert.True(t, containsFold(p.Name, "leather") || containsFold(p.Description, "leather"))

		v, err := searchindex.Derive(p.Name, p.Description)
		require.NoError(t, err)
		score := searchindex.Score(v, q)
		if i > 0 {
			assert.LessOrEqual(t, score, prevScore)
			if score == prevScore {
				assert.Greater(t, p.ID, prevID)
			}
		}
		prevScore, prevID = score, p.ID
	}
}

func TestListCatalogItems_Idempotent(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	for i := 0; i < 5; i++ {
		s.product(t, 1, c.ID, "Leather Bag", "", "10", 1)
	}
	req := domain.QueryRequest{Page: 1, PageSize: 3, Search: "bag"}

	first, err := s.catalog.ListCatalogItems(context.Background(), req)
	require.NoError(t, err)
	second, err := s.catalog.ListCatalogItems(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListCatalogItems_InactiveNeverAppear(t *testing.T) {
	s := newStack(t)
	live := s.category(t, "Bags")
	dead := s.category(t, "Retired")
	keep := s.product(t, 1, live.ID, "Leather Bag", "", "10", 1)
	s.product(t, 1, dead.ID, "Leather Bag", "", "10", 1)
	gone := s.product(t, 1, live.ID, "Leather Bag", "", "10", 1)

	require.NoError(t, s.categories.DeleteCategory(context.Background(), dead.ID))
	require.NoError(t, s.products.DeleteProduct(context.Background(), 1, gone.ID))

	for _, req := range []domain.QueryRequest{
		{},
		{Search: "leather"},
		{CategoryID: &dead.ID},
		{SellerID: int64Ptr(1), InStock: boolPtr(true)},
	} {
		req.Page, req.PageSize = 1, 50
		result, err := s.catalog.ListCatalogItems(context.Background(), req)
		require.NoError(t, err)
		for _, p := range result.Items {
			assert.Equal(t, keep.ID, p.ID)
		}
	}
}

func TestListCatalogItems_PageBeyondEnd(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	s.product(t, 1, c.ID, "Leather Bag", "", "10", 1)
	s.product(t, 1, c.ID, "Leather Belt", "", "10", 1)

	result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
		Page: 5, PageSize: 1, Search: "leather",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(2), result.Total)
}

func TestListCatalogItems_HugePageIsEmpty(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	s.product(t, 1, c.ID, "Leather Bag", "", "10", 1)

	for _, search := range []string{"", "leather"} {
		result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
			Page: 100000000000000001, PageSize: 100, Search: search,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Equal(t, int64(1), result.Total)
	}
}

func TestListCatalogItems_DescriptionUpdateChangesMatches(t *testing.T) {
	s := newStack(t)
	c := s.category(t, "Bags")
	p := s.product(t, 1, c.ID, "Bag", "red leather", "10", 1)

	search := func(term string) int64 {
		result, err := s.catalog.ListCatalogItems(context.Background(), domain.QueryRequest{
			Page: 1, PageSize: 10, Search: term,
		})
		require.NoError(t, err)
		return result.Total
	}
	require.Equal(t, int64(1), search("leather"))
	require.Zero(t, search("canvas"))

	_, err := s.products.UpdateProduct(context.Background(), 1, p.ID, &domain.UpdateProductInput{
		Description: strPtr("blue canvas"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), search("canvas"))
	assert.Zero(t, search("leather"))
	assert.Equal(t, int64(1), search("bag"))
}
