package http

import (
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestParseQueryRequest_Empty(t *testing.T) {
	req, err := parseQueryRequest(httptest.NewRequest("GET", "/api/v1/products", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
	assert.Nil(t, req.CategoryID)
	assert.Nil(t, req.MinPrice)
	assert.Nil(t, req.MaxPrice)
	assert.Nil(t, req.InStock)
	assert.Nil(t, req.SellerID)
	assert.Empty(t, req.Search)
}

func TestParseQueryRequest_AllFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/products?page=2&page_size=5&category_id=3&search=red+bag&min_price=1.50&max_price=20&in_stock=false&seller_id=9", nil)

	req, err := parseQueryRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 5, req.PageSize)
	require.NotNil(t, req.CategoryID)
	assert.Equal(t, int64(3), *req.CategoryID)
	assert.Equal(t, "red bag", req.Search)
	require.NotNil(t, req.MinPrice)
	assert.Equal(t, "1.5", req.MinPrice.String())
	require.NotNil(t, req.MaxPrice)
	assert.Equal(t, "20", req.MaxPrice.String())
	require.NotNil(t, req.InStock)
	assert.False(t, *req.InStock)
	require.NotNil(t, req.SellerID)
	assert.Equal(t, int64(9), *req.SellerID)
}

func TestParseQueryRequest_RangeLeftToService(t *testing.T) {
	req, err := parseQueryRequest(httptest.NewRequest("GET", "/?page_size=500&min_price=-3", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, req.PageSize)
	assert.True(t, req.MinPrice.IsNegative())
}
