package domain

import "github.com/shopspring/decimal"

// QueryRequest carries the optional catalog filters plus pagination. Nil
// pointers and an empty Search mean "no filter".
type QueryRequest struct {
	Page       int
	PageSize   int
	CategoryID *int64
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    *bool
	SellerID   *int64
}

// QueryResult is one page of catalog items plus the total match count
// across all pages.
type QueryResult struct {
	Items    []Product
	Total    int64
	Page     int
	PageSize int
}
