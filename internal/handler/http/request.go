package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// parseQueryRequest reads catalog filters from the query string. Only the
// syntax of each parameter is checked here; ranges are validated by the
// catalog service.
func parseQueryRequest(r *http.Request) (domain.QueryRequest, error) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		return domain.QueryRequest{}, apperrors.InvalidInput(err.Error())
	}
	req := domain.QueryRequest{Page: params.Page, PageSize: params.PageSize}
	q := r.URL.Query()

	if req.CategoryID, err = optionalInt64(q.Get("category_id"), "category_id"); err != nil {
		return req, err
	}
	if req.SellerID, err = optionalInt64(q.Get("seller_id"), "seller_id"); err != nil {
		return req, err
	}
	if req.MinPrice, err = optionalDecimal(q.Get("min_price"), "min_price"); err != nil {
		return req, err
	}
	if req.MaxPrice, err = optionalDecimal(q.Get("max_price"), "max_price"); err != nil {
		return req, err
	}
	if raw := q.Get("in_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apperrors.InvalidInputf("in_stock must be a boolean, got %q", raw)
		}
		req.InStock = &v
	}
	req.Search = q.Get("search")

	return req, nil
}

func optionalInt64(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidInputf("%s must be an integer, got %q", name, raw)
	}
	return &v, nil
}

func optionalDecimal(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.InvalidInputf("%s must be a decimal number, got %q", name, raw)
	}
	return &v, nil
}

// decodeBody decodes and validates a JSON body into dst. On failure it
// writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, err, logger)
	} else {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), logger)
	}
	return false
}
