package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	catalog  *service.CatalogService
	products *service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(catalog *service.CatalogService, products *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		products: products,
		logger:   logger,
	}
}

// ListCatalogItems handles GET /api/v1/products.
func (h *ProductHandler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	req, err := parseQueryRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.catalog.ListCatalogItems(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPageBody(result.Items, result.Total, result.Page, result.PageSize),
	})
}

// ListByCategory handles GET /api/v1/products/category/{categoryID}.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := httputil.ParseID(w, chi.URLParam(r, "categoryID"))
	if !ok {
		return
	}

	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	result, err := h.products.ListByCategory(r.Context(), categoryID, params.Page, params.PageSize)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPageBody(result.Items, result.Total, result.Page, result.PageSize),
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// CreateProduct handles POST /api/v1/products. The caller becomes the seller.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateProductInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input domain.UpdateProductInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id, &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
