package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// CategoryHandler handles HTTP requests for category endpoints.
type CategoryHandler struct {
	service *service.CategoryService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(svc *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: svc,
		logger:  logger,
	}
}

// ListCategories handles GET /api/v1/categories. With ?tree=true the active
// categories are returned nested by parent.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	tree := false
	if raw := r.URL.Query().Get("tree"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInputf("tree must be a boolean, got %q", raw), h.logger)
			return
		}
		tree = v
	}

	if tree {
		roots, err := h.service.CategoryTree(r.Context())
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: roots})
		return
	}

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// GetCategory handles GET /api/v1/categories/{idOrSlug}.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// CreateCategory handles POST /api/v1/categories.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateCategoryInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: category})
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var input domain.UpdateCategoryInput
	if !decodeBody(w, r, &input, h.logger) {
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), id, &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
