package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/searchindex"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogService answers storefront catalog queries.
type CatalogService struct {
	engine *catalog.Engine
	logger *slog.Logger
}

// NewCatalogService creates a catalog service reading from store.
func NewCatalogService(store catalog.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		engine: catalog.NewEngine(store),
		logger: logger,
	}
}

// ListCatalogItems returns one page of active products in active categories
// matching req, with the total number of matches. Requests are validated
// before the store is touched. Results are ordered by relevance when req
// has a search string and by id otherwise.
func (s *CatalogService) ListCatalogItems(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	if err := validateQuery(req); err != nil {
		return nil, err
	}

	set, err := catalog.Compose(req)
	if err != nil {
		if errors.Is(err, searchindex.ErrUnsearchable) {
			return nil, apperrors.Unprocessable("UNSEARCHABLE_QUERY", "search is not valid text", err)
		}
		return nil, fmt.Errorf("compose catalog query: %w", err)
	}

	order := catalog.OrderFor(set)
	start := time.Now()
	items, total, err := s.engine.Run(ctx, set, req.Page, req.PageSize)
	catalog.ObserveQuery(order, start, err)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}

	s.logger.DebugContext(ctx, "catalog query",
		slog.String("predicates", set.String()),
		slog.String("order", order.String()),
		slog.Int("page", req.Page),
		slog.Int64("total", total),
		slog.Int("returned", len(items)),
		slog.Duration("duration", time.Since(start)),
	)

	return &domain.QueryResult{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func validateQuery(req domain.QueryRequest) error {
	params := pagination.Params{Page: req.Page, PageSize: req.PageSize}
	if err := params.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if req.MinPrice != nil && req.MinPrice.IsNegative() {
		return apperrors.InvalidInput("min_price must not be negative")
	}
	if req.MaxPrice != nil && req.MaxPrice.IsNegative() {
		return apperrors.InvalidInput("max_price must not be negative")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return nil
}
