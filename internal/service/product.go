package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/searchindex"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// ProductEvents publishes product domain events.
type ProductEvents interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, id int64) error
}

// CategoryChecker reports whether a category may hold listed products.
type CategoryChecker interface {
	IsActiveCategory(ctx context.Context, id int64) (bool, error)
}

// ProductService implements seller product management.
type ProductService struct {
	repo       repository.ProductRepository
	categories CategoryChecker
	catalog    *CatalogService
	events     ProductEvents
	logger     *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	categories CategoryChecker,
	catalog *CatalogService,
	events ProductEvents,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		catalog:    catalog,
		events:     events,
		logger:     logger,
	}
}

// CreateProduct creates an active product owned by sellerID.
func (s *ProductService) CreateProduct(ctx context.Context, sellerID int64, input *domain.CreateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if err := s.requireActiveCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    true,
		CategoryID:  input.CategoryID,
		SellerID:    sellerID,
		ImageURL:    input.ImageURL,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", writeError(err))
	}

	if err := s.events.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.Int64("seller_id", sellerID),
		slog.Int64("category_id", product.CategoryID),
	)
	return product, nil
}

// GetProduct returns an active product whose category is active.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", id)
	}

	active, err := s.categories.IsActiveCategory(ctx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check product category: %w", err)
	}
	if !active {
		return nil, apperrors.NotFound("product", id)
	}
	return product, nil
}

// ListByCategory pages through the listed products of an active category.
func (s *ProductService) ListByCategory(ctx context.Context, categoryID int64, page, pageSize int) (*domain.QueryResult, error) {
	active, err := s.categories.IsActiveCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !active {
		return nil, apperrors.NotFound("category", categoryID)
	}

	return s.catalog.ListCatalogItems(ctx, domain.QueryRequest{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: &categoryID,
	})
}

// UpdateProduct applies input to a product owned by sellerID. Changing the
// name or description re-derives the search vector in the same write.
func (s *ProductService) UpdateProduct(ctx context.Context, sellerID, id int64, input *domain.UpdateProductInput) (*domain.Product, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	product, err := s.ownedProduct(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		if err := s.requireActiveCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", writeError(err))
	}

	if err := s.events.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", product.ID),
		slog.Bool("reindexed", input.TouchesText()),
	)
	return product, nil
}

// DeleteProduct soft-deletes a product owned by sellerID.
func (s *ProductService) DeleteProduct(ctx context.Context, sellerID, id int64) error {
	if _, err := s.ownedProduct(ctx, sellerID, id); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.events.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// ApplyRating stores the average review rating of a product.
func (s *ProductService) ApplyRating(ctx context.Context, id int64, rating float64) error {
	if id <= 0 {
		return apperrors.InvalidInputf("product id must be positive, got %d", id)
	}
	if math.IsNaN(rating) || rating < 0 || rating > domain.MaxRating {
		return apperrors.InvalidInputf("rating must be between 0 and %g, got %g", domain.MaxRating, rating)
	}
	if err := s.repo.UpdateRating(ctx, id, rating); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

// ownedProduct loads an active product, checks that sellerID owns it and
// that its category is still active.
func (s *ProductService) ownedProduct(ctx context.Context, sellerID, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", id)
	}
	if product.SellerID != sellerID {
		return nil, apperrors.Forbidden("product belongs to another seller")
	}
	if err := s.requireActiveCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) requireActiveCategory(ctx context.Context, id int64) error {
	active, err := s.categories.IsActiveCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !active {
		return apperrors.InvalidInputf("category %d does not exist or is inactive", id)
	}
	return nil
}

// writeError maps a malformed-text rejection to a client error that still
// matches searchindex.ErrMalformedText.
func writeError(err error) error {
	if errors.Is(err, searchindex.ErrMalformedText) {
		return &apperrors.AppError{
			Code:    "INVALID_INPUT",
			Message: "name and description must be valid UTF-8 text",
			Status:  http.StatusBadRequest,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err),
		}
	}
	return err
}
