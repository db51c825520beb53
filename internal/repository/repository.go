package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
)

// ProductRepository defines product persistence. Create and Update derive
// the search vector from the product's text and store it in the same write.
type ProductRepository interface {
	// Create assigns the ID and timestamps and inserts the product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID returns a product in any state.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Update rewrites an active product's mutable fields.
	Update(ctx context.Context, product *domain.Product) error

	// SoftDelete marks an active product inactive.
	SoftDelete(ctx context.Context, id int64) error

	// UpdateRating stores a new average rating.
	UpdateRating(ctx context.Context, id int64, rating float64) error
}

// ProductStore is a product repository that also answers catalog queries.
type ProductStore interface {
	ProductRepository
	catalog.Store
}

// CategoryRepository defines category persistence.
type CategoryRepository interface {
	// Create inserts a category. A taken slug returns ErrAlreadyExists.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID returns a category in any state.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// GetBySlug returns a category in any state.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// Update rewrites name, slug, parent and activity.
	Update(ctx context.Context, category *domain.Category) error

	// SoftDelete marks a category inactive.
	SoftDelete(ctx context.Context, id int64) error

	// ListActive returns all active categories ordered by id.
	ListActive(ctx context.Context) ([]domain.Category, error)

	// IsActive reports whether the category exists and is active.
	IsActive(ctx context.Context, id int64) (bool, error)
}
