package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const categoryColumns = `id, name, slug, parent_id, is_active, created_at, updated_at`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a category and assigns its ID.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug, parent_id, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, c.Name, c.Slug, c.ParentID, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInput("parent category does not exist")
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	c, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

// GetBySlug retrieves a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`

	c, err := scanCategory(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", slug)
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

// Update rewrites a category's name, slug, parent and activity.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, parent_id = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, c.ID, c.Name, c.Slug, c.ParentID, c.IsActive).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("category", c.ID)
		}
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// SoftDelete marks an active category inactive.
func (r *CategoryRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE categories SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

// ListActive returns all active categories ordered by ID.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// IsActive reports whether a category exists and is active.
func (r *CategoryRepository) IsActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `SELECT is_active FROM categories WHERE id = $1`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check category activity: %w", err)
	}
	return active, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
