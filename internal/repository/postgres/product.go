package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// productColumns is the SELECT list shared by every product read. Price is
// read as text so it converts to decimal.Decimal without rounding.
const productColumns = `p.id, p.name, p.description, p.price::text, p.stock, p.is_active,
	p.category_id, p.seller_id, p.rating, p.image_url, p.created_at, p.updated_at`

// ProductRepository implements repository.ProductStore using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product together with its search vector.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Reindex(); err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, description, price, stock, is_active, category_id, seller_id, rating, image_url, tsv)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10::tsvector)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Price.String(),
		p.Stock,
		p.IsActive,
		p.CategoryID,
		p.SellerID,
		p.Rating,
		p.ImageURL,
		p.Search.String(),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInputf("category %d does not exist", p.CategoryID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	p.Search = nil
	return nil
}

// GetByID retrieves a product by its ID in any state.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// Update rewrites an active product and its search vector in one statement.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if err := p.Reindex(); err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4::numeric, stock = $5,
			category_id = $6, image_url = $7, tsv = $8::tsvector, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price.String(),
		p.Stock,
		p.CategoryID,
		p.ImageURL,
		p.Search.String(),
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID)
		}
		if isForeignKeyViolation(err) {
			return apperrors.InvalidInputf("category %d does not exist", p.CategoryID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	p.Search = nil
	return nil
}

// SoftDelete marks an active product inactive.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// UpdateRating stores a product's average rating.
func (r *ProductRepository) UpdateRating(ctx context.Context, id int64, rating float64) error {
	query := `UPDATE products SET rating = $2, updated_at = NOW() WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id, rating)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// CountMatching counts the products satisfying set.
func (r *ProductRepository) CountMatching(ctx context.Context, set catalog.PredicateSet) (total int64, err error) {
	var b sqlBuilder
	where, err := b.where(set)
	if err != nil {
		return 0, err
	}
	query := `SELECT COUNT(*) FROM ` + catalogFrom + ` WHERE ` + where

	ctx, end := database.TraceQuery(ctx, "CountCatalogItems", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, b.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// FetchPage returns one window of the products satisfying set in order.
func (r *ProductRepository) FetchPage(ctx context.Context, set catalog.PredicateSet, order catalog.Order, w catalog.Window) (items []domain.Product, err error) {
	var b sqlBuilder
	where, err := b.where(set)
	if err != nil {
		return nil, err
	}
	orderBy := b.orderBy(set, order)
	limit := b.arg(w.Limit)
	offset := b.arg(w.Offset)

	query := `SELECT ` + productColumns + ` FROM ` + catalogFrom +
		` WHERE ` + where +
		` ORDER BY ` + orderBy +
		` LIMIT ` + limit + ` OFFSET ` + offset

	ctx, end := database.TraceQuery(ctx, "FetchCatalogPage", query,
		attribute.String("catalog.order", order.String()),
		attribute.String("catalog.window", strconv.Itoa(w.Offset)+"+"+strconv.Itoa(w.Limit)),
	)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items = make([]domain.Product, 0, w.Limit)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan product: %w", scanErr)
			return nil, err
		}
		items = append(items, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&p.Stock,
		&p.IsActive,
		&p.CategoryID,
		&p.SellerID,
		&p.Rating,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
