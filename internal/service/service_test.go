package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	"github.com/utafrali/storefront/pkg/logger"
)

// ─── helpers ────────────────────────────────────────────────────────────────

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }
func intPtr(n int) *int       { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// recordingEvents captures published events.
type recordingEvents struct {
	mu         sync.Mutex
	created    []int64
	updated    []int64
	deleted    []int64
	categories []int64
}

func (r *recordingEvents) PublishProductCreated(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p.ID)
	return nil
}

func (r *recordingEvents) PublishProductUpdated(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, p.ID)
	return nil
}

func (r *recordingEvents) PublishProductDeleted(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingEvents) PublishCategoryUpdated(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, c.ID)
	return nil
}

// stack wires every service over one memory store.
type stack struct {
	db         *memory.DB
	events     *recordingEvents
	catalog    *CatalogService
	products   *ProductService
	categories *CategoryService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := memory.NewDB()
	productRepo := memory.NewProductRepository(db)
	categoryRepo := memory.NewCategoryRepository(db)
	events := &recordingEvents{}
	log := logger.Discard()

	catalogSvc := NewCatalogService(productRepo, log)
	categorySvc := NewCategoryService(categoryRepo, nil, nil, events, log)
	productSvc := NewProductService(productRepo, categorySvc, catalogSvc, events, log)

	return &stack{
		db:         db,
		events:     events,
		catalog:    catalogSvc,
		products:   productSvc,
		categories: categorySvc,
	}
}

func (s *stack) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := s.categories.CreateCategory(context.Background(), &domain.CreateCategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (s *stack) product(t *testing.T, sellerID, categoryID int64, name, desc, price string, stock int) *domain.Product {
	t.Helper()
	p, err := s.products.CreateProduct(context.Background(), sellerID, &domain.CreateProductInput{
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  categoryID,
	})
	require.NoError(t, err)
	return p
}

func itemIDs(items []domain.Product) []int64 {
	out := make([]int64, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
