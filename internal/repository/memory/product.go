package memory

import (
	"context"
	"sort"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/searchindex"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductStore over a DB.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a product repository backed by db.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create derives the search vector, assigns an id and stores the product.
func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	if err := p.Reindex(); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.lastProductID++
	now := r.db.now()
	p.ID = r.db.lastProductID
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := *p
	r.db.products[p.ID] = &stored
	if stored.IsActive {
		r.db.index(p.ID, stored.Search)
	}
	p.Search = nil
	return nil
}

// GetByID returns a copy of the product.
func (r *ProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	out := detach(p)
	return &out, nil
}

// Update re-derives the search vector and replaces the stored product.
func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	if err := p.Reindex(); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	old, ok := r.db.products[p.ID]
	if !ok || !old.IsActive {
		return apperrors.NotFound("product", p.ID)
	}

	stored := *old
	stored.Name = p.Name
	stored.Description = p.Description
	stored.Price = p.Price
	stored.Stock = p.Stock
	stored.CategoryID = p.CategoryID
	stored.ImageURL = p.ImageURL
	stored.Search = p.Search
	stored.UpdatedAt = r.db.now()

	r.db.unindex(old.ID, old.Search)
	r.db.index(stored.ID, stored.Search)
	r.db.products[stored.ID] = &stored

	*p = detach(&stored)
	return nil
}

// SoftDelete deactivates the product and drops it from the index.
func (r *ProductRepository) SoftDelete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	old, ok := r.db.products[id]
	if !ok || !old.IsActive {
		return apperrors.NotFound("product", id)
	}

	stored := *old
	stored.IsActive = false
	stored.UpdatedAt = r.db.now()
	r.db.unindex(id, old.Search)
	r.db.products[id] = &stored
	return nil
}

// UpdateRating stores the rating of a product in any state.
func (r *ProductRepository) UpdateRating(_ context.Context, id int64, rating float64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	old, ok := r.db.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	stored := *old
	stored.Rating = rating
	stored.UpdatedAt = r.db.now()
	r.db.products[id] = &stored
	return nil
}

// CountMatching counts the products satisfying set.
func (r *ProductRepository) CountMatching(_ context.Context, set catalog.PredicateSet) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return int64(len(r.matching(set))), nil
}

// FetchPage returns the window w of the products satisfying set in order.
func (r *ProductRepository) FetchPage(_ context.Context, set catalog.PredicateSet, order catalog.Order, w catalog.Window) ([]domain.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matches := r.matching(set)

	switch order {
	case catalog.OrderByRelevance:
		tm, _ := set.Text()
		scores := make(map[int64]int, len(matches))
		for _, p := range matches {
			scores[p.ID] = searchindex.Score(p.Search, tm.Query)
		}
		sort.Slice(matches, func(i, j int) bool {
			si, sj := scores[matches[i].ID], scores[matches[j].ID]
			if si != sj {
				return si > sj
			}
			return matches[i].ID < matches[j].ID
		})
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	}

	if w.Offset < 0 || w.Offset >= len(matches) {
		return []domain.Product{}, nil
	}
	end := len(matches)
	if w.Limit < end-w.Offset {
		end = w.Offset + w.Limit
	}

	out := make([]domain.Product, 0, end-w.Offset)
	for _, p := range matches[w.Offset:end] {
		out = append(out, detach(p))
	}
	return out, nil
}

// matching returns the stored products satisfying set. Text queries with a
// positive term in every group start from the postings of their candidate
// lexemes; everything else scans all products. Callers hold mu.
func (r *ProductRepository) matching(set catalog.PredicateSet) []*domain.Product {
	var pool []*domain.Product
	indexed := false
	if tm, ok := set.Text(); ok {
		if lexemes, bounded := tm.Query.Candidates(); bounded {
			indexed = true
			seen := make(map[int64]struct{})
			for _, lex := range lexemes {
				for id := range r.db.postings[lex] {
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
					pool = append(pool, r.db.products[id])
				}
			}
		}
	}
	if !indexed {
		pool = make([]*domain.Product, 0, len(r.db.products))
		for _, p := range r.db.products {
			pool = append(pool, p)
		}
	}

	out := make([]*domain.Product, 0, len(pool))
	for _, p := range pool {
		if set.Eval(p, r.db.categoryActive(p.CategoryID)) {
			out = append(out, p)
		}
	}
	return out
}

// detach copies p without its search vector.
func detach(p *domain.Product) domain.Product {
	out := *p
	out.Search = nil
	return out
}
