package memory

import (
	"context"
	"sort"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository over a DB.
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a category repository backed by db.
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.slugs[c.Slug]; taken {
		return apperrors.AlreadyExists("category", "slug", c.Slug)
	}

	r.db.lastCategoryID++
	now := r.db.now()
	c.ID = r.db.lastCategoryID
	c.CreatedAt = now
	c.UpdatedAt = now

	stored := *c
	stored.Children = nil
	r.db.categories[c.ID] = &stored
	r.db.slugs[c.Slug] = c.ID
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	out := *c
	return &out, nil
}

func (r *CategoryRepository) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.slugs[slug]
	if !ok {
		return nil, apperrors.NotFound("category", slug)
	}
	out := *r.db.categories[id]
	return &out, nil
}

func (r *CategoryRepository) Update(_ context.Context, c *domain.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	old, ok := r.db.categories[c.ID]
	if !ok {
		return apperrors.NotFound("category", c.ID)
	}
	if owner, taken := r.db.slugs[c.Slug]; taken && owner != c.ID {
		return apperrors.AlreadyExists("category", "slug", c.Slug)
	}

	stored := *old
	stored.Name = c.Name
	stored.Slug = c.Slug
	stored.ParentID = c.ParentID
	stored.IsActive = c.IsActive
	stored.UpdatedAt = r.db.now()

	delete(r.db.slugs, old.Slug)
	r.db.slugs[stored.Slug] = stored.ID
	r.db.categories[stored.ID] = &stored

	*c = stored
	return nil
}

func (r *CategoryRepository) SoftDelete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	old, ok := r.db.categories[id]
	if !ok || !old.IsActive {
		return apperrors.NotFound("category", id)
	}
	stored := *old
	stored.IsActive = false
	stored.UpdatedAt = r.db.now()
	r.db.categories[id] = &stored
	return nil
}

func (r *CategoryRepository) ListActive(_ context.Context) ([]domain.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CategoryRepository) IsActive(_ context.Context, id int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.categoryActive(id), nil
}
