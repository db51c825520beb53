package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
	"github.com/utafrali/storefront/pkg/validator"
)

// maxSlugAttempts bounds the numeric suffixes tried for a taken slug.
const maxSlugAttempts = 50

// CategoryEvents publishes category domain events.
type CategoryEvents interface {
	PublishCategoryUpdated(ctx context.Context, category *domain.Category) error
}

// ActivityLookup answers category activity, possibly from a cache.
type ActivityLookup interface {
	IsActive(ctx context.Context, id int64) (bool, error)
}

// ActivityInvalidator drops a cached activity entry.
type ActivityInvalidator interface {
	Invalidate(ctx context.Context, id int64) error
}

// CategoryService implements category browsing and administration.
type CategoryService struct {
	repo        repository.CategoryRepository
	lookup      ActivityLookup
	invalidator ActivityInvalidator
	events      CategoryEvents
	logger      *slog.Logger
}

// NewCategoryService creates a new category service. lookup defaults to the
// repository and invalidator may be nil when no cache is configured.
func NewCategoryService(
	repo repository.CategoryRepository,
	lookup ActivityLookup,
	invalidator ActivityInvalidator,
	events CategoryEvents,
	logger *slog.Logger,
) *CategoryService {
	if lookup == nil {
		lookup = repo
	}
	return &CategoryService{
		repo:        repo,
		lookup:      lookup,
		invalidator: invalidator,
		events:      events,
		logger:      logger,
	}
}

// IsActiveCategory reports whether id names an active category.
func (s *CategoryService) IsActiveCategory(ctx context.Context, id int64) (bool, error) {
	active, err := s.lookup.IsActive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("lookup category activity: %w", err)
	}
	return active, nil
}

// ListCategories returns all active categories ordered by id.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CategoryTree returns the active categories nested by parent.
func (s *CategoryService) CategoryTree(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(categories), nil
}

// GetCategory finds an active category by numeric id or by slug.
func (s *CategoryService) GetCategory(ctx context.Context, idOrSlug string) (*domain.Category, error) {
	var (
		c   *domain.Category
		err error
	)
	if id, convErr := strconv.ParseInt(idOrSlug, 10, 64); convErr == nil {
		c, err = s.repo.GetByID(ctx, id)
	} else {
		c, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if !c.IsActive {
		return nil, apperrors.NotFound("category", idOrSlug)
	}
	return c, nil
}

// CreateCategory creates a category with a unique slug derived from its name.
func (s *CategoryService) CreateCategory(ctx context.Context, input *domain.CreateCategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.requireParent(ctx, 0, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &domain.Category{
		Name:     input.Name,
		ParentID: input.ParentID,
		IsActive: true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	base := baseSlug(input.Name)
	if err := s.withFreeSlug(ctx, base, category, s.repo.Create); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.invalidate(ctx, category.ID)
	s.publish(ctx, category)
	s.logger.InfoContext(ctx, "category created",
		slog.Int64("category_id", category.ID),
		slog.String("slug", category.Slug),
	)
	return category, nil
}

// UpdateCategory applies input to a category. A new name derives a new slug.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, input *domain.UpdateCategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	if input.ParentID != nil {
		if err := s.requireParent(ctx, id, *input.ParentID); err != nil {
			return nil, err
		}
		category.ParentID = input.ParentID
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if input.Name != nil && *input.Name != category.Name {
		category.Name = *input.Name
		base := baseSlug(category.Name)
		if base != category.Slug {
			err = s.withFreeSlug(ctx, base, category, s.repo.Update)
		} else {
			err = s.repo.Update(ctx, category)
		}
	} else {
		err = s.repo.Update(ctx, category)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, category)
	s.logger.InfoContext(ctx, "category updated",
		slog.Int64("category_id", id),
		slog.Bool("is_active", category.IsActive),
	)
	return category, nil
}

// DeleteCategory soft-deletes a category. Its products stop being listed.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx, id)

	if category, err := s.repo.GetByID(ctx, id); err == nil {
		s.publish(ctx, category)
	}

	s.logger.InfoContext(ctx, "category deleted", slog.Int64("category_id", id))
	return nil
}

// withFreeSlug runs write with category.Slug set to base, then base-2,
// base-3 and so on while the slug is taken.
func (s *CategoryService) withFreeSlug(ctx context.Context, base string, category *domain.Category, write func(context.Context, *domain.Category) error) error {
	for n := 1; n <= maxSlugAttempts; n++ {
		category.Slug = slug.WithSuffix(base, n)
		err := write(ctx, category)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return err
		}
	}
	return apperrors.Conflict(fmt.Sprintf("no free slug for %q", base))
}

func (s *CategoryService) requireParent(ctx context.Context, id, parentID int64) error {
	if parentID == id {
		return apperrors.InvalidInput("a category cannot be its own parent")
	}
	active, err := s.repo.IsActive(ctx, parentID)
	if err != nil {
		return fmt.Errorf("check parent category: %w", err)
	}
	if !active {
		return apperrors.InvalidInputf("parent category %d does not exist or is inactive", parentID)
	}
	if id == 0 {
		return nil
	}
	return s.requireNotDescendant(ctx, id, parentID)
}

// requireNotDescendant rejects parentID when id is among its ancestors.
func (s *CategoryService) requireNotDescendant(ctx context.Context, id, parentID int64) error {
	seen := map[int64]struct{}{}
	for cur := parentID; ; {
		if _, ok := seen[cur]; ok {
			return nil
		}
		seen[cur] = struct{}{}

		c, err := s.repo.GetByID(ctx, cur)
		if err != nil {
			return fmt.Errorf("walk category ancestors: %w", err)
		}
		if c.ParentID == nil {
			return nil
		}
		if *c.ParentID == id {
			return apperrors.InvalidInputf("category %d is a descendant of category %d", parentID, id)
		}
		cur = *c.ParentID
	}
}

func (s *CategoryService) invalidate(ctx context.Context, id int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate category cache",
			slog.Int64("category_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CategoryService) publish(ctx context.Context, category *domain.Category) {
	if err := s.events.PublishCategoryUpdated(ctx, category); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish category.updated event",
			slog.Int64("category_id", category.ID),
			slog.String("error", err.Error()),
		)
	}
}

func baseSlug(name string) string {
	if s := slug.Generate(name); s != "" {
		return s
	}
	return "category"
}
