package catalog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/tracing"
)

var tracer = tracing.Tracer("github.com/utafrali/storefront/internal/catalog")

// Order selects how a page is sorted.
type Order int

const (
	// OrderByID sorts by ascending id.
	OrderByID Order = iota
	// OrderByRelevance sorts by descending searchindex.Score, then ascending id.
	OrderByRelevance
)

func (o Order) String() string {
	if o == OrderByRelevance {
		return "relevance"
	}
	return "id"
}

// OrderFor returns relevance order iff the set contains a text predicate.
func OrderFor(set PredicateSet) Order {
	if _, ok := set.Text(); ok {
		return OrderByRelevance
	}
	return OrderByID
}

// Window is an offset/limit slice of an ordered result.
type Window struct {
	Offset int
	Limit  int
}

// WindowFor returns the window of a 1-based page.
func WindowFor(page, pageSize int) Window {
	return Window{Offset: (page - 1) * pageSize, Limit: pageSize}
}

// pastEnd reports whether the page starts at or after the last match. It
// compares page numbers so an enormous page cannot overflow the offset.
func pastEnd(page, pageSize int, total int64) bool {
	if total == 0 {
		return true
	}
	lastPage := (total + int64(pageSize) - 1) / int64(pageSize)
	return int64(page) > lastPage
}

// Store executes predicate sets. CountMatching and FetchPage must apply the
// set identically so the count agrees with paging through every page.
type Store interface {
	CountMatching(ctx context.Context, set PredicateSet) (int64, error)
	FetchPage(ctx context.Context, set PredicateSet, order Order, w Window) ([]domain.Product, error)
}

// Engine runs the count and the page of a query against a Store.
type Engine struct {
	store Store
}

// NewEngine creates an engine over store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Run counts all matches of set and fetches one page of them. The two reads
// are separate statements; under concurrent writes total may differ from
// the page's source set, but each is correct as of its own read. A page past
// the end yields no items and the true total.
func (e *Engine) Run(ctx context.Context, set PredicateSet, page, pageSize int) ([]domain.Product, int64, error) {
	order := OrderFor(set)

	ctx, span := tracer.Start(ctx, "catalog.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("catalog.order", order.String()),
		attribute.Int("catalog.page", page),
		attribute.Int("catalog.page_size", pageSize),
	)

	total, err := e.store.CountMatching(ctx, set)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count matching")
		return nil, 0, fmt.Errorf("count matching: %w", err)
	}
	span.SetAttributes(attribute.Int64("catalog.total", total))

	if pastEnd(page, pageSize, total) {
		return []domain.Product{}, total, nil
	}
	w := WindowFor(page, pageSize)

	items, err := e.store.FetchPage(ctx, set, order, w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch page")
		return nil, 0, fmt.Errorf("fetch %s-ordered page: %w", order, err)
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, total, nil
}
