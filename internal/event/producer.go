// Package event publishes storefront domain events and consumes the events
// of collaborating services.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for catalog domain events.
var (
	TopicProductCreated  = pkgkafka.Topic("product", "created")
	TopicProductUpdated  = pkgkafka.Topic("product", "updated")
	TopicProductDeleted  = pkgkafka.Topic("product", "deleted")
	TopicCategoryUpdated = pkgkafka.Topic("category", "updated")
	TopicReviewRated     = pkgkafka.Topic("review", "rated")
)

// Aggregate types.
const (
	AggregateTypeProduct  = "product"
	AggregateTypeCategory = "category"
)

// SourceCatalogService identifies events originating from this service.
const SourceCatalogService = "catalog-service"

// ProductData is the payload of product.created and product.updated.
type ProductData struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	SellerID    int64           `json:"seller_id"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

// ProductDeletedData is the payload of product.deleted.
type ProductDeletedData struct {
	ID int64 `json:"id"`
}

// CategoryUpdatedData is the payload of category.updated.
type CategoryUpdatedData struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes catalog domain events. A Producer without a Publisher
// drops events, which is how the service runs with Kafka disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func productData(p *domain.Product) ProductData {
	return ProductData{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		SellerID:    p.SellerID,
		ImageURL:    p.ImageURL,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, AggregateTypeProduct, product.ID, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicProductDeleted, AggregateTypeProduct, id, ProductDeletedData{ID: id})
}

// PublishCategoryUpdated publishes a category.updated event. It is sent for
// every category change, including deactivation.
func (p *Producer) PublishCategoryUpdated(ctx context.Context, c *domain.Category) error {
	data := CategoryUpdatedData{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		ParentID: c.ParentID,
		IsActive: c.IsActive,
	}
	return p.publish(ctx, TopicCategoryUpdated, AggregateTypeCategory, c.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType string, id int64, data any) error {
	if p.publisher == nil {
		return nil
	}

	aggregateID := strconv.FormatInt(id, 10)
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
