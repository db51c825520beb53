package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// RatingGroupID is the consumer group of the rating sync consumer.
const RatingGroupID = "catalog-service.rating-sync"

// RatingApplier stores a product's average rating.
type RatingApplier interface {
	ApplyRating(ctx context.Context, productID int64, rating float64) error
}

// NewRatingHandler returns the handler for review.rated events. Payloads
// that cannot be applied, and products that do not exist, fail permanently
// so the message is dead-lettered instead of retried.
func NewRatingHandler(applier RatingApplier, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var update domain.RatingUpdate
		if err := event.UnmarshalData(&update); err != nil {
			return pkgkafka.Permanent(fmt.Errorf("decode rating update: %w", err))
		}

		err := applier.ApplyRating(ctx, update.ProductID, update.RatingAvg)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrNotFound):
			return pkgkafka.Permanent(err)
		default:
			return fmt.Errorf("apply rating: %w", err)
		}

		logger.DebugContext(ctx, "product rating synced",
			slog.Int64("product_id", update.ProductID),
			slog.Float64("rating", update.RatingAvg),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}
