// Package cache keeps hot category lookups in Redis.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const activityKeyPrefix = "storefront:category:active:"

// ActivitySource answers category activity from the system of record.
type ActivitySource interface {
	IsActive(ctx context.Context, id int64) (bool, error)
}

// CategoryActivity caches IsActive results with a TTL. Redis failures fall
// through to the source so a cache outage never fails a request.
type CategoryActivity struct {
	client *redis.Client
	source ActivitySource
	ttl    time.Duration
	logger *slog.Logger
}

// NewCategoryActivity creates a cache in front of source.
func NewCategoryActivity(client *redis.Client, source ActivitySource, ttl time.Duration, logger *slog.Logger) *CategoryActivity {
	return &CategoryActivity{client: client, source: source, ttl: ttl, logger: logger}
}

func activityKey(id int64) string {
	return activityKeyPrefix + strconv.FormatInt(id, 10)
}

// IsActive reports whether category id exists and is active.
func (c *CategoryActivity) IsActive(ctx context.Context, id int64) (bool, error) {
	key := activityKey(id)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case err != redis.Nil:
		c.logger.WarnContext(ctx, "category cache read failed",
			slog.Int64("category_id", id),
			slog.String("error", err.Error()),
		)
	}

	active, err := c.source.IsActive(ctx, id)
	if err != nil {
		return false, err
	}

	stored := "0"
	if active {
		stored = "1"
	}
	if err := c.client.Set(ctx, key, stored, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "category cache write failed",
			slog.Int64("category_id", id),
			slog.String("error", err.Error()),
		)
	}
	return active, nil
}

// Invalidate drops the cached activity of category id.
func (c *CategoryActivity) Invalidate(ctx context.Context, id int64) error {
	return c.client.Del(ctx, activityKey(id)).Err()
}
