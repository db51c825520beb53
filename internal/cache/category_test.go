package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

type countingSource struct {
	active map[int64]bool
	calls  int
	err    error
}

func (s *countingSource) IsActive(_ context.Context, id int64) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.active[id], nil
}

func setupCache(t *testing.T, src *countingSource) (*CategoryActivity, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCategoryActivity(client, src, time.Minute, logger.Discard()), mr
}

func TestCategoryActivity_CachesResult(t *testing.T) {
	src := &countingSource{active: map[int64]bool{1: true}}
	c, mr := setupCache(t, src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		active, err := c.IsActive(ctx, 1)
		require.NoError(t, err)
		assert.True(t, active)
	}
	assert.Equal(t, 1, src.calls)

	got, err := mr.Get("storefront:category:active:1")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.Equal(t, time.Minute, mr.TTL("storefront:category:active:1"))
}

func TestCategoryActivity_CachesInactive(t *testing.T) {
	src := &countingSource{active: map[int64]bool{}}
	c, _ := setupCache(t, src)

	for i := 0; i < 2; i++ {
		active, err := c.IsActive(context.Background(), 5)
		require.NoError(t, err)
		assert.False(t, active)
	}
	assert.Equal(t, 1, src.calls)
}

func TestCategoryActivity_ExpiresAfterTTL(t *testing.T) {
	src := &countingSource{active: map[int64]bool{1: true}}
	c, mr := setupCache(t, src)

	_, err := c.IsActive(context.Background(), 1)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.IsActive(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestCategoryActivity_Invalidate(t *testing.T) {
	src := &countingSource{active: map[int64]bool{1: true}}
	c, _ := setupCache(t, src)
	ctx := context.Background()

	_, err := c.IsActive(ctx, 1)
	require.NoError(t, err)

	src.active[1] = false
	require.NoError(t, c.Invalidate(ctx, 1))

	active, err := c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, 2, src.calls)
}

func TestCategoryActivity_RedisDownFallsThrough(t *testing.T) {
	src := &countingSource{active: map[int64]bool{1: true}}
	c, mr := setupCache(t, src)
	mr.Close()

	active, err := c.IsActive(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, src.calls)
}

func TestCategoryActivity_SourceError(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	c, _ := setupCache(t, src)

	_, err := c.IsActive(context.Background(), 1)
	assert.EqualError(t, err, "db down")
}
