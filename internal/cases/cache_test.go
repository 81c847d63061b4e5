package cases

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBalanceCache(client, time.Minute), srv
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, hit := cache.Get(ctx, 7)
	assert.False(t, hit)

	cache.Set(ctx, 7, decimal.RequireFromString("412.50"))
	got, hit := cache.Get(ctx, 7)
	require.True(t, hit)
	assert.True(t, got.Equal(decimal.RequireFromString("412.50")))
}

func TestBalanceCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 3, decimal.NewFromInt(100))
	cache.Invalidate(ctx, 3)
	_, hit := cache.Get(ctx, 3)
	assert.False(t, hit)
}

func TestBalanceCacheTTL(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 9, decimal.NewFromInt(50))
	srv.FastForward(2 * time.Minute)
	_, hit := cache.Get(ctx, 9)
	assert.False(t, hit)
}

func TestBalanceCacheNilSafe(t *testing.T) {
	var cache *BalanceCache
	ctx := context.Background()

	_, hit := cache.Get(ctx, 1)
	assert.False(t, hit)
	cache.Set(ctx, 1, decimal.NewFromInt(1))
	cache.Invalidate(ctx, 1)
}

func TestBalanceCacheGarbageValue(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, srv.Set("case:balance:4", "not a number"))
	_, hit := cache.Get(ctx, 4)
	assert.False(t, hit)
}
