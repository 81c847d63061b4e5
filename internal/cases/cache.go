package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache keeps short-lived balance snapshots in Redis for dashboard
// reads. A miss always falls through to the SQL computation.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache constructs the cache.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(caseID int64) string {
	return fmt.Sprintf("case:balance:%d", caseID)
}

// Get returns the cached balance, reporting a hit.
func (c *BalanceCache) Get(ctx context.Context, caseID int64) (decimal.Decimal, bool) {
	if c == nil || c.client == nil {
		return decimal.Zero, false
	}
	raw, err := c.client.Get(ctx, balanceKey(caseID)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return balance, true
}

// Set stores the balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, caseID int64, balance decimal.Decimal) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, balanceKey(caseID), balance.String(), c.ttl).Err()
}

// Invalidate drops the cached value after a mutation.
func (c *BalanceCache) Invalidate(ctx context.Context, caseID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, balanceKey(caseID)).Err()
}
