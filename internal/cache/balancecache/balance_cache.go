package balancecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
)

// IBalanceCache is the Cache Store adapter. Entries are advisory: absent,
// stale or evicted at any time, never a correctness dependency.
type IBalanceCache interface {
	Get(ctx context.Context, username string) (*domain.CacheEntry, error)
	Set(ctx context.Context, username string, balanceLamports int64) error
	Invalidate(ctx context.Context, username string) error
}

type balanceCache struct {
	redis  cache.RedisClient
	ttl    time.Duration
	logger zerolog.Logger
}

func New(redis cache.RedisClient, ttl time.Duration, logger zerolog.Logger) IBalanceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &balanceCache{
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

func key(username string) string {
	return "balance:" + username
}

func (c *balanceCache) Get(ctx context.Context, username string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	err := c.redis.Get(ctx, key(username), &entry)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance cache: %w", err)
	}
	return &entry, nil
}

// Set writes the new balance and snapshots the previously cached value into
// previous_balance so consumers can animate the transition.
func (c *balanceCache) Set(ctx context.Context, username string, balanceLamports int64) error {
	previous := balanceLamports
	if existing, err := c.Get(ctx, username); err == nil {
		previous = existing.Balance
	}

	entry := domain.CacheEntry{
		Balance:         balanceLamports,
		PreviousBalance: previous,
		UpdatedAt:       time.Now().UTC(),
	}

	if err := c.redis.Set(ctx, key(username), entry, c.ttl); err != nil {
		return fmt.Errorf("failed to write balance cache: %w", err)
	}
	return nil
}

func (c *balanceCache) Invalidate(ctx context.Context, username string) error {
	return c.redis.Del(ctx, key(username))
}
