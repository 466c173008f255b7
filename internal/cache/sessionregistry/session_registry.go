package sessionregistry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
)

// ISessionRegistry holds the short-lived binding between a provider-facing
// username and the game session that last launched for it. There is no
// delete path: TTL expiry retires sessions.
type ISessionRegistry interface {
	Put(ctx context.Context, username string, record domain.SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, username string) (*domain.SessionRecord, error)
}

type sessionRegistry struct {
	redis  cache.RedisClient
	logger zerolog.Logger
}

func New(redis cache.RedisClient, logger zerolog.Logger) ISessionRegistry {
	return &sessionRegistry{
		redis:  redis,
		logger: logger,
	}
}

func key(username string) string {
	return "session:" + username
}

func (r *sessionRegistry) Put(ctx context.Context, username string, record domain.SessionRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := r.redis.Set(ctx, key(username), record, ttl); err != nil {
		return fmt.Errorf("failed to store session record: %w", err)
	}

	r.logger.Info().
		Str("username", username).
		Str("game_id", record.GameID).
		Dur("ttl", ttl).
		Msg("Session record stored")
	return nil
}

func (r *sessionRegistry) Get(ctx context.Context, username string) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	err := r.redis.Get(ctx, key(username), &record)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	return &record, nil
}
