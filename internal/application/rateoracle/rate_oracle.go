package rateoracle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

// fallbackSOLUSDRate is the last-resort conversion rate, used only when the
// upstream feed has never answered and no default is configured.
const fallbackSOLUSDRate = 100.0

type IExchangeRateClient interface {
	GetExchangeRate(ctx context.Context, cryptoCurrency, fiatCurrency string) (*domain.ExchangeRate, error)
}

// IRateOracle answers SOL/USD conversions. CurrentRate never fails: upstream
// errors degrade to the last good value, then to the configured default.
// SynchronizedRate pins one rate per subject for a short window so one
// user's successive balance reads do not jitter with the price feed.
type IRateOracle interface {
	CurrentRate(ctx context.Context) float64
	SynchronizedRate(ctx context.Context, subject string) float64
}

type rateOracle struct {
	client IExchangeRateClient
	redis  cache.RedisClient
	config config.OracleConfig
	logger zerolog.Logger

	mu        sync.Mutex
	lastRate  float64
	lastFetch time.Time
}

func New(client IExchangeRateClient, redis cache.RedisClient, cfg config.OracleConfig, logger zerolog.Logger) IRateOracle {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.PinWindow <= 0 {
		cfg.PinWindow = 30 * time.Second
	}
	return &rateOracle{
		client: client,
		redis:  redis,
		config: cfg,
		logger: logger.With().Str("component", "rate_oracle").Logger(),
	}
}

func (o *rateOracle) CurrentRate(ctx context.Context) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.lastRate > 0 && time.Since(o.lastFetch) < o.config.CacheTTL {
		return o.lastRate
	}

	rate, err := o.client.GetExchangeRate(ctx, "SOL", "USD")
	if err != nil {
		o.logger.Warn().Err(err).Msg("Rate feed unavailable, using fallback rate")
		return o.fallbackRate()
	}

	o.lastRate = rate.Rate
	o.lastFetch = time.Now()
	return o.lastRate
}

// fallbackRate must be called with the mutex held.
func (o *rateOracle) fallbackRate() float64 {
	if o.lastRate > 0 {
		return o.lastRate
	}
	if o.config.DefaultRate > 0 {
		return o.config.DefaultRate
	}
	return fallbackSOLUSDRate
}

func (o *rateOracle) SynchronizedRate(ctx context.Context, subject string) float64 {
	pinKey := "rate:pin:" + subject

	var pinned float64
	if err := o.redis.Get(ctx, pinKey, &pinned); err == nil && pinned > 0 {
		return pinned
	}

	rate := o.CurrentRate(ctx)

	created, err := o.redis.SetNX(ctx, pinKey, rate, o.config.PinWindow)
	if err != nil {
		o.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to pin rate, returning unpinned value")
		return rate
	}
	if !created {
		// Lost the race: return the winner's rate for consistency.
		if err := o.redis.Get(ctx, pinKey, &pinned); err == nil && pinned > 0 {
			return pinned
		}
	}

	return rate
}
