package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Policy describes how an operation may be retried. Retryable decides
// whether a given error is worth another attempt; a nil Retryable retries
// everything.
type Policy struct {
	MaxRetries  int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	Retryable   func(error) bool
}

func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", p.MaxRetries)
	}
	if p.BackoffBase <= 0 {
		return fmt.Errorf("backoff base must be positive, got %s", p.BackoffBase)
	}
	return nil
}

type Retrier struct {
	policy Policy
	logger zerolog.Logger
}

func New(policy Policy, logger zerolog.Logger) (*Retrier, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}
	if policy.MaxBackoff == 0 {
		policy.MaxBackoff = 30 * time.Second
	}
	return &Retrier{
		policy: policy,
		logger: logger,
	}, nil
}

// Do runs operation until it succeeds, exhausts the policy, or hits a
// non-retryable error. Backoff waits respect context cancellation.
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 0 {
				r.logger.Info().
					Int("attempt", attempt).
					Msg("Operation succeeded after retries")
			}
			return nil
		}

		if r.policy.Retryable != nil && !r.policy.Retryable(lastErr) {
			return lastErr
		}

		if attempt == r.policy.MaxRetries {
			break
		}

		backoff := r.Backoff(attempt)
		r.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Operation failed, retrying after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// Backoff returns the exponential backoff for a zero-based attempt number,
// capped at the policy's MaxBackoff.
func (r *Retrier) Backoff(attempt int) time.Duration {
	backoff := time.Duration(float64(r.policy.BackoffBase) * math.Pow(2, float64(attempt)))
	if backoff > r.policy.MaxBackoff {
		backoff = r.policy.MaxBackoff
	}
	return backoff
}
