package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetrier(t *testing.T, policy Policy) *Retrier {
	t.Helper()
	r, err := New(policy, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, Policy{MaxRetries: 3, BackoffBase: time.Millisecond}.Validate())
	assert.Error(t, Policy{MaxRetries: -1, BackoffBase: time.Millisecond}.Validate())
	assert.Error(t, Policy{MaxRetries: 3, BackoffBase: 0}.Validate())
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	r := newTestRetrier(t, Policy{MaxRetries: 3, BackoffBase: time.Millisecond})

	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	r := newTestRetrier(t, Policy{MaxRetries: 2, BackoffBase: time.Millisecond})

	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		return errors.New("still failing")
	})

	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	permanent := errors.New("permanent")
	r := newTestRetrier(t, Policy{
		MaxRetries:  5,
		BackoffBase: time.Millisecond,
		Retryable: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	r := newTestRetrier(t, Policy{MaxRetries: 10, BackoffBase: time.Second})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func() error {
			attempts++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	r := newTestRetrier(t, Policy{
		MaxRetries:  5,
		BackoffBase: 100 * time.Millisecond,
		MaxBackoff:  time.Second,
	})

	assert.Equal(t, 100*time.Millisecond, r.Backoff(0))
	assert.Equal(t, 200*time.Millisecond, r.Backoff(1))
	assert.Equal(t, 400*time.Millisecond, r.Backoff(2))
	assert.Equal(t, 800*time.Millisecond, r.Backoff(3))
	assert.Equal(t, time.Second, r.Backoff(4))
	assert.Equal(t, time.Second, r.Backoff(10))
}
