package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(context.Background(), cfg, "redis", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 1}
	cause := errors.New("connection refused")

	calls := 0
	err := WithRetry(context.Background(), cfg, "database", func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to connect to database after 2 retries")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Second, Multiplier: 2}
	calls := 0
	err := WithRetry(ctx, cfg, "rabbitmq", func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "rabbitmq connect cancelled")
	assert.Equal(t, 1, calls)
}

func TestDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, time.Duration(0), Delay(0, cfg))
	assert.Equal(t, 100*time.Millisecond, Delay(1, cfg))
	assert.Equal(t, 200*time.Millisecond, Delay(2, cfg))
	assert.Equal(t, 400*time.Millisecond, Delay(3, cfg))
	assert.Equal(t, time.Second, Delay(10, cfg))
}

func TestDelay_Jitter(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 1, Jitter: true}

	for i := 0; i < 20; i++ {
		d := Delay(1, cfg)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestBackoff(t *testing.T) {
	cfg := Backoff(5, 2*time.Second)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)

	cfg = Backoff(1, time.Minute)
	assert.Equal(t, time.Minute, cfg.MaxDelay)
}
