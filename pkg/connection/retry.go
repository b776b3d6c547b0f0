// Package connection повторяет подключение к внешним системам с
// экспоненциальной задержкой между попытками.
package connection

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig содержит конфигурацию повторных попыток
type RetryConfig struct {
	// MaxRetries число повторов после первой попытки
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Backoff строит конфигурацию из пары настроек клиента: числа повторов и начальной задержки
func Backoff(maxRetries int, interval time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = maxRetries
	if interval > 0 {
		cfg.InitialDelay = interval
		if cfg.MaxDelay < interval {
			cfg.MaxDelay = interval
		}
	}
	return cfg
}

// RetryFunc представляет функцию для повторной попытки
type RetryFunc func(ctx context.Context) error

// WithRetry выполняет operation до успеха или исчерпания попыток.
// target попадает в текст ошибки: "failed to connect to <target> after N retries".
func WithRetry(ctx context.Context, config RetryConfig, target string, operation RetryFunc) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s connect cancelled: %w", target, ctx.Err())
			case <-time.After(Delay(attempt, config)):
			}
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to connect to %s after %d retries: %w", target, config.MaxRetries, lastErr)
}

// Delay задержка перед повтором номер attempt (с единицы)
func Delay(attempt int, config RetryConfig) time.Duration {
	if attempt < 1 {
		return 0
	}
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// ±25%
	if config.Jitter && delay > 0 {
		spread := float64(delay) * 0.25
		delay += time.Duration(spread * (2*rand.Float64() - 1))
	}
	return delay
}
