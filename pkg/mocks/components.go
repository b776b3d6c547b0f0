// Package mocks содержит testify моки общих компонентов платформы.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"MedSchedulePlatform/pkg/health"
	"MedSchedulePlatform/pkg/rabbitmq"
)

// MockRateLimiter имитирует pkg/ratelimit.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// MockPublisher имитирует pkg/rabbitmq.Producer
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, body []byte, options ...rabbitmq.PublishOption) error {
	args := m.Called(ctx, body, options)
	return args.Error(0)
}

// PublishOptions применяет переданные опции, чтобы проверить routing key и заголовки
func PublishOptions(options []rabbitmq.PublishOption) *rabbitmq.PublishOptions {
	opts := &rabbitmq.PublishOptions{}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// MockHealthChecker имитирует pkg/health.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Check(ctx context.Context) *health.HealthStatus {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*health.HealthStatus)
}
