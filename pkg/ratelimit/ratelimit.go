package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter интерфейс для ограничения частоты запросов
type RateLimiter interface {
	// CheckRateLimit проверяет лимит для заданного ключа
	// Возвращает true, если лимит превышен
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter реализация RateLimiter с использованием Redis.
// Фиксированное окно: счетчик на ключ живет window.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisRateLimiter создает новый экземпляр RedisRateLimiter
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: "rate_limit"}
}

// CheckRateLimit увеличивает счетчик ключа и сообщает, превышен ли лимит.
// TTL выставляется при первом обращении в окне.
func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit ttl: %w", err)
		}
	}

	return count > int64(limit), nil
}
