package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"MedSchedulePlatform/pkg/config"
	"MedSchedulePlatform/pkg/connection"
)

// Client представляет подключение к Redis
type Client struct {
	Client *redis.Client
}

// Config представляет конфигурацию Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	// Connection pool settings
	PoolSize    int
	MinIdleConn int
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Addr:          "localhost:6379",
		PoolSize:      10,
		MinIdleConn:   2,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// FromAppConfig строит конфигурацию клиента из секции redis конфигурации приложения
func FromAppConfig(redisConfig config.RedisConfig) *Config {
	cfg := NewConfig()
	cfg.Addr = redisConfig.Addr
	cfg.Password = redisConfig.Password
	cfg.DB = redisConfig.DB
	if redisConfig.PoolSize > 0 {
		cfg.PoolSize = redisConfig.PoolSize
	}
	if redisConfig.MinIdleConn > 0 {
		cfg.MinIdleConn = redisConfig.MinIdleConn
	}
	if redisConfig.MaxRetries >= 0 {
		cfg.MaxRetries = redisConfig.MaxRetries
	}
	if redisConfig.RetryInterval.Duration > 0 {
		cfg.RetryInterval = redisConfig.RetryInterval.Duration
	}
	return cfg
}

// Connect устанавливает подключение к Redis с retry логикой
func Connect(ctx context.Context, cfg *Config) (*Client, error) {
	var client *Client
	err := connection.WithRetry(ctx, connection.Backoff(cfg.MaxRetries, cfg.RetryInterval), "redis", func(ctx context.Context) error {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConn,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolTimeout:  4 * time.Second,
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		client = &Client{Client: rdb}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close закрывает подключение к Redis
func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// HealthCheck проверяет состояние подключения к Redis
func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}
