package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/pkg/config"
	"MedSchedulePlatform/pkg/connection"
)

// Postgres представляет подключение к PostgreSQL
type Postgres struct {
	Pool *pgxpool.Pool
}

// Config представляет конфигурацию PostgreSQL
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Connection pool settings
	MaxConns    int
	MinConns    int
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
	// Retry settings
	MaxRetries    int
	RetryInterval time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          5432,
		User:          "postgres",
		Password:      "postgres",
		Database:      "postgres",
		SSLMode:       "disable",
		MaxConns:      20,
		MinConns:      2,
		MaxConnLife:   30 * time.Minute,
		MaxConnIdle:   5 * time.Minute,
		HealthCheck:   30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// FromAppConfig строит конфигурацию пула из секции database конфигурации приложения
func FromAppConfig(dbConfig config.DatabaseConfig) *Config {
	cfg := NewConfig()
	cfg.Host = dbConfig.Host
	cfg.Port = dbConfig.Port
	cfg.User = dbConfig.User
	cfg.Password = dbConfig.Password
	cfg.Database = dbConfig.Name
	if dbConfig.SSLMode != "" {
		cfg.SSLMode = dbConfig.SSLMode
	}
	if dbConfig.MaxConns > 0 {
		cfg.MaxConns = dbConfig.MaxConns
		if cfg.MinConns > cfg.MaxConns {
			cfg.MinConns = cfg.MaxConns
		}
	}
	return cfg
}

// ConnString возвращает строку подключения pgx с параметрами пула
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d&pool_max_conn_lifetime=%s&pool_max_conn_idle_time=%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
		c.SSLMode, c.MaxConns, c.MinConns, c.MaxConnLife, c.MaxConnIdle,
	)
}

// Connect устанавливает подключение к PostgreSQL с retry логикой
func Connect(ctx context.Context, cfg *Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolConfig.HealthCheckPeriod = cfg.HealthCheck
	poolConfig.MaxConnLifetimeJitter = 30 * time.Second

	var postgres *Postgres
	err = connection.WithRetry(ctx, connection.Backoff(cfg.MaxRetries, cfg.RetryInterval), "database", func(ctx context.Context) error {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		postgres = &Postgres{Pool: pool}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return postgres, nil
}

// Close закрывает подключение к базе данных
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// HealthCheck проверяет состояние подключения к базе данных
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if p.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var result string
	return p.Pool.QueryRow(ctx, "SELECT 'healthy'").Scan(&result)
}

// WithTx выполняет fn в транзакции. При ошибке транзакция откатывается.
func (p *Postgres) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if p.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
