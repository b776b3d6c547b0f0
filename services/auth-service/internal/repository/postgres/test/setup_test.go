package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/services/auth-service/internal/repository/postgres"
)

// setupTestDB подключается к TEST_DATABASE_URL и создает схему.
// Без переменной окружения тесты пропускаются.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("test database is not available: %v", err)
	}

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	t.Cleanup(pool.Close)
	return pool
}

// uniqueName изолирует данные тестов друг от друга
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// insertPatient создает пациента напрямую, справочник пациентов только читает
func insertPatient(t *testing.T, pool *pgxpool.Pool, username string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO patients (id, username, password_hash, full_name) VALUES ($1, $2, $3, $4)`,
		id, username, "$2a$04$hash", "Jane Roe")
	require.NoError(t, err)
	return id
}
