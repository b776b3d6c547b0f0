package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	authRedis "MedSchedulePlatform/services/auth-service/internal/repository/redis"
)

func setupTestRedis(t *testing.T) *redisClient.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	client := redisClient.NewClient(&redisClient.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis is not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRefreshTokenRepository_SaveAndConsume(t *testing.T) {
	client := setupTestRedis(t)
	repo := authRedis.NewRefreshTokenRepository(client)
	ctx := context.Background()

	token := &domain.RefreshToken{
		TokenHash: uuid.NewString(),
		Username:  "dr.house",
		UserType:  domain.UserTypeDoctor,
		SessionID: uuid.NewString(),
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, token))

	ttl, err := client.TTL(ctx, "refresh:"+token.TokenHash).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	consumed, err := repo.Consume(ctx, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, token.Username, consumed.Username)
	assert.Equal(t, token.SessionID, consumed.SessionID)

	// повторное использование невозможно
	_, err = repo.Consume(ctx, token.TokenHash)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefreshTokenRepository_Delete(t *testing.T) {
	client := setupTestRedis(t)
	repo := authRedis.NewRefreshTokenRepository(client)
	ctx := context.Background()

	token := &domain.RefreshToken{
		TokenHash: uuid.NewString(),
		Username:  "patient.jane",
		UserType:  domain.UserTypePatient,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, token))
	require.NoError(t, repo.Delete(ctx, token.TokenHash))
	require.NoError(t, repo.Delete(ctx, token.TokenHash))

	_, err := repo.Consume(ctx, token.TokenHash)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefreshTokenRepository_SaveExpired(t *testing.T) {
	client := setupTestRedis(t)
	repo := authRedis.NewRefreshTokenRepository(client)

	err := repo.Save(context.Background(), &domain.RefreshToken{
		TokenHash: uuid.NewString(),
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	assert.Error(t, err)
}
