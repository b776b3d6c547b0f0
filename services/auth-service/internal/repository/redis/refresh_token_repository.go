package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

const refreshKeyPrefix = "refresh:"

// RefreshTokenRepository реализация хранилища refresh токенов для Redis.
// Ключ refresh:<sha256 токена>, TTL равен оставшемуся времени жизни токена.
type RefreshTokenRepository struct {
	client *redis.Client
}

// NewRefreshTokenRepository создает новый экземпляр RefreshTokenRepository
func NewRefreshTokenRepository(client *redis.Client) repository.RefreshTokenRepository {
	return &RefreshTokenRepository{client: client}
}

// Save сохраняет запись refresh токена
func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token is already expired")
	}

	if err := r.client.Set(ctx, refreshKeyPrefix+token.TokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token in redis: %w", err)
	}
	return nil
}

// Consume атомарно читает и удаляет запись (GETDEL)
func (r *RefreshTokenRepository) Consume(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	data, err := r.client.GetDel(ctx, refreshKeyPrefix+tokenHash).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	var token domain.RefreshToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refresh token: %w", err)
	}
	return &token, nil
}

// Delete удаляет запись refresh токена. Отсутствие записи не ошибка.
func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, refreshKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
