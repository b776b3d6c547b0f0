package service

import (
	"context"
	"fmt"
	"time"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/pkg/hash"
	"MedSchedulePlatform/services/auth-service/internal/pkg/jwt"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// TokenClaims проверенные claims access токена
type TokenClaims struct {
	Username  string
	Role      domain.Role
	UserType  domain.UserType
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService выпускает и проверяет access и refresh токены.
// Проверка access токена не обращается к хранилищу сессий.
type TokenService struct {
	jwtManager  *jwt.Manager
	refreshRepo repository.RefreshTokenRepository
	hasher      *hash.TokenHasher
	refreshTTL  time.Duration
	now         func() time.Time
}

// NewTokenService создает новый экземпляр TokenService
func NewTokenService(jwtManager *jwt.Manager, refreshRepo repository.RefreshTokenRepository, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		jwtManager:  jwtManager,
		refreshRepo: refreshRepo,
		hasher:      hash.NewTokenHasher(),
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// WithClock подменяет источник времени для refresh токенов
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// AccessTTL время жизни access токена
func (s *TokenService) AccessTTL() time.Duration {
	return s.jwtManager.TTL()
}

// IssueAccessToken подписывает access токен для субъекта и сессии
func (s *TokenService) IssueAccessToken(principal domain.Principal, sessionID string) (string, error) {
	identity := principal.Identity()
	token, err := s.jwtManager.GenerateAccessToken(identity.Username, string(identity.Role), string(identity.UserType), sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken создает непрозрачный refresh токен. Сохраняется только его хеш.
func (s *TokenService) IssueRefreshToken(ctx context.Context, username string, userType domain.UserType, sessionID string) (string, error) {
	token, err := s.hasher.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	record := &domain.RefreshToken{
		TokenHash: s.hasher.Hash(token),
		Username:  username,
		UserType:  userType,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.refreshRepo.Save(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return token, nil
}

// Validate проверяет подпись и срок действия access токена.
// Возвращает domain.ErrTokenExpired или domain.ErrTokenInvalid.
func (s *TokenService) Validate(token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(err, errors.ErrTokenExpired, domain.ErrTokenExpired.Message)
		}
		return nil, errors.Wrap(err, errors.ErrTokenInvalid, domain.ErrTokenInvalid.Message)
	}

	result := &TokenClaims{
		Username:  claims.Username(),
		Role:      domain.Role(claims.Role),
		UserType:  domain.UserType(claims.UserType),
		SessionID: claims.SessionID,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// ExtractSessionID возвращает идентификатор сессии из токена или пустую строку.
// Подпись проверяется, срок действия нет.
func (s *TokenService) ExtractSessionID(token string) string {
	claims, err := s.jwtManager.ParseWithoutTimeValidation(token)
	if err != nil {
		return ""
	}
	return claims.SessionID
}

// ConsumeRefreshToken погашает refresh токен. Повторно использовать его нельзя.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	record, err := s.refreshRepo.Consume(ctx, s.hasher.Hash(token))
	if err != nil {
		return nil, err
	}
	if !s.now().Before(record.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}
	return record, nil
}

// RevokeRefreshToken удаляет refresh токен
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.refreshRepo.Delete(ctx, s.hasher.Hash(token)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
