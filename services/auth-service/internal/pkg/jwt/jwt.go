package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired истек срок действия токена (exp в прошлом)
var ErrTokenExpired = jwt.ErrTokenExpired

// AccessClaims claims access токена
type AccessClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	UserType  string `json:"user_type"`
	jwt.RegisteredClaims
}

// Username возвращает subject токена
func (c *AccessClaims) Username() string {
	return c.Subject
}

// Manager подписывает и проверяет access токены HS256
type Manager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewManager создает новый экземпляр JWT менеджера
func NewManager(secretKey string, ttl time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// TTL время жизни access токена
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// GenerateAccessToken генерирует access токен
func (m *Manager) GenerateAccessToken(username, role, userType, sessionID string) (string, error) {
	now := m.now().UTC()
	claims := &AccessClaims{
		Role:      role,
		SessionID: sessionID,
		UserType:  userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken проверяет подпись и временные claims токена.
// Для просроченного токена ошибка оборачивает ErrTokenExpired.
func (m *Manager) ValidateAccessToken(token string) (*AccessClaims, error) {
	claims, err := m.parse(token, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// ParseWithoutTimeValidation проверяет только подпись.
// Нужен для выхода с уже просроченным токеном.
func (m *Manager) ParseWithoutTimeValidation(token string) (*AccessClaims, error) {
	return m.parse(token, jwt.WithoutClaimsValidation())
}

func (m *Manager) parse(token string, opts ...jwt.ParserOption) (*AccessClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsedToken, err := jwt.ParseWithClaims(token, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("failed to parse token: %w", ErrTokenExpired)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsedToken.Claims.(*AccessClaims)
	if !ok || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
