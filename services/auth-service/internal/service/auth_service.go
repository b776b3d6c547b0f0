package service

import (
	"context"
	"fmt"
	"strings"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/pkg/password"
)

// LoginRequest данные для входа
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// TokenPair результат входа или обновления токенов
type TokenPair struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	SessionID    string          `json:"session_id"`
	Username     string          `json:"username"`
	Role         domain.Role     `json:"role"`
	UserType     domain.UserType `json:"user_type"`
}

// AuthService собирает вход, обновление токенов и выход из компонентов
// подсистемы безопасности
type AuthService struct {
	directory *Directory
	hasher    password.Hasher
	guard     *BruteForceGuard
	sessions  *SessionRegistry
	tokens    *TokenService
	metrics   *metrics.SecurityMetrics
	log       logger.Logger
}

// NewAuthService создает новый экземпляр AuthService
func NewAuthService(
	directory *Directory,
	hasher password.Hasher,
	guard *BruteForceGuard,
	sessions *SessionRegistry,
	tokens *TokenService,
	securityMetrics *metrics.SecurityMetrics,
	log logger.Logger,
) *AuthService {
	return &AuthService{
		directory: directory,
		hasher:    hasher,
		guard:     guard,
		sessions:  sessions,
		tokens:    tokens,
		metrics:   securityMetrics,
		log:       log,
	}
}

// Login проверяет блокировки и учетные данные, создает сессию и выпускает токены
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, domain.ErrValidation.WithDetails("username and password are required")
	}

	blocked, err := s.guard.IsIPBlocked(ctx, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to check ip block: %w", err)
	}
	if blocked {
		s.metrics.LoginAttempt("ip_blocked")
		s.log.Warn("Login rejected, ip is blocked",
			logger.CtxField(ctx),
			logger.String("ip_address", req.IPAddress),
			logger.String("username", username))
		return nil, domain.ErrIPBlocked
	}

	locked, err := s.guard.IsAccountLocked(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check account lock: %w", err)
	}
	if locked {
		s.metrics.LoginAttempt("locked")
		s.log.Warn("Login rejected, account is locked",
			logger.CtxField(ctx),
			logger.String("username", username),
			logger.String("ip_address", req.IPAddress))
		return nil, domain.ErrAccountLocked
	}

	principal, err := s.directory.FindPrincipalByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}
	credentialHash := ""
	if principal != nil {
		credentialHash = principal.CredentialHash()
	}
	if !s.hasher.Check(req.Password, credentialHash) || principal == nil {
		s.recordAttempt(ctx, username, req, false)
		return nil, domain.ErrInvalidCredentials
	}

	identity := principal.Identity()
	session, err := s.sessions.CreateSession(ctx, identity.Username, req.IPAddress, req.UserAgent, identity.UserType)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, principal, session.ID)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, username, req, true)
	s.log.Info("User logged in",
		logger.CtxField(ctx),
		logger.String("username", identity.Username),
		logger.String("role", string(identity.Role)),
		logger.String("session_id", session.ID),
		logger.String("ip_address", req.IPAddress))
	return pair, nil
}

func (s *AuthService) recordAttempt(ctx context.Context, username string, req LoginRequest, success bool) {
	if err := s.guard.RecordAttempt(ctx, username, req.IPAddress, success, req.UserAgent); err != nil {
		s.log.Error("Failed to record login attempt",
			logger.CtxField(ctx),
			logger.Error(err),
			logger.String("username", username),
			logger.Bool("success", success))
	}
}

func (s *AuthService) issueTokens(ctx context.Context, principal domain.Principal, sessionID string) (*TokenPair, error) {
	identity := principal.Identity()

	accessToken, err := s.tokens.IssueAccessToken(principal, sessionID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(ctx, identity.Username, identity.UserType, sessionID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		SessionID:    sessionID,
		Username:     identity.Username,
		Role:         identity.Role,
		UserType:     identity.UserType,
	}, nil
}

// Refresh погашает refresh токен и выпускает новую пару для той же сессии.
// Сессия должна быть активной.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	record, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	active, err := s.sessions.IsActive(ctx, record.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !active {
		return nil, domain.ErrSessionNotFound
	}

	principal, err := s.directory.FindPrincipalByUsername(ctx, record.Username)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}

	pair, err := s.issueTokens(ctx, principal, record.SessionID)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Tokens refreshed",
		logger.String("username", record.Username),
		logger.String("session_id", record.SessionID))
	return pair, nil
}

// Logout завершает сессию из access токена и отзывает refresh токен.
// Просроченный access токен тоже подходит.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	sessionID := s.tokens.ExtractSessionID(accessToken)
	if sessionID == "" {
		return domain.ErrTokenInvalid
	}

	if err := s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		s.log.Error("Failed to revoke refresh token", logger.CtxField(ctx), logger.Error(err))
	}
	return s.sessions.Deactivate(ctx, sessionID)
}

// LogoutAll завершает все сессии пользователя
func (s *AuthService) LogoutAll(ctx context.Context, username string) (int64, error) {
	if username == "" {
		return 0, domain.ErrValidation.WithDetails("username is required")
	}
	return s.sessions.DeactivateAll(ctx, username)
}
