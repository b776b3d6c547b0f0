package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// SessionRegistry управляет жизненным циклом сессий.
// Сессии не удаляются: выход и очистка только снимают флаг active.
type SessionRegistry struct {
	repo    repository.SessionRepository
	metrics *metrics.SecurityMetrics
	log     logger.Logger
	now     func() time.Time
}

// NewSessionRegistry создает новый экземпляр SessionRegistry
func NewSessionRegistry(repo repository.SessionRepository, securityMetrics *metrics.SecurityMetrics, log logger.Logger) *SessionRegistry {
	return &SessionRegistry{
		repo:    repo,
		metrics: securityMetrics,
		log:     log,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (r *SessionRegistry) WithClock(now func() time.Time) *SessionRegistry {
	r.now = now
	return r
}

// CreateSession создает активную сессию
func (r *SessionRegistry) CreateSession(ctx context.Context, username, ip, userAgent string, userType domain.UserType) (*domain.Session, error) {
	now := r.now().UTC()
	session := &domain.Session{
		ID:           uuid.New().String(),
		Username:     username,
		UserType:     userType,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LoginTime:    now,
		LastActivity: now,
		Active:       true,
	}
	if err := r.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.log.Debug("Session created",
		logger.String("session_id", session.ID),
		logger.String("username", username),
		logger.String("user_type", string(userType)))
	return session, nil
}

// TouchActivity обновляет время последней активности.
// domain.ErrSessionNotFound, если активной сессии нет.
func (r *SessionRegistry) TouchActivity(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionNotFound
	}
	updated, err := r.repo.UpdateLastActivity(ctx, sessionID, r.now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Deactivate завершает сессию
func (r *SessionRegistry) Deactivate(ctx context.Context, sessionID string) error {
	deactivated, err := r.repo.Deactivate(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deactivated {
		return domain.ErrSessionNotFound
	}
	r.log.Info("Session deactivated", logger.CtxField(ctx), logger.String("session_id", sessionID))
	return nil
}

// DeactivateAll завершает все сессии пользователя
func (r *SessionRegistry) DeactivateAll(ctx context.Context, username string) (int64, error) {
	n, err := r.repo.DeactivateByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	r.log.Info("All sessions deactivated",
		logger.CtxField(ctx),
		logger.String("username", username),
		logger.Int64("count", n))
	return n, nil
}

// ListActive активные сессии пользователя
func (r *SessionRegistry) ListActive(ctx context.Context, username string) ([]*domain.Session, error) {
	return r.repo.ListActiveByUsername(ctx, username)
}

// IsActive сообщает, что сессия существует и не деактивирована
func (r *SessionRegistry) IsActive(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	session, err := r.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.Active, nil
}

// SweepExpired деактивирует сессии без активности дольше timeout.
// Чтение сессий очистку не запускает.
func (r *SessionRegistry) SweepExpired(ctx context.Context, timeout time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-timeout)
	n, err := r.repo.DeactivateInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.metrics.Swept(n)
	if n > 0 {
		r.log.Info("Inactive sessions deactivated",
			logger.Int64("count", n),
			logger.Duration("timeout", timeout))
	}
	return n, nil
}
