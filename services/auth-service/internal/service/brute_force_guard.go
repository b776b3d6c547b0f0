package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

const autoBlockReason = "too many failed login attempts"

// BruteForceConfig пороги защиты от перебора
type BruteForceConfig struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// BruteForceGuard ведет журнал попыток входа и принимает решения о
// блокировке учетной записи и IP адреса.
//
// Блокировка учетной записи нигде не хранится: она вычисляется по числу
// неудачных попыток в скользящем окне и снимается сама, когда старые
// попытки выходят из окна. Успешный вход счетчик не сбрасывает.
type BruteForceGuard struct {
	attempts repository.LoginAttemptRepository
	blocks   repository.BlockedIPRepository
	config   BruteForceConfig
	events   SecurityEventPublisher
	metrics  *metrics.SecurityMetrics
	log      logger.Logger
	now      func() time.Time
}

// NewBruteForceGuard создает новый экземпляр BruteForceGuard
func NewBruteForceGuard(
	attempts repository.LoginAttemptRepository,
	blocks repository.BlockedIPRepository,
	config BruteForceConfig,
	events SecurityEventPublisher,
	securityMetrics *metrics.SecurityMetrics,
	log logger.Logger,
) *BruteForceGuard {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &BruteForceGuard{
		attempts: attempts,
		blocks:   blocks,
		config:   config,
		events:   events,
		metrics:  securityMetrics,
		log:      log,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (g *BruteForceGuard) WithClock(now func() time.Time) *BruteForceGuard {
	g.now = now
	return g
}

// RecordAttempt записывает попытку входа. После неудачной попытки
// пересчитывает неудачи IP в окне и при достижении порога блокирует IP.
func (g *BruteForceGuard) RecordAttempt(ctx context.Context, username, ip string, success bool, userAgent string) error {
	now := g.now().UTC()
	attempt := &domain.LoginAttempt{
		ID:          uuid.New().String(),
		Username:    username,
		IPAddress:   ip,
		Successful:  success,
		AttemptedAt: now,
		UserAgent:   userAgent,
	}
	if err := g.attempts.Create(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	if success {
		g.metrics.LoginAttempt("success")
		return nil
	}
	g.metrics.LoginAttempt("failure")

	since := now.Add(-g.config.Window)

	userFailures, err := g.attempts.CountFailuresByUsernameSince(ctx, username, since)
	if err != nil {
		return fmt.Errorf("failed to count username failures: %w", err)
	}
	if userFailures == g.config.MaxAttempts {
		g.log.Warn("Account locked after failed login attempts",
			logger.CtxField(ctx),
			logger.String("username", username),
			logger.String("ip_address", ip),
			logger.Int("failures", userFailures))
		g.events.Publish(ctx, domain.SecurityEvent{
			Type:       domain.EventAccountLocked,
			Username:   username,
			IPAddress:  ip,
			Reason:     autoBlockReason,
			OccurredAt: now,
		})
	}

	ipFailures, err := g.attempts.CountFailuresByIPSince(ctx, ip, since)
	if err != nil {
		return fmt.Errorf("failed to count ip failures: %w", err)
	}
	if ipFailures < g.config.MaxAttempts {
		return nil
	}

	blocked, err := g.blocks.ExistsActive(ctx, ip)
	if err != nil {
		return fmt.Errorf("failed to check ip block: %w", err)
	}
	if blocked {
		return nil
	}

	inserted, err := g.createBlock(ctx, ip, autoBlockReason, now, g.config.BlockDuration)
	if err != nil {
		return err
	}
	if inserted {
		g.metrics.IPBlocked("auto")
		g.log.Warn("IP address blocked after failed login attempts",
			logger.CtxField(ctx),
			logger.String("ip_address", ip),
			logger.Int("failures", ipFailures),
			logger.Duration("block_duration", g.config.BlockDuration))
	}
	return nil
}

// IsAccountLocked true, если неудачных попыток в окне не меньше порога
func (g *BruteForceGuard) IsAccountLocked(ctx context.Context, username string) (bool, error) {
	since := g.now().UTC().Add(-g.config.Window)
	failures, err := g.attempts.CountFailuresByUsernameSince(ctx, username, since)
	if err != nil {
		return false, fmt.Errorf("failed to count username failures: %w", err)
	}
	return failures >= g.config.MaxAttempts, nil
}

// IsIPBlocked true, если для IP есть активная блокировка.
// Срок истечения не проверяется: блокировку снимает CleanupExpired.
func (g *BruteForceGuard) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	return g.blocks.ExistsActive(ctx, ip)
}

// BlockManually блокирует IP на hours часов.
// domain.ErrAlreadyBlocked, если активная блокировка уже есть.
func (g *BruteForceGuard) BlockManually(ctx context.Context, ip, reason string, hours int) error {
	if net.ParseIP(ip) == nil {
		return domain.ErrValidation.WithDetails("invalid ip address")
	}
	if hours <= 0 {
		return domain.ErrValidation.WithDetails("hours must be positive")
	}
	if reason == "" {
		reason = "manual block"
	}

	blocked, err := g.blocks.ExistsActive(ctx, ip)
	if err != nil {
		return fmt.Errorf("failed to check ip block: %w", err)
	}
	if blocked {
		return domain.ErrAlreadyBlocked
	}

	inserted, err := g.createBlock(ctx, ip, reason, g.now().UTC(), time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}
	if !inserted {
		// параллельная вставка успела раньше
		return domain.ErrAlreadyBlocked
	}

	g.metrics.IPBlocked("manual")
	g.log.Warn("IP address blocked manually",
		logger.CtxField(ctx),
		logger.String("ip_address", ip),
		logger.String("reason", reason),
		logger.String("actor", ActorFromContext(ctx)),
		logger.Int("hours", hours))
	return nil
}

func (g *BruteForceGuard) createBlock(ctx context.Context, ip, reason string, now time.Time, duration time.Duration) (bool, error) {
	block := &domain.BlockedIP{
		ID:        uuid.New().String(),
		IPAddress: ip,
		Reason:    reason,
		BlockedAt: now,
		ExpiresAt: now.Add(duration),
		Active:    true,
	}
	inserted, err := g.blocks.Create(ctx, block)
	if err != nil {
		return false, fmt.Errorf("failed to create ip block: %w", err)
	}
	if inserted {
		g.events.Publish(ctx, domain.SecurityEvent{
			Type:       domain.EventIPBlocked,
			IPAddress:  ip,
			Reason:     reason,
			OccurredAt: now,
		})
	}
	return inserted, nil
}

// Unblock снимает блокировку IP
func (g *BruteForceGuard) Unblock(ctx context.Context, ip string) error {
	affected, err := g.blocks.DeactivateByIP(ctx, ip)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotBlocked.WithDetails(ip)
	}

	g.log.Info("IP address unblocked",
		logger.CtxField(ctx),
		logger.String("ip_address", ip),
		logger.String("actor", ActorFromContext(ctx)))
	g.events.Publish(ctx, domain.SecurityEvent{
		Type:       domain.EventIPUnblocked,
		IPAddress:  ip,
		Reason:     "manual unblock",
		OccurredAt: g.now().UTC(),
	})
	return nil
}

// UnblockAll снимает все активные блокировки
func (g *BruteForceGuard) UnblockAll(ctx context.Context) (int64, error) {
	affected, err := g.blocks.DeactivateAll(ctx)
	if err != nil {
		return 0, err
	}
	g.log.Info("All IP blocks removed",
		logger.CtxField(ctx),
		logger.Int64("count", affected),
		logger.String("actor", ActorFromContext(ctx)))
	return affected, nil
}

// CleanupExpired деактивирует блокировки с истекшим сроком. Идемпотентна.
func (g *BruteForceGuard) CleanupExpired(ctx context.Context) (int64, error) {
	affected, err := g.blocks.DeactivateExpired(ctx, g.now().UTC())
	if err != nil {
		return 0, err
	}
	g.metrics.Expired(affected)
	if affected > 0 {
		g.log.Info("Expired IP blocks deactivated", logger.Int64("count", affected))
	}
	return affected, nil
}

// ListActiveBlocks активные блокировки для администратора
func (g *BruteForceGuard) ListActiveBlocks(ctx context.Context) ([]*domain.BlockedIP, error) {
	return g.blocks.ListActive(ctx)
}

// RecentAttempts последние попытки входа пользователя, новые первыми
func (g *BruteForceGuard) RecentAttempts(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return g.attempts.ListRecentByUsername(ctx, username, limit)
}
