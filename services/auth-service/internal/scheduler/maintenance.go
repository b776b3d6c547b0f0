// Package scheduler запускает периодическое обслуживание подсистемы безопасности:
// деактивацию неактивных сессий и снятие истекших блокировок IP.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MedSchedulePlatform/pkg/logger"
)

// SessionSweeper деактивирует сессии без активности (service.SessionRegistry)
type SessionSweeper interface {
	SweepExpired(ctx context.Context, timeout time.Duration) (int64, error)
}

// BlockCleaner снимает истекшие блокировки IP (middleware.IPAccessControl)
type BlockCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Config интервалы обслуживания
type Config struct {
	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration
	BlockCleanupInterval time.Duration
	JobTimeout           time.Duration
}

// Maintenance cron планировщик задач обслуживания.
// Задача не запускается повторно, пока не закончился предыдущий прогон.
type Maintenance struct {
	sessions  SessionSweeper
	blocks    BlockCleaner
	config    Config
	cron      *cron.Cron
	logger    logger.Logger
	mu        sync.Mutex
	isRunning bool
}

// NewMaintenance создает новый экземпляр Maintenance
func NewMaintenance(sessions SessionSweeper, blocks BlockCleaner, config Config, log logger.Logger) *Maintenance {
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	cronLog := cronLogger{log: log}
	return &Maintenance{
		sessions: sessions,
		blocks:   blocks,
		config:   config,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		logger: log,
	}
}

// Start регистрирует задачи и запускает планировщик
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return nil
	}

	if m.config.SessionSweepInterval <= 0 || m.config.BlockCleanupInterval <= 0 {
		return fmt.Errorf("maintenance intervals must be positive")
	}

	if _, err := m.cron.AddFunc(every(m.config.SessionSweepInterval), m.runSessionSweep); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	if _, err := m.cron.AddFunc(every(m.config.BlockCleanupInterval), m.runBlockCleanup); err != nil {
		return fmt.Errorf("failed to schedule ip block cleanup: %w", err)
	}

	m.cron.Start()
	m.isRunning = true

	m.logger.Info("Maintenance scheduler started",
		logger.CtxField(ctx),
		logger.Duration("session_sweep_interval", m.config.SessionSweepInterval),
		logger.Duration("block_cleanup_interval", m.config.BlockCleanupInterval),
		logger.Duration("session_timeout", m.config.SessionTimeout))
	return nil
}

// Stop останавливает планировщик и ждет текущие задачи или отмену ctx
func (m *Maintenance) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	done := m.cron.Stop()
	select {
	case <-done.Done():
		m.logger.Info("Maintenance scheduler stopped", logger.CtxField(ctx))
	case <-ctx.Done():
		m.logger.Warn("Maintenance scheduler stop timed out", logger.CtxField(ctx))
	}
	m.isRunning = false
}

// SweepSessions деактивирует сессии без активности дольше SessionTimeout.
// Метрики и журнал ведет сам SessionSweeper.
func (m *Maintenance) SweepSessions(ctx context.Context) (int64, error) {
	return m.sessions.SweepExpired(ctx, m.config.SessionTimeout)
}

// CleanupBlocks снимает блокировки с истекшим сроком
func (m *Maintenance) CleanupBlocks(ctx context.Context) (int64, error) {
	return m.blocks.CleanupExpired(ctx)
}

func (m *Maintenance) runSessionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.JobTimeout)
	defer cancel()

	if _, err := m.SweepSessions(ctx); err != nil {
		m.logger.Error("Session sweep failed", logger.Error(err))
	}
}

func (m *Maintenance) runBlockCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.JobTimeout)
	defer cancel()

	if _, err := m.CleanupBlocks(ctx); err != nil {
		m.logger.Error("IP block cleanup failed", logger.Error(err))
	}
}

func every(interval time.Duration) string {
	return "@every " + interval.String()
}

// cronLogger передает сообщения cron в логгер сервиса
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, logger.Any("details", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: "+msg, logger.Error(err), logger.Any("details", keysAndValues))
}
