package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
)

// ActivityToucher принимает запросы на обновление активности сессии
type ActivityToucher interface {
	// Submit ставит обновление в очередь и никогда не ждет.
	// false, если обновление отброшено.
	Submit(sessionID string) bool
}

// SessionToucher пул рабочих, обновляющих last_activity сессий вне запроса.
// При заполненной очереди обновление отбрасывается.
type SessionToucher struct {
	registry    *SessionRegistry
	queue       chan string
	quit        chan struct{}
	workerCount int
	timeout     time.Duration
	wg          sync.WaitGroup
	metrics     *metrics.SecurityMetrics
	log         logger.Logger

	started            int32
	shutdownInProgress int32
}

// NewSessionToucher создает пул. workers и queueSize меньше 1 заменяются на 1.
func NewSessionToucher(registry *SessionRegistry, workers, queueSize int, securityMetrics *metrics.SecurityMetrics, log logger.Logger) *SessionToucher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &SessionToucher{
		registry:    registry,
		queue:       make(chan string, queueSize),
		quit:        make(chan struct{}),
		workerCount: workers,
		timeout:     5 * time.Second,
		metrics:     securityMetrics,
		log:         log,
	}
}

// Start запускает рабочих. Повторный вызов ничего не делает.
func (t *SessionToucher) Start() {
	if !atomic.CompareAndSwapInt32(&t.started, 0, 1) {
		return
	}
	t.log.Info("Starting session toucher",
		logger.Int("worker_count", t.workerCount),
		logger.Int("queue_size", cap(t.queue)))

	for i := 0; i < t.workerCount; i++ {
		t.wg.Add(1)
		go t.work()
	}
}

// Stop останавливает рабочих и ждет их завершения или отмены ctx.
// Обновления, оставшиеся в очереди, отбрасываются.
func (t *SessionToucher) Stop(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&t.shutdownInProgress, 0, 1) {
		return
	}
	close(t.quit)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Info("Session toucher stopped")
	case <-ctx.Done():
		t.log.Warn("Session toucher shutdown timeout reached")
	}
}

// Submit ставит обновление активности в очередь
func (t *SessionToucher) Submit(sessionID string) bool {
	if sessionID == "" || atomic.LoadInt32(&t.shutdownInProgress) == 1 {
		return false
	}

	select {
	case t.queue <- sessionID:
		return true
	default:
		t.metrics.TouchDropped()
		t.log.Debug("Session touch dropped, queue is full", logger.String("session_id", sessionID))
		return false
	}
}

func (t *SessionToucher) work() {
	defer t.wg.Done()
	for {
		select {
		case sessionID := <-t.queue:
			t.touch(sessionID)
		case <-t.quit:
			return
		}
	}
}

func (t *SessionToucher) touch(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.registry.TouchActivity(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			t.log.Debug("Session touch skipped, session is not active", logger.String("session_id", sessionID))
			return
		}
		t.log.Warn("Failed to touch session", logger.String("session_id", sessionID), logger.Error(err))
	}
}
