package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/pkg/rabbitmq"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
)

// SecurityEventPublisher рассылает события безопасности внешним подписчикам.
// Ошибки публикации не возвращаются вызывающему.
type SecurityEventPublisher interface {
	Publish(ctx context.Context, event domain.SecurityEvent)
}

// MessagePublisher отправка сообщения в брокер (rabbitmq.Producer)
type MessagePublisher interface {
	Publish(ctx context.Context, body []byte, options ...rabbitmq.PublishOption) error
}

// RabbitEventPublisher публикует события в exchange с routing key security.<type>
type RabbitEventPublisher struct {
	producer MessagePublisher
	log      logger.Logger
	timeout  time.Duration
}

// NewRabbitEventPublisher создает новый экземпляр RabbitEventPublisher
func NewRabbitEventPublisher(producer MessagePublisher, log logger.Logger) *RabbitEventPublisher {
	return &RabbitEventPublisher{producer: producer, log: log, timeout: 3 * time.Second}
}

// Publish отправляет событие. Отмена запроса не прерывает публикацию.
func (p *RabbitEventPublisher) Publish(ctx context.Context, event domain.SecurityEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal security event", logger.Error(err), logger.String("type", string(event.Type)))
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.producer.Publish(publishCtx, body,
		rabbitmq.WithRoutingKey("security."+string(event.Type)),
	)
	if err != nil {
		p.log.Error("Failed to publish security event",
			logger.CtxField(ctx),
			logger.Error(err),
			logger.String("type", string(event.Type)),
			logger.String("ip_address", event.IPAddress))
		return
	}

	p.log.Debug("Security event published", logger.String("type", string(event.Type)))
}

type queuedEvent struct {
	ctx   context.Context
	event domain.SecurityEvent
}

// AsyncEventPublisher ставит события в ограниченную очередь и публикует их
// отдельным рабочим, чтобы ожидание брокера не задерживало вход.
// При заполненной очереди событие отбрасывается.
type AsyncEventPublisher struct {
	next    SecurityEventPublisher
	queue   chan queuedEvent
	quit    chan struct{}
	wg      sync.WaitGroup
	metrics *metrics.SecurityMetrics
	log     logger.Logger

	started            int32
	shutdownInProgress int32
}

// NewAsyncEventPublisher создает очередь перед next. queueSize меньше 1 заменяется на 1.
func NewAsyncEventPublisher(next SecurityEventPublisher, queueSize int, securityMetrics *metrics.SecurityMetrics, log logger.Logger) *AsyncEventPublisher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &AsyncEventPublisher{
		next:    next,
		queue:   make(chan queuedEvent, queueSize),
		quit:    make(chan struct{}),
		metrics: securityMetrics,
		log:     log,
	}
}

// Start запускает рабочего. Повторный вызов ничего не делает.
func (p *AsyncEventPublisher) Start() {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}
	p.wg.Add(1)
	go p.work()
}

// Stop публикует оставшиеся в очереди события и ждет рабочего или отмены ctx
func (p *AsyncEventPublisher) Stop(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.shutdownInProgress, 0, 1) {
		return
	}
	close(p.quit)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("Security event publisher stopped")
	case <-ctx.Done():
		p.log.Warn("Security event publisher shutdown timeout reached")
	}
}

// Publish ставит событие в очередь и никогда не ждет
func (p *AsyncEventPublisher) Publish(ctx context.Context, event domain.SecurityEvent) {
	if atomic.LoadInt32(&p.shutdownInProgress) == 1 {
		p.drop(event, "publisher is stopped")
		return
	}

	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		p.drop(event, "queue is full")
	}
}

func (p *AsyncEventPublisher) drop(event domain.SecurityEvent, reason string) {
	p.metrics.EventDropped()
	p.log.Warn("Security event dropped",
		logger.String("type", string(event.Type)),
		logger.String("ip_address", event.IPAddress),
		logger.String("reason", reason))
}

func (p *AsyncEventPublisher) work() {
	defer p.wg.Done()
	for {
		select {
		case item := <-p.queue:
			p.next.Publish(item.ctx, item.event)
		case <-p.quit:
			for {
				select {
				case item := <-p.queue:
					p.next.Publish(item.ctx, item.event)
				default:
					return
				}
			}
		}
	}
}

// NoopEventPublisher используется, когда брокер выключен
type NoopEventPublisher struct{}

// Publish ничего не делает
func (NoopEventPublisher) Publish(context.Context, domain.SecurityEvent) {}
