package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Producer представляет продюсера сообщений
type Producer struct {
	conn   *Connection
	config *Config
}

// NewProducer создает нового продюсера
func NewProducer(conn *Connection, config *Config) *Producer {
	return &Producer{conn: conn, config: config}
}

// Publish публикует сообщение в RabbitMQ и ждет подтверждения брокера
func (p *Producer) Publish(ctx context.Context, body []byte, options ...PublishOption) error {
	opts := &PublishOptions{
		Exchange:   p.config.Exchange,
		RoutingKey: p.config.RoutingKey,
	}
	for _, option := range options {
		option(opts)
	}

	if p.conn == nil || p.conn.Channel() == nil {
		return fmt.Errorf("rabbitmq channel is not initialized")
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      opts.Headers,
	}

	p.conn.mu.Lock()
	confirmation, err := p.conn.Channel().PublishWithDeferredConfirmWithContext(ctx,
		opts.Exchange,
		opts.RoutingKey,
		opts.Mandatory,
		false,
		msg,
	)
	p.conn.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	if confirmation == nil {
		return nil
	}

	timeout := p.config.ConfirmTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("failed waiting for confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message rejected by broker")
	}
	return nil
}

// PublishOptions представляет опции для публикации сообщения
type PublishOptions struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Headers    amqp091.Table
}

// PublishOption функция для настройки опций публикации
type PublishOption func(*PublishOptions)

// WithExchange устанавливает exchange
func WithExchange(exchange string) PublishOption {
	return func(opts *PublishOptions) {
		opts.Exchange = exchange
	}
}

// WithRoutingKey устанавливает routing key
func WithRoutingKey(routingKey string) PublishOption {
	return func(opts *PublishOptions) {
		opts.RoutingKey = routingKey
	}
}

// WithMandatory устанавливает mandatory флаг
func WithMandatory(mandatory bool) PublishOption {
	return func(opts *PublishOptions) {
		opts.Mandatory = mandatory
	}
}

// WithHeaders устанавливает заголовки
func WithHeaders(headers amqp091.Table) PublishOption {
	return func(opts *PublishOptions) {
		opts.Headers = headers
	}
}
