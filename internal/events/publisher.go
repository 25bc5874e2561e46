package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends domain events to the topic exchange. An AMQP channel is not
// safe for concurrent publishing, so calls are serialized.
type Publisher struct {
	mu  sync.Mutex
	ch  publishChannel
	log *slog.Logger
	now func() time.Time
}

func NewPublisher(conn *amqp.Connection, log *slog.Logger) (*Publisher, error) {
	const op = "events.NewPublisher"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: channel: %w", op, err)
	}

	if err := ch.ExchangeDeclare(Exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: exchange declare: %w", op, err)
	}

	return newPublisher(ch, log), nil
}

func newPublisher(ch publishChannel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	const op = "events.Publisher.Publish"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	p.log.Debug("event published", slog.String("exchange", Exchange), slog.String("routing_key", routingKey))

	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
