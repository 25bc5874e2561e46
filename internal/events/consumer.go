package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// PaymentSignals is the part of the payment service the consumer drives.
type PaymentSignals interface {
	MarkCompleted(ctx context.Context, bookingID uuid.UUID, transactionID string) (*domain.Booking, error)
	MarkFailed(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
}

// PaymentConsumer applies processor payment signals from the payments queue.
type PaymentConsumer struct {
	ch       *amqp.Channel
	payments PaymentSignals
	log      *slog.Logger
}

func NewPaymentConsumer(conn *amqp.Connection, payments PaymentSignals, log *slog.Logger) (*PaymentConsumer, error) {
	const op = "events.NewPaymentConsumer"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: channel: %w", op, err)
	}

	fail := func(step string, err error) (*PaymentConsumer, error) {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %s: %w", op, step, err)
	}

	if err := ch.ExchangeDeclare(SignalExchange, ExchangeKind, true, false, false, false, nil); err != nil {
		return fail("exchange declare", err)
	}
	if _, err := ch.QueueDeclare(PaymentQueue, true, false, false, false, nil); err != nil {
		return fail("queue declare", err)
	}
	if err := ch.QueueBind(PaymentQueue, PaymentBinding, SignalExchange, false, nil); err != nil {
		return fail("queue bind", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return fail("qos", err)
	}

	return &PaymentConsumer{ch: ch, payments: payments, log: log}, nil
}

// Run consumes until ctx is done or the broker closes the channel.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	const op = "events.PaymentConsumer.Run"

	msgs, err := c.ch.ConsumeWithContext(ctx, PaymentQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	c.log.Info("consuming payment signals", slog.String("queue", PaymentQueue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: deliveries channel closed", op)
			}

			requeue, err := c.handle(ctx, d.Body)
			if err != nil {
				c.log.Warn("payment signal rejected",
					slog.String("routing_key", d.RoutingKey),
					slog.Bool("requeue", requeue),
					slog.Any("err", err),
				)
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *PaymentConsumer) Close() error {
	return c.ch.Close()
}

// handle applies one signal. requeue is true only for failures a retry can fix.
func (c *PaymentConsumer) handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var sig PaymentSignal
	if err := json.Unmarshal(body, &sig); err != nil {
		return false, fmt.Errorf("unmarshal: %w", err)
	}
	if sig.BookingID == uuid.Nil {
		return false, errors.New("booking_id is required")
	}

	switch sig.Status {
	case "completed":
		if sig.TransactionID == "" {
			return false, errors.New("transaction_id is required")
		}
		_, err = c.payments.MarkCompleted(ctx, sig.BookingID, sig.TransactionID)
	case "failed":
		_, err = c.payments.MarkFailed(ctx, sig.BookingID)
	default:
		return false, fmt.Errorf("unknown status %q", sig.Status)
	}

	if err == nil {
		return false, nil
	}

	return !isPermanent(err), err
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrStateConflict) ||
		errors.Is(err, domain.ErrValidation)
}
