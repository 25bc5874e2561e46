package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, discard)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		ID:            uuid.New(),
		Reference:     "EH-ABC123XYZ",
		EventID:       4,
		UserID:        9,
		BookingStatus: domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPending,
		Tickets:       []domain.BookedTicket{{TicketType: "VIP", Quantity: 2}},
		FinalAmount:   decimal.RequireFromString("210.00"),
	}

	require.NoError(t, p.Publish(context.Background(), BookingConfirmed, NewBookingMessage(BookingConfirmed, b, at)))

	assert.Equal(t, Exchange, ch.exchange)
	assert.Equal(t, BookingConfirmed, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var got BookingMessage
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, b.ID, got.BookingID)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.FinalAmount.Equal(b.FinalAmount))
}

func TestPublisher_PublishError(t *testing.T) {
	boom := errors.New("channel closed")
	p := newPublisher(&fakeChannel{err: boom}, discard)

	err := p.Publish(context.Background(), BookingCancelled, map[string]string{"k": "v"})
	assert.ErrorIs(t, err, boom)
}

type fakePayments struct {
	completed []string
	failed    []uuid.UUID
	err       error
}

func (f *fakePayments) MarkCompleted(_ context.Context, id uuid.UUID, txID string) (*domain.Booking, error) {
	f.completed = append(f.completed, txID)
	return &domain.Booking{ID: id}, f.err
}

func (f *fakePayments) MarkFailed(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	f.failed = append(f.failed, id)
	return &domain.Booking{ID: id}, f.err
}

func TestPaymentConsumer_Handle(t *testing.T) {
	id := uuid.New()

	t.Run("completed", func(t *testing.T) {
		payments := &fakePayments{}
		c := &PaymentConsumer{payments: payments, log: discard}

		body, _ := json.Marshal(PaymentSignal{BookingID: id, TransactionID: "txn_1", Status: "completed"})
		requeue, err := c.handle(context.Background(), body)
		require.NoError(t, err)
		assert.False(t, requeue)
		assert.Equal(t, []string{"txn_1"}, payments.completed)
	})

	t.Run("failed", func(t *testing.T) {
		payments := &fakePayments{}
		c := &PaymentConsumer{payments: payments, log: discard}

		body, _ := json.Marshal(PaymentSignal{BookingID: id, Status: "failed"})
		_, err := c.handle(context.Background(), body)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id}, payments.failed)
	})

	t.Run("malformed is dropped", func(t *testing.T) {
		c := &PaymentConsumer{payments: &fakePayments{}, log: discard}

		requeue, err := c.handle(context.Background(), []byte("{"))
		assert.Error(t, err)
		assert.False(t, requeue)
	})

	t.Run("state conflict is dropped", func(t *testing.T) {
		payments := &fakePayments{err: domain.StateConflictError{From: "refunded", Action: "complete payment"}}
		c := &PaymentConsumer{payments: payments, log: discard}

		body, _ := json.Marshal(PaymentSignal{BookingID: id, TransactionID: "txn_2", Status: "completed"})
		requeue, err := c.handle(context.Background(), body)
		assert.ErrorIs(t, err, domain.ErrStateConflict)
		assert.False(t, requeue)
	})

	t.Run("store failure is requeued", func(t *testing.T) {
		payments := &fakePayments{err: domain.ErrPersistence}
		c := &PaymentConsumer{payments: payments, log: discard}

		body, _ := json.Marshal(PaymentSignal{BookingID: id, TransactionID: "txn_3", Status: "completed"})
		requeue, err := c.handle(context.Background(), body)
		assert.Error(t, err)
		assert.True(t, requeue)
	})
}
