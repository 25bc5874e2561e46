// Package events carries booking domain events over RabbitMQ and feeds
// processor payment signals back into the payment service.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	Exchange     = "eventhub"
	ExchangeKind = "topic"

	// SignalExchange receives processor callbacks. It is kept apart from
	// Exchange so the service never consumes its own payment.* events.
	SignalExchange = "eventhub.payment-signals"
	PaymentQueue   = "eventhub.payments"
	PaymentBinding = "payment.*"
)

// Routing keys of published domain events.
const (
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCheckedIn = "booking.checked_in"
	BookingRefunded  = "booking.refunded"
	PaymentCompleted = "payment.completed"
	PaymentFailed    = "payment.failed"
)

// BookingMessage is the body of every published domain event.
type BookingMessage struct {
	Type          string               `json:"type"`
	BookingID     uuid.UUID            `json:"booking_id"`
	Reference     string               `json:"booking_reference"`
	EventID       int64                `json:"event_id"`
	UserID        int64                `json:"user_id"`
	BookingStatus domain.BookingStatus `json:"booking_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Quantity      int                  `json:"quantity"`
	FinalAmount   decimal.Decimal      `json:"final_amount"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewBookingMessage(routingKey string, b *domain.Booking, at time.Time) BookingMessage {
	return BookingMessage{
		Type:          routingKey,
		BookingID:     b.ID,
		Reference:     b.Reference,
		EventID:       b.EventID,
		UserID:        b.UserID,
		BookingStatus: b.BookingStatus,
		PaymentStatus: b.PaymentStatus,
		Quantity:      b.Quantity(),
		FinalAmount:   b.FinalAmount,
		OccurredAt:    at,
	}
}

// PaymentSignal is what the processor sends on the payments queue.
type PaymentSignal struct {
	BookingID     uuid.UUID `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
}
