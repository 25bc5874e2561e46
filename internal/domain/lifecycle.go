package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fulfillment transitions. Confirmed is the only non-terminal booking state.

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.BookingStatus != BookingConfirmed {
		return StateConflictError{From: string(b.BookingStatus), Action: "cancel"}
	}

	b.BookingStatus = BookingCancelled
	b.CancellationReason = reason
	b.UpdatedAt = now

	return nil
}

func (b *Booking) CheckIn(now time.Time) error {
	switch b.BookingStatus {
	case BookingAttended:
		if b.CheckInTime != nil {
			return AlreadyCheckedInError{CheckInTime: *b.CheckInTime}
		}
		return StateConflictError{From: string(b.BookingStatus), Action: "check in"}
	case BookingConfirmed:
	default:
		return StateConflictError{From: string(b.BookingStatus), Action: "check in"}
	}

	if b.PaymentStatus != PaymentCompleted {
		return ErrPaymentPrecondition
	}

	t := now
	b.BookingStatus = BookingAttended
	b.CheckInTime = &t
	b.UpdatedAt = now

	return nil
}

// MarkNoShow is driven by post-event reconciliation outside the booking flow.
func (b *Booking) MarkNoShow(now time.Time) error {
	if b.BookingStatus != BookingConfirmed {
		return StateConflictError{From: string(b.BookingStatus), Action: "mark no-show"}
	}

	b.BookingStatus = BookingNoShow
	b.UpdatedAt = now

	return nil
}

// Financial transitions.

// CompletePayment records an external confirmation. A repeat with the same
// transaction id reports changed=false and no error. A capture that lands
// after cancellation is still recorded so the booking can be refunded.
func (b *Booking) CompletePayment(transactionID string, now time.Time) (changed bool, err error) {
	switch b.PaymentStatus {
	case PaymentCompleted:
		if b.TransactionID == transactionID {
			return false, nil
		}
		return false, StateConflictError{From: string(b.PaymentStatus), Action: "complete payment with another transaction"}
	case PaymentPending:
	default:
		return false, StateConflictError{From: string(b.PaymentStatus), Action: "complete payment"}
	}

	b.PaymentStatus = PaymentCompleted
	b.TransactionID = transactionID
	b.UpdatedAt = now

	return true, nil
}

func (b *Booking) FailPayment(now time.Time) error {
	if b.PaymentStatus != PaymentPending {
		return StateConflictError{From: string(b.PaymentStatus), Action: "fail payment"}
	}

	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = now

	return nil
}

// Refund is only reachable after a completed payment on a cancelled booking.
func (b *Booking) Refund(now time.Time) error {
	if b.PaymentStatus != PaymentCompleted {
		return StateConflictError{From: string(b.PaymentStatus), Action: "refund"}
	}
	if b.BookingStatus != BookingCancelled {
		return StateConflictError{From: string(b.BookingStatus), Action: "refund"}
	}

	amount := b.FinalAmount
	t := now
	b.PaymentStatus = PaymentRefunded
	b.RefundAmount = &amount
	b.RefundDate = &t
	b.UpdatedAt = now

	return nil
}

// AttachPaymentIntent stores the processor intent id for a payment still open.
func (b *Booking) AttachPaymentIntent(intentID string, now time.Time) error {
	if b.PaymentStatus != PaymentPending {
		return StateConflictError{From: string(b.PaymentStatus), Action: "create payment intent"}
	}
	if b.BookingStatus != BookingConfirmed {
		return StateConflictError{From: string(b.BookingStatus), Action: "create payment intent"}
	}

	b.PaymentIntentID = intentID
	b.UpdatedAt = now

	return nil
}

// Price computes line subtotals and the booking totals.
func Price(lines []BookedTicket, fee FeePolicy) (total, serviceFee, final decimal.Decimal) {
	total = decimal.Zero
	for i := range lines {
		lines[i].Subtotal = lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		total = total.Add(lines[i].Subtotal)
	}

	serviceFee = fee.For(total)
	final = total.Add(serviceFee)

	return total, serviceFee, final
}

type FeePolicy struct {
	Rate decimal.Decimal
	Flat decimal.Decimal
}

func (p FeePolicy) For(total decimal.Decimal) decimal.Decimal {
	if total.IsZero() && p.Flat.IsZero() {
		return decimal.Zero
	}
	return total.Mul(p.Rate).Add(p.Flat).Round(2)
}
