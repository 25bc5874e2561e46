package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func confirmedBooking() *Booking {
	return &Booking{
		BookingStatus: BookingConfirmed,
		PaymentStatus: PaymentPending,
		FinalAmount:   decimal.RequireFromString("105.00"),
		Tickets: []BookedTicket{
			{TicketType: "GA", Quantity: 4, UnitPrice: decimal.RequireFromString("25")},
		},
	}
}

func TestBooking_Cancel(t *testing.T) {
	b := confirmedBooking()

	require.NoError(t, b.Cancel("change of plans", now))
	assert.Equal(t, BookingCancelled, b.BookingStatus)
	assert.Equal(t, "change of plans", b.CancellationReason)

	err := b.Cancel("again", now)
	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Equal(t, "change of plans", b.CancellationReason)
}

func TestBooking_CancelAttended(t *testing.T) {
	b := confirmedBooking()
	b.BookingStatus = BookingAttended

	assert.ErrorIs(t, b.Cancel("late", now), ErrStateConflict)
}

func TestBooking_CheckIn(t *testing.T) {
	t.Run("requires completed payment", func(t *testing.T) {
		b := confirmedBooking()

		err := b.CheckIn(now)
		assert.ErrorIs(t, err, ErrPaymentPrecondition)
		assert.Equal(t, BookingConfirmed, b.BookingStatus)
		assert.Nil(t, b.CheckInTime)
	})

	t.Run("sets attended and check-in time", func(t *testing.T) {
		b := confirmedBooking()
		b.PaymentStatus = PaymentCompleted

		require.NoError(t, b.CheckIn(now))
		assert.Equal(t, BookingAttended, b.BookingStatus)
		require.NotNil(t, b.CheckInTime)
		assert.Equal(t, now, *b.CheckInTime)
	})

	t.Run("repeat returns original time", func(t *testing.T) {
		b := confirmedBooking()
		b.PaymentStatus = PaymentCompleted
		require.NoError(t, b.CheckIn(now))

		err := b.CheckIn(now.Add(time.Hour))
		assert.ErrorIs(t, err, ErrStateConflict)

		var already AlreadyCheckedInError
		require.True(t, errors.As(err, &already))
		assert.Equal(t, now, already.CheckInTime)
		assert.Equal(t, now, *b.CheckInTime)
	})

	t.Run("cancelled booking", func(t *testing.T) {
		b := confirmedBooking()
		b.PaymentStatus = PaymentCompleted
		b.BookingStatus = BookingCancelled

		err := b.CheckIn(now)
		assert.ErrorIs(t, err, ErrStateConflict)

		var already AlreadyCheckedInError
		assert.False(t, errors.As(err, &already))
	})
}

func TestBooking_MarkNoShow(t *testing.T) {
	b := confirmedBooking()
	require.NoError(t, b.MarkNoShow(now))
	assert.Equal(t, BookingNoShow, b.BookingStatus)

	assert.ErrorIs(t, b.Cancel("x", now), ErrStateConflict)
	assert.ErrorIs(t, b.MarkNoShow(now), ErrStateConflict)
}

func TestBooking_PaymentTransitions(t *testing.T) {
	t.Run("complete is idempotent for the same transaction", func(t *testing.T) {
		b := confirmedBooking()

		changed, err := b.CompletePayment("txn_1", now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, PaymentCompleted, b.PaymentStatus)
		assert.Equal(t, "txn_1", b.TransactionID)

		changed, err = b.CompletePayment("txn_1", now)
		require.NoError(t, err)
		assert.False(t, changed)

		_, err = b.CompletePayment("txn_2", now)
		assert.ErrorIs(t, err, ErrStateConflict)
		assert.Equal(t, "txn_1", b.TransactionID)
	})

	t.Run("failed payment cannot complete", func(t *testing.T) {
		b := confirmedBooking()
		require.NoError(t, b.FailPayment(now))
		assert.Equal(t, PaymentFailed, b.PaymentStatus)

		_, err := b.CompletePayment("txn_1", now)
		assert.ErrorIs(t, err, ErrStateConflict)
		assert.ErrorIs(t, b.FailPayment(now), ErrStateConflict)
	})

	t.Run("late capture on a cancelled booking is recorded", func(t *testing.T) {
		b := confirmedBooking()
		require.NoError(t, b.Cancel("no longer needed", now))

		changed, err := b.CompletePayment("txn_late", now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, BookingCancelled, b.BookingStatus)
		assert.Equal(t, PaymentCompleted, b.PaymentStatus)
		assert.Equal(t, "txn_late", b.TransactionID)

		require.NoError(t, b.Refund(now))
		assert.Equal(t, PaymentRefunded, b.PaymentStatus)
	})
}

func TestBooking_Refund(t *testing.T) {
	t.Run("requires cancellation", func(t *testing.T) {
		b := confirmedBooking()
		_, err := b.CompletePayment("txn_1", now)
		require.NoError(t, err)

		assert.ErrorIs(t, b.Refund(now), ErrStateConflict)
		assert.Equal(t, PaymentCompleted, b.PaymentStatus)
	})

	t.Run("requires completed payment", func(t *testing.T) {
		b := confirmedBooking()
		require.NoError(t, b.Cancel("x", now))

		assert.ErrorIs(t, b.Refund(now), ErrStateConflict)
		assert.Nil(t, b.RefundAmount)
	})

	t.Run("refunds final amount", func(t *testing.T) {
		b := confirmedBooking()
		_, err := b.CompletePayment("txn_1", now)
		require.NoError(t, err)
		require.NoError(t, b.Cancel("x", now))

		require.NoError(t, b.Refund(now))
		assert.Equal(t, PaymentRefunded, b.PaymentStatus)
		require.NotNil(t, b.RefundAmount)
		assert.True(t, b.RefundAmount.Equal(decimal.RequireFromString("105.00")))
		require.NotNil(t, b.RefundDate)
		assert.Equal(t, now, *b.RefundDate)

		assert.ErrorIs(t, b.Refund(now), ErrStateConflict)
	})
}

func TestPrice(t *testing.T) {
	lines := []BookedTicket{
		{TicketType: "GA", Quantity: 3, UnitPrice: decimal.RequireFromString("20.50")},
		{TicketType: "VIP", Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
	}
	fee := FeePolicy{Rate: decimal.RequireFromString("0.05"), Flat: decimal.RequireFromString("1.00")}

	total, serviceFee, final := Price(lines, fee)

	assert.True(t, lines[0].Subtotal.Equal(decimal.RequireFromString("61.50")))
	assert.True(t, lines[1].Subtotal.Equal(decimal.RequireFromString("99.99")))
	assert.True(t, total.Equal(decimal.RequireFromString("161.49")), total.String())
	assert.True(t, serviceFee.Equal(decimal.RequireFromString("9.07")), serviceFee.String())
	assert.True(t, final.Equal(decimal.RequireFromString("170.56")), final.String())
}

func TestNormalizeRequests(t *testing.T) {
	out, err := NormalizeRequests([]TicketRequest{
		{TicketType: "VIP", Quantity: 1},
		{TicketType: " GA ", Quantity: 2},
		{TicketType: "GA", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []TicketRequest{
		{TicketType: "GA", Quantity: 3},
		{TicketType: "VIP", Quantity: 1},
	}, out)

	_, err = NormalizeRequests(nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeRequests([]TicketRequest{{TicketType: "GA", Quantity: 0}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeRequests([]TicketRequest{{TicketType: "  ", Quantity: 1}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEvent_Counts(t *testing.T) {
	e := Event{
		ID:          7,
		Status:      EventApproved,
		IsPublished: true,
		TicketTypes: []TicketType{
			{Name: "GA", Quantity: 10, SoldCount: 4, MaxPerOrder: 4},
			{Name: "VIP", Quantity: 2, SoldCount: 2, MaxPerOrder: 2},
		},
	}

	assert.True(t, e.Bookable())
	c := e.Counts()
	assert.Equal(t, 12, c.Total)
	assert.Equal(t, 6, c.Sold)
	assert.Equal(t, 6, c.Available)
	assert.Equal(t, c.Total, c.Available+c.Sold)
	assert.False(t, c.SoldOut)

	e.IsPublished = false
	assert.False(t, e.Bookable())
}
