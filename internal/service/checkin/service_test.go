package checkin_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository/memory"
	"github.com/kirinyoku/eventhub/internal/service/checkin"
	"github.com/kirinyoku/eventhub/internal/service/payment"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
	"github.com/kirinyoku/eventhub/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	clock    clock.Clock
	reserve  *reservation.Service
	payments *payment.Service
	checkin  *checkin.Service
	eventID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, clk := testutil.NewMemoryStore()
	log := testutil.DiscardLogger()

	return &fixture{
		store:    store,
		clock:    clk,
		reserve:  reservation.New(store, nil, nil, clk, log, reservation.Config{}),
		payments: payment.New(store, nil, clk, payment.Config{}),
		checkin:  checkin.New(store, nil, clk),
		eventID: testutil.SeedBookableEvent(t, store, domain.TicketType{
			Name: "GA", Price: decimal.NewFromInt(30), Quantity: 10, MaxPerOrder: 4,
		}),
	}
}

func (f *fixture) book(t *testing.T, quantity int) *domain.Booking {
	t.Helper()

	b, err := f.reserve.Reserve(context.Background(), reservation.ReserveInput{
		EventID:  f.eventID,
		UserID:   7,
		Tickets:  []domain.TicketRequest{{TicketType: "GA", Quantity: quantity}},
		Attendee: testutil.Attendee(),
	})
	require.NoError(t, err)

	return b
}

func (f *fixture) sold(t *testing.T) int {
	t.Helper()

	e, err := f.store.Events().Get(context.Background(), f.eventID)
	require.NoError(t, err)

	return e.SoldTickets()
}

func TestCheckIn_ScenarioD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 2)

	_, err := f.checkin.CheckIn(ctx, b.Reference)
	require.ErrorIs(t, err, domain.ErrPaymentPrecondition)

	_, err = f.payments.MarkCompleted(ctx, b.ID, "txn_123")
	require.NoError(t, err)

	got, err := f.checkin.CheckIn(ctx, "  "+strings.ToLower(b.Reference)+"\n")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingAttended, got.BookingStatus)
	require.NotNil(t, got.CheckInTime)
	assert.Equal(t, testutil.Now, *got.CheckInTime)
}

func TestCheckIn_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 3)

	_, err := f.payments.MarkCompleted(ctx, b.ID, "txn_9")
	require.NoError(t, err)

	first, err := f.checkin.CheckIn(ctx, b.Reference)
	require.NoError(t, err)

	soldBefore := f.sold(t)

	later := checkin.New(f.store, nil, clock.NewFixed(testutil.Now.Add(time.Hour)))
	again, err := later.CheckIn(ctx, b.Reference)

	var already domain.AlreadyCheckedInError
	require.ErrorAs(t, err, &already)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Equal(t, *first.CheckInTime, already.CheckInTime)

	require.NotNil(t, again)
	assert.Equal(t, *first.CheckInTime, *again.CheckInTime)

	stored, err := f.store.Bookings().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Version, stored.Version)
	assert.Equal(t, soldBefore, f.sold(t))
}

func TestCheckIn_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkin.CheckIn(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.checkin.CheckIn(ctx, "EH-NOPE00000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	b := f.book(t, 1)
	_, err = f.payments.MarkCompleted(ctx, b.ID, "txn_1")
	require.NoError(t, err)
	_, err = f.reserve.Cancel(ctx, b.ID, "sick")
	require.NoError(t, err)

	got, err := f.checkin.CheckIn(ctx, b.Reference)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NotErrorIs(t, err, domain.ErrPaymentPrecondition)
	assert.Nil(t, got)
}
