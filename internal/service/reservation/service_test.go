package reservation_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
	"github.com/kirinyoku/eventhub/internal/repository/memory"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
	"github.com/kirinyoku/eventhub/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu   sync.Mutex
	keys []string
}

func (b *fakeBus) Publish(_ context.Context, routingKey string, _ any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, routingKey)
	return nil
}

type fakeLimiter struct {
	allow bool
	retry time.Duration
	err   error
	calls []string
}

func (l *fakeLimiter) Allow(_ context.Context, subject string) (bool, time.Duration, error) {
	l.calls = append(l.calls, subject)
	return l.allow, l.retry, l.err
}

func newService(t *testing.T, cfg reservation.Config, opts ...notify.Option) (*reservation.Service, *memory.Store) {
	t.Helper()

	store, clk := testutil.NewMemoryStore()
	log := testutil.DiscardLogger()

	return reservation.New(store, notify.New(log, opts...), nil, clk, log, cfg), store
}

func reserveInput(eventID int64, lines ...domain.TicketRequest) reservation.ReserveInput {
	return reservation.ReserveInput{
		EventID:  eventID,
		UserID:   42,
		Tickets:  lines,
		Attendee: testutil.Attendee(),
	}
}

func counts(t *testing.T, store *memory.Store, eventID int64) domain.EventCounts {
	t.Helper()

	e, err := store.Events().Get(context.Background(), eventID)
	require.NoError(t, err)

	c := e.Counts()
	assert.Equal(t, c.Total, c.Available+c.Sold)

	return c
}

func ga(quantity, maxPerOrder int) domain.TicketType {
	return domain.TicketType{Name: "GA", Price: decimal.NewFromInt(25), Quantity: quantity, MaxPerOrder: maxPerOrder}
}

func TestReserve_ScenarioA(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))
	ctx := context.Background()

	b, err := svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 4}))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, b.BookingStatus)
	assert.Equal(t, domain.PaymentPending, b.PaymentStatus)
	assert.Equal(t, domain.DefaultPaymentMethod, b.PaymentMethod)
	assert.Regexp(t, `^EH-[0-9A-Z]{9}$`, b.Reference)
	assert.EqualValues(t, 1, b.OrganizerID)
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, b.FinalAmount.Equal(decimal.NewFromInt(100)))

	c := counts(t, store, eventID)
	assert.Equal(t, 4, c.Sold)
	assert.Equal(t, 6, c.Available)

	_, err = svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 7}))
	var conflict domain.AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 6, conflict.Available)

	c = counts(t, store, eventID)
	assert.Equal(t, 4, c.Sold)
	assert.Equal(t, 6, c.Available)
}

func TestReserve_ScenarioB(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(8, 5))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(),
				reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 5}))
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAvailabilityConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	assert.Equal(t, 3, counts(t, store, eventID).Available)

	list, total, err := store.Bookings().List(context.Background(), domain.BookingFilter{EventID: eventID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestReserve_ConcurrentSingleTicketsNeverOversell(t *testing.T) {
	t.Parallel()

	const remaining = 7
	const buyers = 40

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(remaining, 1))

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(),
				reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1}))
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAvailabilityConflict)
		conflicts++
	}

	assert.Equal(t, remaining, ok)
	assert.Equal(t, buyers-remaining, conflicts)

	c := counts(t, store, eventID)
	assert.Equal(t, remaining, c.Sold)
	assert.True(t, c.SoldOut)
}

func TestReserve_AllOrNothingAcrossTypes(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store,
		ga(100, 10),
		domain.TicketType{Name: "VIP", Price: decimal.NewFromInt(150), Quantity: 1, MaxPerOrder: 4},
	)

	_, err := svc.Reserve(context.Background(), reserveInput(eventID,
		domain.TicketRequest{TicketType: "GA", Quantity: 2},
		domain.TicketRequest{TicketType: "VIP", Quantity: 2},
	))
	require.ErrorIs(t, err, domain.ErrAvailabilityConflict)

	c := counts(t, store, eventID)
	assert.Equal(t, 0, c.Sold)

	_, total, err := store.Bookings().List(context.Background(), domain.BookingFilter{EventID: eventID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReserve_MergesLinesAndAppliesFee(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{Fee: domain.FeePolicy{
		Rate: decimal.RequireFromString("0.05"),
		Flat: decimal.NewFromInt(1),
	}})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))

	b, err := svc.Reserve(context.Background(), reserveInput(eventID,
		domain.TicketRequest{TicketType: "GA", Quantity: 1},
		domain.TicketRequest{TicketType: " GA", Quantity: 1},
	))
	require.NoError(t, err)

	require.Len(t, b.Tickets, 1)
	assert.Equal(t, 2, b.Tickets[0].Quantity)
	assert.True(t, b.Tickets[0].Subtotal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "3.5", b.ServiceFee.String())
	assert.Equal(t, "53.5", b.FinalAmount.String())
}

func TestReserve_Rejections(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))
	ctx := context.Background()

	tests := []struct {
		name string
		in   reservation.ReserveInput
		want error
	}{
		{
			name: "no tickets",
			in:   reserveInput(eventID),
			want: domain.ErrValidation,
		},
		{
			name: "bad attendee email",
			in: func() reservation.ReserveInput {
				in := reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1})
				in.Attendee.Email = "nope"
				return in
			}(),
			want: domain.ErrValidation,
		},
		{
			name: "unknown type",
			in:   reserveInput(eventID, domain.TicketRequest{TicketType: "Balcony", Quantity: 1}),
			want: domain.ErrUnknownTicketType,
		},
		{
			name: "order limit",
			in:   reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 5}),
			want: domain.ErrOrderLimitExceeded,
		},
		{
			name: "missing event",
			in:   reserveInput(eventID+100, domain.TicketRequest{TicketType: "GA", Quantity: 1}),
			want: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 0, counts(t, store, eventID).Sold)
}

func TestReserve_EventNotBookable(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))
	ctx := context.Background()

	require.NoError(t, store.Events().SetStatus(ctx, eventID, domain.EventApproved, false))

	_, err := svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrEventNotBookable)

	require.NoError(t, store.Events().SetStatus(ctx, eventID, domain.EventCancelled, true))

	_, err = svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrEventNotBookable)
}

func TestReserve_RateLimited(t *testing.T) {
	t.Parallel()

	store, clk := testutil.NewMemoryStore()
	log := testutil.DiscardLogger()
	limiter := &fakeLimiter{retry: 3 * time.Second}
	svc := reservation.New(store, nil, limiter, clk, log, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))

	in := reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1})
	in.ClientKey = "user:42"

	_, err := svc.Reserve(context.Background(), in)
	var limited domain.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 3*time.Second, limited.RetryAfter)
	assert.Equal(t, []string{"user:42"}, limiter.calls)

	limiter.allow = true
	_, err = svc.Reserve(context.Background(), in)
	assert.NoError(t, err)
}

func TestReserve_LimiterFailureIsPersistence(t *testing.T) {
	t.Parallel()

	store, clk := testutil.NewMemoryStore()
	log := testutil.DiscardLogger()
	down := errors.New("redis: connection refused")
	limiter := &fakeLimiter{err: down}
	svc := reservation.New(store, nil, limiter, clk, log, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))

	in := reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 1})
	in.ClientKey = "user:42"

	_, err := svc.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 0, counts(t, store, eventID).Sold)
}

func TestReserve_OverflowingMergedLinesKeepInventory(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, reservation.Config{})
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))
	ctx := context.Background()

	held, err := svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 4}))
	require.NoError(t, err)
	require.Equal(t, 4, counts(t, store, eventID).Sold)

	_, err = svc.Reserve(ctx, reserveInput(eventID,
		domain.TicketRequest{TicketType: "GA", Quantity: math.MaxInt},
		domain.TicketRequest{TicketType: "GA", Quantity: math.MaxInt - 2},
	))
	assert.ErrorIs(t, err, domain.ErrValidation)

	c := counts(t, store, eventID)
	assert.Equal(t, 4, c.Sold)
	assert.Equal(t, 6, c.Available)

	stored, err := store.Bookings().Get(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, stored.BookingStatus)
}

func TestReserveCancel_RoundTrip(t *testing.T) {
	t.Parallel()

	bus := &fakeBus{}
	svc, store := newService(t, reservation.Config{}, notify.WithBus(bus))
	eventID := testutil.SeedBookableEvent(t, store, ga(10, 4))
	ctx := context.Background()

	before := counts(t, store, eventID)

	b, err := svc.Reserve(ctx, reserveInput(eventID, domain.TicketRequest{TicketType: "GA", Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, 4, counts(t, store, eventID).Sold)

	_, err = svc.Cancel(ctx, b.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	cancelled, err := svc.Cancel(ctx, b.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.BookingStatus)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)

	assert.Equal(t, before, counts(t, store, eventID))

	_, err = svc.Cancel(ctx, b.ID, "again")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Equal(t, before, counts(t, store, eventID))

	assert.Equal(t, []string{events.BookingConfirmed, events.BookingCancelled}, bus.keys)
}

func TestCancel_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, reservation.Config{})

	_, err := svc.Cancel(context.Background(), uuid.New(), "reason")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
