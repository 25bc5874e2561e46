package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
	postgresrepo "github.com/kirinyoku/eventhub/internal/repository/postgres"
	"github.com/kirinyoku/eventhub/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(eventID int64, ref string) *domain.Booking {
	lines := []domain.BookedTicket{
		{TicketType: "General", Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
	}
	total, fee, final := domain.Price(lines, domain.FeePolicy{Flat: decimal.RequireFromString("1.00")})

	return &domain.Booking{
		ID:            uuid.New(),
		Reference:     ref,
		EventID:       eventID,
		UserID:        7,
		OrganizerID:   1,
		Tickets:       lines,
		TotalAmount:   total,
		ServiceFee:    fee,
		FinalAmount:   final,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: "card",
		BookingStatus: domain.BookingConfirmed,
		Attendee:      domain.AttendeeInfo{Name: "Ada", Email: "ada@example.com", Phone: "+15550100"},
	}
}

func TestBookingRepo_CreateGetUpdate(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	eventID := testutil.InsertEvent(t, ctx, pool,
		testutil.TicketTypeSeed{Name: "General", Price: "25.00", Quantity: 100, MaxPerOrder: 10},
	)

	repo := postgresrepo.NewStore(pool).Bookings()

	b := newBooking(eventID, "EH-TEST00001")
	require.NoError(t, repo.Create(ctx, b))
	assert.EqualValues(t, 1, b.Version)

	got, err := repo.GetByReference(ctx, "EH-TEST00001")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	require.Len(t, got.Tickets, 1)
	assert.True(t, got.Tickets[0].Subtotal.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, got.FinalAmount.Equal(decimal.RequireFromString("51.00")))
	assert.Nil(t, got.RefundAmount)

	exists, err := repo.ReferenceExists(ctx, "EH-TEST00001")
	require.NoError(t, err)
	assert.True(t, exists)

	changed, err := got.CompletePayment("txn_1", time.Now())
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, repo.Update(ctx, got))
	assert.EqualValues(t, 2, got.Version)

	stale := *got
	stale.Version = 1
	stale.Notes = "late writer"
	assert.ErrorIs(t, repo.Update(ctx, &stale), repository.ErrStaleVersion)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_ListStatsEarnings(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	eventID := testutil.InsertEvent(t, ctx, pool,
		testutil.TicketTypeSeed{Name: "General", Price: "25.00", Quantity: 100, MaxPerOrder: 10},
	)

	repo := postgresrepo.NewStore(pool).Bookings()

	paid := newBooking(eventID, "EH-TEST00002")
	require.NoError(t, repo.Create(ctx, paid))
	_, err := paid.CompletePayment("txn_1", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, paid))

	cancelled := newBooking(eventID, "EH-TEST00003")
	require.NoError(t, repo.Create(ctx, cancelled))
	require.NoError(t, cancelled.Cancel("changed plans", time.Now()))
	require.NoError(t, repo.Update(ctx, cancelled))

	list, total, err := repo.List(ctx, domain.BookingFilter{EventID: eventID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, domain.BookingFilter{EventID: eventID, BookingStatus: domain.BookingCancelled, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "changed plans", list[0].CancellationReason)

	stats, err := repo.Stats(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("51.00")))
	assert.True(t, stats.NetRevenue.Equal(decimal.RequireFromString("50.00")))

	earnings, err := repo.Earnings(ctx, 1, domain.EarningsWindow{})
	require.NoError(t, err)
	assert.Equal(t, 1, earnings.TotalBookings)
	assert.True(t, earnings.NetEarnings.Equal(decimal.RequireFromString("50.00")))
}
