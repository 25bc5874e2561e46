package query_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/service/query"
	"github.com/kirinyoku/eventhub/internal/service/reservation"
	"github.com/kirinyoku/eventhub/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	t.Parallel()

	store, clk := testutil.NewMemoryStore()
	log := testutil.DiscardLogger()
	reserve := reservation.New(store, nil, nil, clk, log, reservation.Config{})
	svc := query.New(store, nil, query.Config{DefaultPageSize: 2})
	ctx := context.Background()

	eventID := testutil.SeedBookableEvent(t, store,
		domain.TicketType{Name: "GA", Price: decimal.NewFromInt(20), Quantity: 20, MaxPerOrder: 5},
		domain.TicketType{Name: "VIP", Price: decimal.NewFromInt(80), Quantity: 2, MaxPerOrder: 2},
	)

	var booked []*domain.Booking
	for _, userID := range []int64{11, 11, 12} {
		b, err := reserve.Reserve(ctx, reservation.ReserveInput{
			EventID:  eventID,
			UserID:   userID,
			Tickets:  []domain.TicketRequest{{TicketType: "GA", Quantity: 2}},
			Attendee: testutil.Attendee(),
		})
		require.NoError(t, err)
		booked = append(booked, b)
	}

	_, err := reserve.Cancel(ctx, booked[2].ID, "no longer needed")
	require.NoError(t, err)

	t.Run("event and availability", func(t *testing.T) {
		e, err := svc.GetEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, "Spring Concert", e.Title)
		assert.Len(t, e.TicketTypes, 2)

		c, err := svc.Availability(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 22, c.Total)
		assert.Equal(t, 4, c.Sold)
		assert.Equal(t, 18, c.Available)
		assert.False(t, c.SoldOut)

		_, err = svc.GetEvent(ctx, eventID+1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = svc.Availability(ctx, eventID+1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("booking lookups", func(t *testing.T) {
		b, err := svc.GetBooking(ctx, booked[0].ID)
		require.NoError(t, err)
		assert.Equal(t, booked[0].Reference, b.Reference)

		b, err = svc.GetBookingByReference(ctx, strings.ToLower(booked[1].Reference))
		require.NoError(t, err)
		assert.Equal(t, booked[1].ID, b.ID)

		_, err = svc.GetBooking(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = svc.GetBookingByReference(ctx, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("lists", func(t *testing.T) {
		page, err := svc.ListBookings(ctx, query.ListInput{EventID: eventID})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.Limit)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Bookings, 2)

		page, err = svc.ListBookings(ctx, query.ListInput{EventID: eventID, BookingStatus: domain.BookingCancelled})
		require.NoError(t, err)
		require.Len(t, page.Bookings, 1)
		assert.Equal(t, booked[2].ID, page.Bookings[0].ID)

		page, err = svc.ListBookings(ctx, query.ListInput{UserID: 11, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)

		page, err = svc.ListBookings(ctx, query.ListInput{OrganizerID: 1, Page: 5})
		require.NoError(t, err)
		assert.Empty(t, page.Bookings)
		assert.Equal(t, 3, page.Total)

		_, err = svc.ListBookings(ctx, query.ListInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.ListBookings(ctx, query.ListInput{EventID: eventID, PaymentStatus: "paid"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("stats", func(t *testing.T) {
		s, err := svc.Stats(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 3, s.TotalBookings)
		assert.Equal(t, 2, s.Confirmed)
		assert.Equal(t, 1, s.Cancelled)
		assert.True(t, s.TotalRevenue.IsZero())

		_, err = svc.Stats(ctx, eventID+1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
