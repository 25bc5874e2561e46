package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

// Now is the fixed instant of in-process store tests.
var Now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewMemoryStore returns an empty in-process store on a clock fixed at Now.
func NewMemoryStore() (*memory.Store, clock.Clock) {
	clk := clock.NewFixed(Now)
	return memory.NewStore(clk), clk
}

// SeedBookableEvent stores an approved, published event of organizer 1.
func SeedBookableEvent(t *testing.T, store *memory.Store, types ...domain.TicketType) int64 {
	t.Helper()

	id, err := store.Events().Create(context.Background(), &domain.Event{
		OrganizerID: 1,
		Title:       "Spring Concert",
		StartsAt:    Now.Add(14 * 24 * time.Hour),
		Status:      domain.EventApproved,
		IsPublished: true,
		TicketTypes: types,
	})
	require.NoError(t, err)

	return id
}

func Attendee() domain.AttendeeInfo {
	return domain.AttendeeInfo{Name: "Grace Hopper", Email: "grace@example.com", Phone: "5550100200"}
}
