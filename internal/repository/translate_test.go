package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))

	notFound := Translate(fmt.Errorf("postgres.BookingRepo.Get:%w", ErrNotFound))
	assert.ErrorIs(t, notFound, domain.ErrNotFound)
	assert.ErrorIs(t, notFound, ErrNotFound)

	stale := Translate(ErrStaleVersion)
	assert.ErrorIs(t, stale, domain.ErrStateConflict)

	conflict := fmt.Errorf("ledger:%w: %w", ErrInsufficientStock, domain.AvailabilityConflictError{TicketType: "VIP"})
	assert.Same(t, conflict, Translate(conflict))

	var ace domain.AvailabilityConflictError
	assert.True(t, errors.As(Translate(conflict), &ace))

	other := Translate(errors.New("connection reset"))
	assert.ErrorIs(t, other, domain.ErrPersistence)
}
