package repository

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/eventhub/internal/domain"
)

// Translate maps a repository error onto the domain taxonomy. Errors that
// already match a domain sentinel pass through unchanged; anything the store
// cannot classify becomes domain.ErrPersistence.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrEventNotBookable),
		errors.Is(err, domain.ErrAvailabilityConflict),
		errors.Is(err, domain.ErrOrderLimitExceeded),
		errors.Is(err, domain.ErrUnknownTicketType),
		errors.Is(err, domain.ErrStateConflict),
		errors.Is(err, domain.ErrPaymentPrecondition),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrPersistence):
		return err
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, ErrStaleVersion):
		return fmt.Errorf("%w: %w", domain.StateConflictError{From: "stale", Action: "update booking"}, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}
