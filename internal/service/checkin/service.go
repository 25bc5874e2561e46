package checkin

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
	"github.com/kirinyoku/eventhub/internal/metrics"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/uow"
)

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	notifier *notify.Notifier
	clock    clock.Clock
}

func New(store repository.Store, notifier *notify.Notifier, clk clock.Clock) *Service {
	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		notifier: notifier,
		clock:    clk,
	}
}

// CheckIn admits the holder of a booking reference.
//
// Parameters:
//   - ctx: request-scoped context.
//   - ref: booking reference as typed at the door; case and surrounding
//     whitespace are ignored.
//
// Returns:
//   - *domain.Booking: the attended booking. On a repeated check-in the
//     unchanged booking is returned together with domain.AlreadyCheckedInError.
//   - error: domain.ErrValidation, domain.ErrNotFound, domain.ErrStateConflict
//     or domain.ErrPaymentPrecondition.
func (s *Service) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	const op = "service.checkin.CheckIn"

	ref = domain.NormalizeReference(ref)
	if ref == "" {
		err := domain.ValidationError{Field: "booking_reference", Reason: "booking reference is required"}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var booking *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, err := s.store.Bookings().GetByReferenceForUpdate(ctx, ref)
		if err != nil {
			return repository.Translate(err)
		}

		if err := b.CheckIn(s.clock.Now()); err != nil {
			var already domain.AlreadyCheckedInError
			if errors.As(err, &already) {
				booking = b
			}
			return err
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return repository.Translate(err)
		}

		booking = b

		after(func(ctx context.Context) {
			s.notifier.BookingChanged(ctx, events.BookingCheckedIn, b)
		})

		return nil
	})
	metrics.ObserveTransition("check_in", err)
	if err != nil {
		return booking, fmt.Errorf("%s:%w", op, err)
	}

	return booking, nil
}
