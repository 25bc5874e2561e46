// Package payment tracks the financial side of a booking. The processor is an
// external collaborator: it confirms or fails a payment through MarkCompleted
// and MarkFailed, either over HTTP or from the payments queue.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
	"github.com/kirinyoku/eventhub/internal/metrics"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/uow"
)

type Config struct {
	Currency        string
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	notifier *notify.Notifier
	clock    clock.Clock
	cfg      Config
}

func New(store repository.Store, notifier *notify.Notifier, clk clock.Clock, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
	}
}

// transition loads the booking under a row lock, applies fn and writes the
// result back. fn reports whether anything changed; an unchanged booking is
// not written and no hook runs.
func (s *Service) transition(
	ctx context.Context,
	bookingID uuid.UUID,
	routingKey string,
	fn func(b *domain.Booking) (bool, error),
) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, err := s.store.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return repository.Translate(err)
		}

		changed, err := fn(b)
		if err != nil {
			return err
		}

		booking = b
		if !changed {
			return nil
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return repository.Translate(err)
		}

		if routingKey != "" {
			after(func(ctx context.Context) {
				s.notifier.BookingChanged(ctx, routingKey, b)
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// CreateIntent opens a mock processor payment for a booking and records the
// intent id on it.
//
// Returns:
//   - *domain.PaymentIntent: the intent with its client secret and the amount
//     in minor currency units.
//   - error: domain.ErrNotFound or domain.ErrStateConflict when the payment is
//     no longer pending.
func (s *Service) CreateIntent(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentIntent, error) {
	const op = "service.payment.CreateIntent"

	intentID := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	b, err := s.transition(ctx, bookingID, "", func(b *domain.Booking) (bool, error) {
		return true, b.AttachPaymentIntent(intentID, s.clock.Now())
	})
	metrics.ObserveTransition("payment_intent", err)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.PaymentIntent{
		BookingID:       b.ID,
		PaymentIntentID: intentID,
		ClientSecret:    intentID + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountMinor:     b.FinalAmount.Shift(2).Round(0).IntPart(),
		Currency:        s.cfg.Currency,
	}, nil
}

// MarkCompleted records the processor's confirmation. Repeating it with the
// same transaction id returns the booking unchanged.
//
// Returns:
//   - error: domain.ErrValidation for an empty transaction id,
//     domain.ErrNotFound, or domain.ErrStateConflict.
func (s *Service) MarkCompleted(ctx context.Context, bookingID uuid.UUID, transactionID string) (*domain.Booking, error) {
	const op = "service.payment.MarkCompleted"

	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		err := domain.ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
		metrics.ObserveTransition("payment_completed", err)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	b, err := s.transition(ctx, bookingID, events.PaymentCompleted, func(b *domain.Booking) (bool, error) {
		return b.CompletePayment(transactionID, s.clock.Now())
	})
	metrics.ObserveTransition("payment_completed", err)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// MarkFailed moves a pending payment to failed.
func (s *Service) MarkFailed(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	const op = "service.payment.MarkFailed"

	b, err := s.transition(ctx, bookingID, events.PaymentFailed, func(b *domain.Booking) (bool, error) {
		return true, b.FailPayment(s.clock.Now())
	})
	metrics.ObserveTransition("payment_failed", err)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// Refund returns the full final amount of a cancelled, paid booking.
//
// Returns:
//   - error: domain.ErrNotFound, or domain.ErrStateConflict unless the payment
//     is completed and the booking cancelled.
func (s *Service) Refund(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	const op = "service.payment.Refund"

	b, err := s.transition(ctx, bookingID, events.BookingRefunded, func(b *domain.Booking) (bool, error) {
		return true, b.Refund(s.clock.Now())
	})
	metrics.ObserveTransition("refund", err)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// History lists a user's completed and refunded payments, newest first.
func (s *Service) History(ctx context.Context, userID int64, page, limit int) (*domain.BookingPage, error) {
	const op = "service.payment.History"

	if userID <= 0 {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "user_id", Reason: "must be positive"})
	}

	page, limit = s.clampPage(page, limit)

	list, total, err := s.store.Bookings().List(ctx, domain.BookingFilter{
		UserID:          userID,
		PaymentStatuses: []domain.PaymentStatus{domain.PaymentCompleted, domain.PaymentRefunded},
		Limit:           limit,
		Offset:          (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return domain.NewBookingPage(list, total, page, limit), nil
}

// Earnings sums an organizer's completed payments, optionally within a
// creation-time window.
func (s *Service) Earnings(ctx context.Context, organizerID int64, w domain.EarningsWindow) (*domain.Earnings, error) {
	const op = "service.payment.Earnings"

	if organizerID <= 0 {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "organizer_id", Reason: "must be positive"})
	}

	if w.From != nil && w.To != nil && w.To.Before(*w.From) {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "to", Reason: "must not precede from"})
	}

	e, err := s.store.Bookings().Earnings(ctx, organizerID, w)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return e, nil
}

func (s *Service) clampPage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}

	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}

	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	return page, limit
}
