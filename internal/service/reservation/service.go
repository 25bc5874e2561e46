package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
	"github.com/kirinyoku/eventhub/internal/metrics"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/service/reference"
	"github.com/kirinyoku/eventhub/internal/uow"
)

// Limiter throttles reservation attempts per client.
type Limiter interface {
	Allow(ctx context.Context, subject string) (allowed bool, retryAfter time.Duration, err error)
}

type Config struct {
	Fee domain.FeePolicy
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	refs     *reference.Generator
	notifier *notify.Notifier
	limiter  Limiter
	clock    clock.Clock
	log      *slog.Logger
	cfg      Config
}

// New builds the coordinator. notifier and limiter may be nil.
func New(
	store repository.Store,
	notifier *notify.Notifier,
	limiter Limiter,
	clk clock.Clock,
	log *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		refs:     reference.New(),
		notifier: notifier,
		limiter:  limiter,
		clock:    clk,
		log:      log,
		cfg:      cfg,
	}
}

type ReserveInput struct {
	EventID       int64
	UserID        int64
	Tickets       []domain.TicketRequest
	Attendee      domain.AttendeeInfo
	PaymentMethod string
	Notes         string
	// ClientKey identifies the caller for rate limiting. Empty skips the limiter.
	ClientKey string
}

// Reserve takes every requested ticket from the event's inventory and
// records a confirmed booking with a pending payment.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: the buyer, the event and the requested ticket lines.
//
// Returns:
//   - *domain.Booking: the persisted booking.
//   - error: domain.ErrValidation, domain.ErrRateLimited, domain.ErrNotFound,
//     domain.ErrEventNotBookable, domain.ErrUnknownTicketType,
//     domain.ErrOrderLimitExceeded or domain.ErrAvailabilityConflict.
//     Nothing is written when an error is returned.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*domain.Booking, error) {
	const op = "service.reservation.Reserve"

	started := time.Now()

	b, err := s.reserve(ctx, in)
	if err != nil {
		metrics.ObserveReserve(started, 0, err)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	metrics.ObserveReserve(started, b.Quantity(), nil)

	return b, nil
}

func (s *Service) reserve(ctx context.Context, in ReserveInput) (*domain.Booking, error) {
	if in.EventID <= 0 {
		return nil, domain.ValidationError{Field: "event_id", Reason: "must be positive"}
	}
	if in.UserID <= 0 {
		return nil, domain.ValidationError{Field: "user_id", Reason: "must be positive"}
	}

	reqs, err := domain.NormalizeRequests(in.Tickets)
	if err != nil {
		return nil, err
	}

	attendee, err := domain.NormalizeAttendee(in.Attendee)
	if err != nil {
		return nil, err
	}

	notes, err := domain.NormalizeNotes(in.Notes)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = domain.DefaultPaymentMethod
	}

	if s.limiter != nil && in.ClientKey != "" {
		ok, retry, err := s.limiter.Allow(ctx, in.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w: %w", op, domain.ErrPersistence, err)
		}
		if !ok {
			return nil, domain.RateLimitedError{RetryAfter: retry}
		}
	}

	var booking *domain.Booking

	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		event, err := s.store.Events().Get(ctx, in.EventID)
		if err != nil {
			return repository.Translate(err)
		}

		if !event.Bookable() {
			return domain.ErrEventNotBookable
		}

		lines, err := resolveLines(event, reqs)
		if err != nil {
			return err
		}

		total, fee, final := domain.Price(lines, s.cfg.Fee)

		ref, err := s.refs.Unique(ctx, s.store.Bookings().ReferenceExists)
		if err != nil {
			return repository.Translate(err)
		}

		if err := s.store.Ledger().TryReserve(ctx, event.ID, reqs); err != nil {
			return repository.Translate(err)
		}

		b := &domain.Booking{
			ID:            uuid.New(),
			Reference:     ref,
			EventID:       event.ID,
			UserID:        in.UserID,
			OrganizerID:   event.OrganizerID,
			Tickets:       lines,
			TotalAmount:   total,
			ServiceFee:    fee,
			FinalAmount:   final,
			PaymentStatus: domain.PaymentPending,
			PaymentMethod: method,
			BookingStatus: domain.BookingConfirmed,
			Attendee:      attendee,
			Notes:         notes,
		}

		if err := s.store.Bookings().Create(ctx, b); err != nil {
			return repository.Translate(err)
		}

		booking = b

		after(func(ctx context.Context) {
			s.notifier.InventoryChanged(ctx, event.ID, events.BookingConfirmed)
			s.notifier.BookingChanged(ctx, events.BookingConfirmed, b)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking reserved",
		slog.String("booking_id", booking.ID.String()),
		slog.String("reference", booking.Reference),
		slog.Int64("event_id", booking.EventID),
		slog.Int("tickets", booking.Quantity()),
	)

	return booking, nil
}

// resolveLines prices each request from the event's catalogue. Shortage is
// reported before the per-order cap. The ledger repeats both checks atomically.
func resolveLines(event *domain.Event, reqs []domain.TicketRequest) ([]domain.BookedTicket, error) {
	lines := make([]domain.BookedTicket, 0, len(reqs))

	for _, r := range reqs {
		tt, ok := event.TicketType(r.TicketType)
		if !ok {
			return nil, domain.UnknownTicketTypeError{TicketType: r.TicketType}
		}

		if r.Quantity > tt.Available() {
			return nil, domain.AvailabilityConflictError{
				TicketType: r.TicketType,
				Requested:  r.Quantity,
				Available:  tt.Available(),
			}
		}

		if r.Quantity > tt.MaxPerOrder {
			return nil, domain.OrderLimitExceededError{
				TicketType:  r.TicketType,
				Requested:   r.Quantity,
				MaxPerOrder: tt.MaxPerOrder,
			}
		}

		lines = append(lines, domain.BookedTicket{
			TicketType: tt.Name,
			Quantity:   r.Quantity,
			UnitPrice:  tt.Price,
		})
	}

	return lines, nil
}

// Cancel moves a confirmed booking to cancelled and returns its tickets to
// inventory in the same transaction.
//
// Parameters:
//   - ctx: request-scoped context.
//   - bookingID: ID of the booking to cancel.
//   - reason: required cancellation reason, stored verbatim after trimming.
//
// Returns:
//   - *domain.Booking: the cancelled booking.
//   - error: domain.ErrValidation, domain.ErrNotFound or domain.ErrStateConflict.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	const op = "service.reservation.Cancel"

	b, err := s.cancel(ctx, bookingID, reason)
	metrics.ObserveTransition("cancel", err)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (s *Service) cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ValidationError{Field: "cancellation_reason", Reason: "cancellation reason is required"}
	}

	var booking *domain.Booking

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, err := s.store.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return repository.Translate(err)
		}

		if err := b.Cancel(reason, s.clock.Now()); err != nil {
			return err
		}

		if err := s.store.Ledger().Release(ctx, b.EventID, b.Lines()); err != nil {
			return repository.Translate(err)
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return repository.Translate(err)
		}

		booking = b

		after(func(ctx context.Context) {
			metrics.TicketsReleased(b.Quantity())
			s.notifier.InventoryChanged(ctx, b.EventID, events.BookingCancelled)
			s.notifier.BookingChanged(ctx, events.BookingCancelled, b)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}
