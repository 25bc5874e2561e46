package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
	redisrepo "github.com/kirinyoku/eventhub/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL time.Duration
	AvailabilityTTL time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the read side. A nil cache reads straight from the store.
func New(store repository.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Second
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

func cached[T any](
	ctx context.Context,
	c *redisrepo.Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return load(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, c, key, ttl, load)
}

// GetEvent retrieves an event with its ticket types, utilizing the cache.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the event to retrieve.
//
// Returns:
//   - *domain.Event: the retrieved event.
//   - error: domain.ErrNotFound if the event does not exist.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	event, err := cached(
		ctx,
		s.cache,
		redisrepo.KeyEventSummary(id),
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Events().Get(ctx, id)
			if err != nil {
				return domain.Event{}, repository.Translate(err)
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &event, nil
}

// Availability returns the derived inventory counters of an event. The
// cached copy may lag the ledger by at most AvailabilityTTL when an
// invalidation is lost.
//
// Returns:
//   - *domain.EventCounts: totals and per-type counters.
//   - error: domain.ErrNotFound if the event does not exist.
func (s *Service) Availability(ctx context.Context, eventID int64) (*domain.EventCounts, error) {
	const op = "service.query.Availability"

	counts, err := cached(
		ctx,
		s.cache,
		redisrepo.KeyEventAvailability(eventID),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.EventCounts, error) {
			e, err := s.store.Events().Get(ctx, eventID)
			if err != nil {
				return domain.EventCounts{}, repository.Translate(err)
			}

			return e.Counts(), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &counts, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.query.GetBooking"

	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return b, nil
}

func (s *Service) GetBookingByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	const op = "service.query.GetBookingByReference"

	ref = domain.NormalizeReference(ref)
	if ref == "" {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "reference", Reason: "booking reference is required"})
	}

	b, err := s.store.Bookings().GetByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return b, nil
}

// ListInput selects bookings by exactly one owner: an event, a user or an
// organizer. Statuses are optional filters.
type ListInput struct {
	EventID       int64
	UserID        int64
	OrganizerID   int64
	BookingStatus domain.BookingStatus
	PaymentStatus domain.PaymentStatus
	Page          int
	Limit         int
}

// ListBookings pages through bookings, newest first.
//
// Returns:
//   - *domain.BookingPage: the requested page and the total match count.
//   - error: domain.ErrValidation for unknown status filters.
func (s *Service) ListBookings(ctx context.Context, in ListInput) (*domain.BookingPage, error) {
	const op = "service.query.ListBookings"

	if in.EventID <= 0 && in.UserID <= 0 && in.OrganizerID <= 0 {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "owner", Reason: "event, user or organizer is required"})
	}

	if in.BookingStatus != "" && !in.BookingStatus.Valid() {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "booking_status", Reason: "unknown status"})
	}

	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "payment_status", Reason: "unknown status"})
	}

	page, limit := in.Page, in.Limit
	if page <= 0 {
		page = 1
	}

	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}

	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	list, total, err := s.store.Bookings().List(ctx, domain.BookingFilter{
		EventID:       in.EventID,
		UserID:        in.UserID,
		OrganizerID:   in.OrganizerID,
		BookingStatus: in.BookingStatus,
		PaymentStatus: in.PaymentStatus,
		Limit:         limit,
		Offset:        (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return domain.NewBookingPage(list, total, page, limit), nil
}

// Stats aggregates an event's bookings by status together with revenue from
// completed payments.
//
// Returns:
//   - error: domain.ErrNotFound if the event does not exist.
func (s *Service) Stats(ctx context.Context, eventID int64) (*domain.BookingStats, error) {
	const op = "service.query.Stats"

	if _, err := s.store.Events().Get(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	stats, err := s.store.Bookings().Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, repository.Translate(err))
	}

	return stats, nil
}
