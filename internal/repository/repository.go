package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
)

// Store is the storage handle shared by the services. RunTx puts the
// transaction into the context it hands to fn; every repository method called
// with that context joins the transaction.
type Store interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ledger() Ledger
	Events() EventRepository
	Bookings() BookingRepository
	Ping(ctx context.Context) error
}

// Ledger is the only writer of ticket type counters.
type Ledger interface {
	// TryReserve increments every requested sold count or none of them.
	//
	// Returns:
	//   - error: ErrUnknownTicketType, ErrOrderLimit or ErrInsufficientStock wrapped
	//     in the matching domain error carrying the offending ticket type.
	TryReserve(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error

	// Release decrements sold counts; a count never drops below zero.
	//
	// Returns:
	//   - error: ErrReleaseUnderflow if a line exceeds the current sold count.
	Release(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error
}

type EventRepository interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
	Create(ctx context.Context, e *domain.Event) (int64, error)
	SetStatus(ctx context.Context, id int64, status domain.EventStatus, published bool) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	// GetForUpdate and GetByReferenceForUpdate lock the row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	// Update writes the mutable fields and bumps the version. It returns
	// ErrStaleVersion when b.Version no longer matches the stored row.
	Update(ctx context.Context, b *domain.Booking) error
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int, error)
	Stats(ctx context.Context, eventID int64) (*domain.BookingStats, error)
	Earnings(ctx context.Context, organizerID int64, w domain.EarningsWindow) (*domain.Earnings, error)
}
