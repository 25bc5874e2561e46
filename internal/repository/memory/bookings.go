package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/shopspring/decimal"
)

type bookings struct {
	store *Store
}

func (r *bookings) Create(ctx context.Context, b *domain.Booking) error {
	const op = "memory.bookings.Create"

	err := r.store.with(ctx, func(st *state) error {
		if _, ok := st.bookings[b.ID]; ok {
			return fmt.Errorf("%w: bookings_pkey", repository.ErrConflict)
		}
		if _, ok := st.references[b.Reference]; ok {
			return fmt.Errorf("%w: bookings_reference_key", repository.ErrConflict)
		}
		if _, ok := st.events[b.EventID]; !ok {
			return repository.ErrNotFound
		}

		now := r.store.clock.Now()
		b.Version = 1
		b.CreatedAt = now
		b.UpdatedAt = now

		st.bookings[b.ID] = copyBooking(b)
		st.references[b.Reference] = b.ID

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *bookings) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "memory.bookings.Get"

	var out *domain.Booking
	err := r.store.with(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyBooking(b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *bookings) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	const op = "memory.bookings.GetByReference"

	var out *domain.Booking
	err := r.store.with(ctx, func(st *state) error {
		id, ok := st.references[ref]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyBooking(st.bookings[id])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Transactions already hold the store lock, so the row-locking reads are plain reads.

func (r *bookings) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.Get(ctx, id)
}

func (r *bookings) GetByReferenceForUpdate(ctx context.Context, ref string) (*domain.Booking, error) {
	return r.GetByReference(ctx, ref)
}

func (r *bookings) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.store.with(ctx, func(st *state) error {
		_, exists = st.references[ref]
		return nil
	})
	return exists, err
}

func (r *bookings) Update(ctx context.Context, b *domain.Booking) error {
	const op = "memory.bookings.Update"

	err := r.store.with(ctx, func(st *state) error {
		cur, ok := st.bookings[b.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != b.Version {
			return repository.ErrStaleVersion
		}

		b.Version++
		b.UpdatedAt = r.store.clock.Now()

		// Identity, lines and amounts are immutable after creation.
		next := copyBooking(b)
		next.Reference = cur.Reference
		next.EventID = cur.EventID
		next.UserID = cur.UserID
		next.OrganizerID = cur.OrganizerID
		next.Tickets = cur.Tickets
		next.TotalAmount = cur.TotalAmount
		next.ServiceFee = cur.ServiceFee
		next.FinalAmount = cur.FinalAmount
		next.CreatedAt = cur.CreatedAt

		st.bookings[b.ID] = next

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *bookings) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int, error) {
	var matched []domain.Booking
	err := r.store.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if matches(b, f) {
				matched = append(matched, *copyBooking(b))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("memory.bookings.List:%w", err)
	}

	slices.SortFunc(matched, func(a, b domain.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if f.Offset >= total {
		return nil, total, nil
	}

	end := min(f.Offset+limit, total)

	return matched[f.Offset:end], total, nil
}

func (r *bookings) Stats(ctx context.Context, eventID int64) (*domain.BookingStats, error) {
	s := domain.BookingStats{
		EventID:          eventID,
		TotalRevenue:     decimal.Zero,
		TotalServiceFees: decimal.Zero,
	}

	err := r.store.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.EventID != eventID {
				continue
			}

			s.TotalBookings++
			switch b.BookingStatus {
			case domain.BookingConfirmed:
				s.Confirmed++
			case domain.BookingCancelled:
				s.Cancelled++
			case domain.BookingAttended:
				s.Attended++
			case domain.BookingNoShow:
				s.NoShow++
			}

			if b.PaymentStatus == domain.PaymentCompleted {
				s.TotalRevenue = s.TotalRevenue.Add(b.FinalAmount)
				s.TotalServiceFees = s.TotalServiceFees.Add(b.ServiceFee)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("memory.bookings.Stats:%w", err)
	}

	s.NetRevenue = s.TotalRevenue.Sub(s.TotalServiceFees)

	return &s, nil
}

func (r *bookings) Earnings(ctx context.Context, organizerID int64, w domain.EarningsWindow) (*domain.Earnings, error) {
	e := domain.Earnings{
		OrganizerID:      organizerID,
		TotalEarnings:    decimal.Zero,
		TotalServiceFees: decimal.Zero,
	}

	err := r.store.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.OrganizerID != organizerID || b.PaymentStatus != domain.PaymentCompleted {
				continue
			}
			if w.From != nil && b.CreatedAt.Before(*w.From) {
				continue
			}
			if w.To != nil && b.CreatedAt.After(*w.To) {
				continue
			}

			e.TotalBookings++
			e.TotalEarnings = e.TotalEarnings.Add(b.FinalAmount)
			e.TotalServiceFees = e.TotalServiceFees.Add(b.ServiceFee)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("memory.bookings.Earnings:%w", err)
	}

	e.NetEarnings = e.TotalEarnings.Sub(e.TotalServiceFees)

	return &e, nil
}

func matches(b *domain.Booking, f domain.BookingFilter) bool {
	if f.EventID != 0 && b.EventID != f.EventID {
		return false
	}
	if f.UserID != 0 && b.UserID != f.UserID {
		return false
	}
	if f.OrganizerID != 0 && b.OrganizerID != f.OrganizerID {
		return false
	}
	if f.BookingStatus != "" && b.BookingStatus != f.BookingStatus {
		return false
	}
	if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
		return false
	}
	if len(f.PaymentStatuses) > 0 && !slices.Contains(f.PaymentStatuses, b.PaymentStatus) {
		return false
	}
	return true
}
