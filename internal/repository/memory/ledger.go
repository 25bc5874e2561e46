package memory

import (
	"context"
	"fmt"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
)

type ledger struct {
	store *Store
}

func (l *ledger) TryReserve(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error {
	const op = "memory.ledger.TryReserve"

	return l.store.RunTx(ctx, func(ctx context.Context) error {
		return l.store.with(ctx, func(st *state) error {
			e, ok := st.events[eventID]
			if !ok {
				return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
			}

			for _, req := range reqs {
				if req.Quantity <= 0 {
					return fmt.Errorf("%s:%w", op, nonPositive(req))
				}

				i := typeIndex(e, req.TicketType)
				if i < 0 {
					return fmt.Errorf("%s:%w: %w", op, repository.ErrUnknownTicketType,
						domain.UnknownTicketTypeError{TicketType: req.TicketType})
				}

				t := &e.TicketTypes[i]
				if req.Quantity > t.Available() {
					return fmt.Errorf("%s:%w: %w", op, repository.ErrInsufficientStock, domain.AvailabilityConflictError{
						TicketType: req.TicketType,
						Requested:  req.Quantity,
						Available:  t.Available(),
					})
				}
				if req.Quantity > t.MaxPerOrder {
					return fmt.Errorf("%s:%w: %w", op, repository.ErrOrderLimit, domain.OrderLimitExceededError{
						TicketType:  req.TicketType,
						Requested:   req.Quantity,
						MaxPerOrder: t.MaxPerOrder,
					})
				}

				t.SoldCount += req.Quantity
			}

			e.UpdatedAt = l.store.clock.Now()

			return nil
		})
	})
}

func (l *ledger) Release(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error {
	const op = "memory.ledger.Release"

	return l.store.RunTx(ctx, func(ctx context.Context) error {
		return l.store.with(ctx, func(st *state) error {
			e, ok := st.events[eventID]
			if !ok {
				return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
			}

			for _, req := range reqs {
				if req.Quantity <= 0 {
					return fmt.Errorf("%s:%w", op, nonPositive(req))
				}

				i := typeIndex(e, req.TicketType)
				if i < 0 {
					return fmt.Errorf("%s:%w: %w", op, repository.ErrUnknownTicketType,
						domain.UnknownTicketTypeError{TicketType: req.TicketType})
				}

				t := &e.TicketTypes[i]
				if t.SoldCount < req.Quantity {
					return fmt.Errorf("%s:%w: %s", op, repository.ErrReleaseUnderflow, req.TicketType)
				}

				t.SoldCount -= req.Quantity
			}

			e.UpdatedAt = l.store.clock.Now()

			return nil
		})
	})
}

func typeIndex(e *domain.Event, name string) int {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Name == name {
			return i
		}
	}
	return -1
}

func nonPositive(req domain.TicketRequest) error {
	return domain.ValidationError{
		Field:  "quantity",
		Reason: fmt.Sprintf("quantity for %q must be at least 1", req.TicketType),
	}
}
