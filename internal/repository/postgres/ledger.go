package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
)

type LedgerRepo struct {
	store *Store
}

// TryReserve reserves every requested line or none of them.
//
// Parameters:
//   - ctx: request-scoped context; joins the caller's transaction when present.
//   - eventID: unique identifier of the event that owns the ticket types.
//   - reqs: lines to reserve, one per ticket type, in ascending name order.
//
// Returns:
//   - error: repository.ErrUnknownTicketType if a ticket type does not exist.
//   - error: repository.ErrOrderLimit if a quantity exceeds max_per_order.
//   - error: repository.ErrInsufficientStock if a line does not fit the remaining quantity.
//   - error: domain.ErrValidation if a quantity is not positive.
func (r *LedgerRepo) TryReserve(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error {
	const op = "postgres.LedgerRepo.TryReserve"

	return r.store.RunTx(ctx, func(ctx context.Context) error {
		db := r.store.handle(ctx)

		var total int
		for _, req := range reqs {
			if req.Quantity <= 0 {
				return fmt.Errorf("%s:%w", op, nonPositive(req))
			}

			var sold int
			err := db.QueryRow(ctx,
				`UPDATE ticket_types
				 SET sold_count = sold_count + $3, updated_at = now()
				 WHERE event_id = $1
				 	AND name = $2
				 	AND $3 > 0
				 	AND $3 <= max_per_order
				 	AND sold_count + $3 <= quantity
				 RETURNING sold_count`,
				eventID, req.TicketType, req.Quantity,
			).Scan(&sold)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%s:%w", op, r.classify(ctx, db, eventID, req))
				}
				return wrapDBErr(op, err)
			}

			total += req.Quantity
		}

		if err := r.adjustEvent(ctx, db, eventID, total); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

// Release returns reserved quantities to the pool.
//
// Returns:
//   - error: repository.ErrReleaseUnderflow if a line exceeds the current sold count.
//   - error: repository.ErrUnknownTicketType if a ticket type does not exist.
func (r *LedgerRepo) Release(ctx context.Context, eventID int64, reqs []domain.TicketRequest) error {
	const op = "postgres.LedgerRepo.Release"

	return r.store.RunTx(ctx, func(ctx context.Context) error {
		db := r.store.handle(ctx)

		var total int
		for _, req := range reqs {
			if req.Quantity <= 0 {
				return fmt.Errorf("%s:%w", op, nonPositive(req))
			}

			tag, err := db.Exec(ctx,
				`UPDATE ticket_types
				 SET sold_count = sold_count - $3, updated_at = now()
				 WHERE event_id = $1
				 	AND name = $2
				 	AND sold_count >= $3`,
				eventID, req.TicketType, req.Quantity,
			)
			if err != nil {
				return wrapDBErr(op, err)
			}

			if tag.RowsAffected() == 0 {
				var exists bool
				if err := db.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM ticket_types WHERE event_id = $1 AND name = $2)`,
					eventID, req.TicketType,
				).Scan(&exists); err != nil {
					return wrapDBErr(op, err)
				}
				if !exists {
					return fmt.Errorf("%s:%w: %w", op, repository.ErrUnknownTicketType,
						domain.UnknownTicketTypeError{TicketType: req.TicketType})
				}
				return fmt.Errorf("%s:%w: %s", op, repository.ErrReleaseUnderflow, req.TicketType)
			}

			total += req.Quantity
		}

		if err := r.adjustEvent(ctx, db, eventID, -total); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

// adjustEvent keeps the event aggregate in step with its ticket types.
// available_tickets and is_sold_out are generated columns.
func (r *LedgerRepo) adjustEvent(ctx context.Context, db DB, eventID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET sold_tickets = sold_tickets + $2, updated_at = now()
		 WHERE id = $1`,
		eventID, delta,
	)
	if err != nil {
		return translateDBErr(err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func nonPositive(req domain.TicketRequest) error {
	return domain.ValidationError{
		Field:  "quantity",
		Reason: fmt.Sprintf("quantity for %q must be at least 1", req.TicketType),
	}
}

// classify explains why the conditional update matched no row. It runs in the
// same transaction, after the miss, and never feeds a write.
func (r *LedgerRepo) classify(ctx context.Context, db DB, eventID int64, req domain.TicketRequest) error {
	var available, maxPerOrder int
	err := db.QueryRow(ctx,
		`SELECT quantity - sold_count, max_per_order
		 FROM ticket_types
		 WHERE event_id = $1 AND name = $2`,
		eventID, req.TicketType,
	).Scan(&available, &maxPerOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %w", repository.ErrUnknownTicketType,
				domain.UnknownTicketTypeError{TicketType: req.TicketType})
		}
		return translateDBErr(err)
	}

	// Shortage is reported ahead of the per-order cap.
	if req.Quantity > available {
		return fmt.Errorf("%w: %w", repository.ErrInsufficientStock, domain.AvailabilityConflictError{
			TicketType: req.TicketType,
			Requested:  req.Quantity,
			Available:  available,
		})
	}

	return fmt.Errorf("%w: %w", repository.ErrOrderLimit, domain.OrderLimitExceededError{
		TicketType:  req.TicketType,
		Requested:   req.Quantity,
		MaxPerOrder: maxPerOrder,
	})
}
