package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
)

type EventRepo struct {
	store *Store
}

// Get retrieves an event together with its ticket types.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - id: unique identifier of the event to retrieve.
//
// Returns:
//   - *domain.Event: the event when found; ticket types keep their declared order.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	db := r.store.handle(ctx)

	var e domain.Event
	var status string
	err := db.QueryRow(ctx,
		`SELECT id, organizer_id, title, starts_at, status, is_published, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.OrganizerID, &e.Title, &e.StartsAt, &status, &e.IsPublished, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	e.Status = domain.EventStatus(status)

	rows, err := db.Query(ctx,
		`SELECT name, description, price, quantity, sold_count, max_per_order
		 FROM ticket_types
		 WHERE event_id = $1
		 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	for rows.Next() {
		var t domain.TicketType
		if err := rows.Scan(
			&t.Name,
			&t.Description,
			&t.Price,
			&t.Quantity,
			&t.SoldCount,
			&t.MaxPerOrder,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		e.TicketTypes = append(e.TicketTypes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &e, nil
}

// Create inserts an event and its ticket types. Sold counts always start at zero.
//
// Returns:
//   - int64: the id assigned to the event.
//   - error: repository.ErrConflict if two ticket types share a name.
func (r *EventRepo) Create(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.Create"

	var id int64
	err := r.store.RunTx(ctx, func(ctx context.Context) error {
		db := r.store.handle(ctx)

		if err := db.QueryRow(ctx,
			`INSERT INTO events(organizer_id, title, starts_at, status, is_published, total_tickets)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			e.OrganizerID, e.Title, e.StartsAt, string(e.Status), e.IsPublished, e.TotalTickets(),
		).Scan(&id); err != nil {
			return translateDBErr(err)
		}

		batch := &pgx.Batch{}
		for i, t := range e.TicketTypes {
			batch.Queue(
				`INSERT INTO ticket_types(event_id, name, description, price, quantity, max_per_order, position)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, t.Name, t.Description, t.Price, t.Quantity, t.MaxPerOrder, i,
			)
		}

		return translateDBErr(db.SendBatch(ctx, batch).Close())
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}

// SetStatus updates the booking gate of an event.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) SetStatus(ctx context.Context, id int64, status domain.EventStatus, published bool) error {
	const op = "postgres.EventRepo.SetStatus"

	tag, err := r.store.handle(ctx).Exec(ctx,
		`UPDATE events
		 SET status = $2, is_published = $3, updated_at = now()
		 WHERE id = $1`,
		id, string(status), published,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
