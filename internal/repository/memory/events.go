package memory

import (
	"context"
	"fmt"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
)

type events struct {
	store *Store
}

func (r *events) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "memory.events.Get"

	var out *domain.Event
	err := r.store.with(ctx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyEvent(e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *events) Create(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "memory.events.Create"

	var id int64
	err := r.store.with(ctx, func(st *state) error {
		seen := make(map[string]struct{}, len(e.TicketTypes))
		for _, t := range e.TicketTypes {
			if _, dup := seen[t.Name]; dup {
				return fmt.Errorf("%w: ticket type %s", repository.ErrConflict, t.Name)
			}
			seen[t.Name] = struct{}{}
		}

		st.nextEventID++
		id = st.nextEventID

		now := r.store.clock.Now()
		cp := copyEvent(e)
		cp.ID = id
		cp.CreatedAt = now
		cp.UpdatedAt = now
		for i := range cp.TicketTypes {
			cp.TicketTypes[i].SoldCount = 0
		}
		st.events[id] = cp

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}

func (r *events) SetStatus(ctx context.Context, id int64, status domain.EventStatus, published bool) error {
	const op = "memory.events.SetStatus"

	err := r.store.with(ctx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return repository.ErrNotFound
		}
		e.Status = status
		e.IsPublished = published
		e.UpdatedAt = r.store.clock.Now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
