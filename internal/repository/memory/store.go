// Package memory is an in-process implementation of the repository contracts.
// It backs STORAGE_DRIVER=memory and the service tests.
//
// A transaction works on a private copy of the whole state and replaces the
// shared state on commit. Transactions are serialized by one mutex, so the
// copy never races with another writer.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kirinyoku/eventhub/internal/clock"
	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
)

type state struct {
	events      map[int64]*domain.Event
	bookings    map[uuid.UUID]*domain.Booking
	references  map[string]uuid.UUID
	nextEventID int64
}

func newState() *state {
	return &state{
		events:     make(map[int64]*domain.Event),
		bookings:   make(map[uuid.UUID]*domain.Booking),
		references: make(map[string]uuid.UUID),
	}
}

func (s *state) clone() *state {
	cp := &state{
		events:      make(map[int64]*domain.Event, len(s.events)),
		bookings:    make(map[uuid.UUID]*domain.Booking, len(s.bookings)),
		references:  make(map[string]uuid.UUID, len(s.references)),
		nextEventID: s.nextEventID,
	}
	for id, e := range s.events {
		cp.events[id] = copyEvent(e)
	}
	for id, b := range s.bookings {
		cp.bookings[id] = copyBooking(b)
	}
	for ref, id := range s.references {
		cp.references[ref] = id
	}
	return cp
}

type txKey struct{}

type tx struct {
	state *state
}

type Store struct {
	mu    sync.Mutex
	state *state
	clock clock.Clock
}

var _ repository.Store = (*Store)(nil)

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.NewSystem()
	}
	return &Store{state: newState(), clock: c}
}

// RunTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds. A context that already carries a transaction joins it.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{state: s.state.clone()}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	s.state = t.state

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Ledger() repository.Ledger              { return &ledger{store: s} }
func (s *Store) Events() repository.EventRepository     { return &events{store: s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookings{store: s} }

// with runs fn against the transaction state in ctx, or against the shared
// state under the lock when ctx carries none.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if t := txFromContext(ctx); t != nil {
		return fn(t.state)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.state)
}

func txFromContext(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func copyEvent(e *domain.Event) *domain.Event {
	cp := *e
	cp.TicketTypes = append([]domain.TicketType(nil), e.TicketTypes...)
	return &cp
}

func copyBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	cp.Tickets = append([]domain.BookedTicket(nil), b.Tickets...)
	if b.CheckInTime != nil {
		t := *b.CheckInTime
		cp.CheckInTime = &t
	}
	if b.RefundAmount != nil {
		a := *b.RefundAmount
		cp.RefundAmount = &a
	}
	if b.RefundDate != nil {
		t := *b.RefundDate
		cp.RefundDate = &t
	}
	return &cp
}
