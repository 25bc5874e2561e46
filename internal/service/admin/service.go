package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/repository"
	"github.com/kirinyoku/eventhub/internal/service/notify"
	"github.com/kirinyoku/eventhub/internal/uow"
	"github.com/shopspring/decimal"
)

const defaultMaxPerOrder = 10

// ErrEventConflict is returned when two ticket types of one event share a name.
var ErrEventConflict = errors.New("duplicate ticket type")

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	notifier *notify.Notifier
}

func New(store repository.Store, notifier *notify.Notifier) *Service {
	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		notifier: notifier,
	}
}

type TicketTypeInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	MaxPerOrder int
}

type CreateEventInput struct {
	OrganizerID int64
	Title       string
	StartsAt    time.Time
	Status      domain.EventStatus
	IsPublished bool
	TicketTypes []TicketTypeInput
}

// CreateEvent stores an event and its ticket types with zero sales.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: event header and ticket catalogue. Status defaults to draft and
//     MaxPerOrder to 10.
//
// Returns:
//   - *domain.Event: the created event as stored.
//   - error: domain.ErrValidation or admin.ErrEventConflict.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	const op = "service.admin.CreateEvent"

	event, err := buildEvent(in)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var created *domain.Event

	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		id, err := s.store.Events().Create(ctx, event)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: %w", ErrEventConflict, domain.ValidationError{Field: "ticket_types", Reason: "names must be unique"})
			}
			return repository.Translate(err)
		}

		created, err = s.store.Events().Get(ctx, id)
		if err != nil {
			return repository.Translate(err)
		}

		after(func(ctx context.Context) {
			s.notifier.InventoryChanged(ctx, id, "event.created")
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return created, nil
}

func buildEvent(in CreateEventInput) (*domain.Event, error) {
	if in.OrganizerID <= 0 {
		return nil, domain.ValidationError{Field: "organizer_id", Reason: "must be positive"}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ValidationError{Field: "title", Reason: "title is required"}
	}

	if in.StartsAt.IsZero() {
		return nil, domain.ValidationError{Field: "starts_at", Reason: "start time is required"}
	}

	status := in.Status
	if status == "" {
		status = domain.EventDraft
	}
	if !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	if len(in.TicketTypes) == 0 {
		return nil, domain.ValidationError{Field: "ticket_types", Reason: "at least one ticket type is required"}
	}

	types := make([]domain.TicketType, 0, len(in.TicketTypes))
	seen := make(map[string]struct{}, len(in.TicketTypes))

	for _, t := range in.TicketTypes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, domain.ValidationError{Field: "ticket_types.name", Reason: "name is required"}
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %w", ErrEventConflict, domain.ValidationError{Field: "ticket_types.name", Reason: "duplicate " + name})
		}
		seen[name] = struct{}{}

		if t.Price.IsNegative() {
			return nil, domain.ValidationError{Field: "ticket_types.price", Reason: "price cannot be negative"}
		}
		if t.Quantity < 1 {
			return nil, domain.ValidationError{Field: "ticket_types.quantity", Reason: "quantity must be at least 1"}
		}

		maxPerOrder := t.MaxPerOrder
		if maxPerOrder == 0 {
			maxPerOrder = defaultMaxPerOrder
		}
		if maxPerOrder < 1 {
			return nil, domain.ValidationError{Field: "ticket_types.max_per_order", Reason: "must be at least 1"}
		}

		types = append(types, domain.TicketType{
			Name:        name,
			Description: strings.TrimSpace(t.Description),
			Price:       t.Price.Round(2),
			Quantity:    t.Quantity,
			MaxPerOrder: maxPerOrder,
		})
	}

	return &domain.Event{
		OrganizerID: in.OrganizerID,
		Title:       title,
		StartsAt:    in.StartsAt.UTC(),
		Status:      status,
		IsPublished: in.IsPublished,
		TicketTypes: types,
	}, nil
}

// SetEventStatus writes the bookability gate owned by the approval workflow.
//
// Returns:
//   - error: domain.ErrValidation for an unknown status, domain.ErrNotFound if
//     the event does not exist.
func (s *Service) SetEventStatus(ctx context.Context, eventID int64, status domain.EventStatus, published bool) error {
	const op = "service.admin.SetEventStatus"

	if !status.Valid() {
		return fmt.Errorf("%s:%w", op, domain.ValidationError{Field: "status", Reason: "unknown status"})
	}

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.Events().SetStatus(ctx, eventID, status, published); err != nil {
			return repository.Translate(err)
		}

		after(func(ctx context.Context) {
			s.notifier.InventoryChanged(ctx, eventID, "event.status")
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
