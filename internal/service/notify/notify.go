// Package notify fans out committed booking changes: cached event views are
// dropped, other instances are told over pubsub and a domain event goes to the
// bus. Every sink is optional and a failing sink is only logged.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/kirinyoku/eventhub/internal/events"
)

type Cache interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

type PubSub interface {
	PublishEventChanged(ctx context.Context, eventID int64, reason string) error
}

type Bus interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Notifier struct {
	log    *slog.Logger
	cache  Cache
	pubsub PubSub
	bus    Bus
	now    func() time.Time
}

type Option func(*Notifier)

func WithCache(c Cache) Option   { return func(n *Notifier) { n.cache = c } }
func WithPubSub(p PubSub) Option { return func(n *Notifier) { n.pubsub = p } }
func WithBus(b Bus) Option       { return func(n *Notifier) { n.bus = b } }

func New(log *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{log: log, now: time.Now}
	for _, o := range opts {
		o(n)
	}
	return n
}

// InventoryChanged reports that the counters of an event moved.
func (n *Notifier) InventoryChanged(ctx context.Context, eventID int64, reason string) {
	if n == nil {
		return
	}

	if n.cache != nil {
		if err := n.cache.InvalidateEvent(ctx, eventID); err != nil {
			n.log.Warn("cache invalidation failed", slog.Int64("event_id", eventID), slog.Any("err", err))
		}
	}

	if n.pubsub != nil {
		if err := n.pubsub.PublishEventChanged(ctx, eventID, reason); err != nil {
			n.log.Warn("event change broadcast failed", slog.Int64("event_id", eventID), slog.Any("err", err))
		}
	}
}

// BookingChanged publishes the booking's new state under routingKey.
func (n *Notifier) BookingChanged(ctx context.Context, routingKey string, b *domain.Booking) {
	if n == nil || n.bus == nil {
		return
	}

	msg := events.NewBookingMessage(routingKey, b, n.now().UTC())
	if err := n.bus.Publish(ctx, routingKey, msg); err != nil {
		n.log.Warn("domain event publish failed",
			slog.String("routing_key", routingKey),
			slog.String("booking_id", b.ID.String()),
			slog.Any("err", err),
		)
	}
}
