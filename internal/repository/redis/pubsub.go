package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventsPubSub fans out inventory change notices to other API instances so
// they can drop their local view of an event.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelEventsChanged(),
		now:     time.Now,
	}
}

type eventChangedMsg struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
	Reason  string `json:"reason,omitempty"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *EventsPubSub) PublishEventChanged(ctx context.Context, eventID int64, reason string) error {
	const op = "redis.EventsPubSub.PublishEventChanged"

	b, err := json.Marshal(eventChangedMsg{
		Type:    "event_changed",
		EventID: eventID,
		Reason:  reason,
		TsUnix:  p.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, string(b)).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Subscribe calls handler for every notice until ctx is done.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, eventID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev eventChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil && ev.EventID != 0 {
				handler(ctx, ev.EventID)
			}
		}
	}
}
