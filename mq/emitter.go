package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Channel is the Redis pub/sub channel carrying social events.
const Channel = "social-events"

type EventType string

const (
	EventFollowed   EventType = "followed"
	EventUnfollowed EventType = "unfollowed"
	EventLiked      EventType = "liked"
	EventCommented  EventType = "commented"
	EventPosted     EventType = "posted"
)

// Event is one social action. Actor did Type to Target (a username);
// PostID is set for post events.
type Event struct {
	Type   EventType `json:"type"`
	Actor  string    `json:"actor"`
	Target string    `json:"target"`
	PostID string    `json:"post_id,omitempty"`
	Text   string    `json:"text,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, ev Event)

type Subscriber interface {
	Subscribe(ctx context.Context, h Handler) error
}

// RedisBus publishes events as JSON on a Redis channel.
type RedisBus struct {
	client  *redis.Client
	channel string
	log     *logrus.Entry
}

func NewRedisBus(client *redis.Client, log *logrus.Entry) *RedisBus {
	return &RedisBus{client: client, channel: Channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	b.log.WithFields(logrus.Fields{"type": ev.Type, "actor": ev.Actor, "target": ev.Target}).Debug("event published")
	return nil
}

// Subscribe delivers events to h until ctx is cancelled. Malformed
// payloads are logged and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	ch := sub.Channel()
	b.log.WithField("channel", b.channel).Info("listening for events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.WithError(err).Warn("failed to parse event")
				continue
			}
			h(ctx, ev)
		}
	}
}
