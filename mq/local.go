package mq

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusFull reports an event dropped because the subscriber is behind.
var ErrBusFull = errors.New("event bus full")

// LocalBus is an in-process bus for single-node deployments without
// Redis. Publish never waits on the subscriber: with the buffer full the
// event is dropped and ErrBusFull returned.
type LocalBus struct {
	ch chan Event
}

func NewLocalBus(buffer int) *LocalBus {
	return &LocalBus{ch: make(chan Event, buffer)}
}

func (b *LocalBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.ch <- ev:
		return nil
	default:
		return ErrBusFull
	}
}

func (b *LocalBus) Subscribe(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.ch:
			h(ctx, ev)
		}
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
