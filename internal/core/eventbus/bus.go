// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within taskdeck.
package eventbus

import (
	"context"
	"sync"
)

// Event names a bus event type.
type Event string

// envelope pairs an event with its payload for the dispatch loop.
type envelope struct {
	event   Event
	payload any
}

// EventBus delivers typed events to subscribers on a single dispatch
// goroutine. Publishes are non-blocking: events are dropped (and the
// OnDrop hooks fired) when the buffer is full.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates an event bus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: map[Event][]func(any){},
	}
}

// Start dispatches events to subscribers until ctx is canceled. Subscriber
// panics are recovered and reported via the OnPanic hooks.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.deliver(env)
		}
	}
}

func (bus *EventBus) deliver(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

// subscribe registers a raw subscriber. The typed Subscribe* methods
// wrap this with a payload type assertion.
func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}
