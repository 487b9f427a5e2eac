package events

import (
	"sync/atomic"

	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Delivery is asynchronous; Published counts every event handed to the
// dispatcher so a consumer can tell when it has caught up.
type Bus struct {
	dispatcher *event.Dispatcher
	published  atomic.Int64
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(TranscodeProgressEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case TranscodeStartedEvent:
		event.Publish(b.dispatcher, e)
	case PreEncodeEvent:
		event.Publish(b.dispatcher, e)
	case TranscodeProgressEvent:
		event.Publish(b.dispatcher, e)
	case TranscodeCompletedEvent:
		event.Publish(b.dispatcher, e)
	case TranscodeFailedEvent:
		event.Publish(b.dispatcher, e)
	case BlackDetectCompletedEvent:
		event.Publish(b.dispatcher, e)
	default:
		return
	}
	b.published.Add(1)
}

// Published returns the number of events published so far.
func (b *Bus) Published() int64 {
	return b.published.Load()
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e TranscodeProgressEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(TranscodeStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PreEncodeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TranscodeProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TranscodeCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TranscodeFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BlackDetectCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeToChannel bridges a callback subscription for T to a channel.
// Sends block, so the receiver must keep draining ch until it unsubscribes.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- Event) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		ch <- e
	})
}

// SubscribeAll forwards every event type to ch.
func SubscribeAll(bus *Bus, ch chan<- Event) func() {
	unsubs := []func(){
		SubscribeToChannel[TranscodeStartedEvent](bus, ch),
		SubscribeToChannel[PreEncodeEvent](bus, ch),
		SubscribeToChannel[TranscodeProgressEvent](bus, ch),
		SubscribeToChannel[TranscodeCompletedEvent](bus, ch),
		SubscribeToChannel[TranscodeFailedEvent](bus, ch),
		SubscribeToChannel[BlackDetectCompletedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
