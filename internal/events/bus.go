package events

import (
	"github.com/kelindar/event"
)

// Bus fans events out to typed subscribers.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to the subscribers of its concrete type. A nil bus
// drops the event.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case ProbeCompletedEvent:
		event.Publish(b.dispatcher, e)
	case EncodeStartedEvent:
		event.Publish(b.dispatcher, e)
	case EncodeProgressEvent:
		event.Publish(b.dispatcher, e)
	case EncodeFinishedEvent:
		event.Publish(b.dispatcher, e)
	case PreviewFrameEvent:
		event.Publish(b.dispatcher, e)
	case PreviewStoppedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler, whose parameter type selects the events it
// receives, and returns the function that removes it.
// Usage: unsub := bus.Subscribe(func(e EncodeProgressEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ProbeCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EncodeStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EncodeProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EncodeFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PreviewFrameEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PreviewStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
