package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch. Events are dropped
// while ch is full so a slow reader never blocks a publisher.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeJobEvents forwards every probe, encode and preview event into ch
// and returns the function that removes all of the subscriptions.
func SubscribeJobEvents(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[ProbeCompletedEvent](bus, ch),
		SubscribeToChannel[EncodeStartedEvent](bus, ch),
		SubscribeToChannel[EncodeProgressEvent](bus, ch),
		SubscribeToChannel[EncodeFinishedEvent](bus, ch),
		SubscribeToChannel[PreviewFrameEvent](bus, ch),
		SubscribeToChannel[PreviewStoppedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
