package events

import "sync"

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 100

// Event is a generic type placeholder for any event type
type Event any

// Subscriber is a channel that transports events of type T
type Subscriber[T Event] chan T

// EventBus fans events out to subscribers without ever blocking the
// publisher. A subscriber whose buffer is full misses the event.
type EventBus[T Event] struct {
	subscribers map[Subscriber[T]]struct{}
	buffer      int
	dropped     func(T)
	mutex       sync.RWMutex
}

func NewEventBus[T Event]() *EventBus[T] {
	return &EventBus[T]{
		subscribers: make(map[Subscriber[T]]struct{}),
		buffer:      DefaultBuffer,
	}
}

// OnDrop registers a callback invoked for every event a full subscriber
// misses. It must not block.
func (bus *EventBus[T]) OnDrop(fn func(T)) {
	bus.mutex.Lock()
	bus.dropped = fn
	bus.mutex.Unlock()
}

func (bus *EventBus[T]) Subscribe() Subscriber[T] {
	ch := make(Subscriber[T], bus.buffer)
	bus.mutex.Lock()
	bus.subscribers[ch] = struct{}{}
	bus.mutex.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Calling it twice is a no-op.
func (bus *EventBus[T]) Unsubscribe(ch Subscriber[T]) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	if _, ok := bus.subscribers[ch]; !ok {
		return
	}
	delete(bus.subscribers, ch)
	close(ch)
}

// Publish broadcasts an event of type T to all registered subscribers
func (bus *EventBus[T]) Publish(event T) {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	for subscriber := range bus.subscribers {
		select {
		case subscriber <- event:
		default:
			if bus.dropped != nil {
				bus.dropped(event)
			}
		}
	}
}

// Len returns the number of active subscribers.
func (bus *EventBus[T]) Len() int {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	return len(bus.subscribers)
}
