package pkg

// EventBus is a buffered channel of events that never blocks the publisher.
type EventBus[T any] chan T

// NewEventBus creates a new EventBus
func NewEventBus[T any](size int) EventBus[T] {
	return make(chan T, size)
}

// Publish hands e to the bus and reports false when the buffer is full and e was dropped.
func (bus EventBus[T]) Publish(e T) bool {
	select {
	case bus <- e:
		return true
	default:
		return false
	}
}

// Drain returns the events currently buffered without waiting for more.
func (bus EventBus[T]) Drain() (events []T) {
	for {
		select {
		case e := <-bus:
			events = append(events, e)
		default:
			return
		}
	}
}
