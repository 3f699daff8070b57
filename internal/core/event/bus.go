// Package event carries read-only lifecycle notifications out of the
// simulation to passive observers (audio, UI, scripting). Observers never
// participate in tick phases; events emitted during tick N are delivered after
// that tick's destruction flush.
package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Emit appends to the back buffer;
// SwapAndDispatch (called by the logic driver after the destruction flush)
// rotates the buffers and delivers everything emitted during the tick.
// Double buffering means a handler that emits does not extend the batch it is
// being called from.
type Bus struct {
	mu       sync.Mutex // guards handler registration only
	pending  map[reflect.Type][]any
	draining map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		pending:  make(map[reflect.Type][]any),
		draining: make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for delivery at the end of the current tick. Must be
// called from the simulation goroutine.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.pending[t] = append(b.pending[t], ev)
}

// Subscribe registers a handler for events of type T. Handlers run on the
// simulation goroutine.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapAndDispatch rotates the buffers and delivers every event queued during
// the tick to its subscribers.
func (b *Bus) SwapAndDispatch() {
	b.pending, b.draining = b.draining, b.pending
	for t, events := range b.draining {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				// Safe: Subscribe and Emit key handlers and events by the
				// same concrete type.
				reflect.ValueOf(h).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
		b.draining[t] = b.draining[t][:0]
	}
}
