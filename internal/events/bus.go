package events

import (
	"log"
	"sync"
	"time"
)

// Handler is a callback invoked when a matching event is published.
type Handler func(Event)

// Bus is a thread-safe, in-process publish/subscribe event bus. State
// changes (alert created, alert resolved, sensor provisioned) are published
// here after they are durable; notification dispatch and the live dashboard
// feed subscribe.
type Bus struct {
	mu       sync.RWMutex
	byType   map[EventType][]Handler
	wildcard []Handler
}

// NewBus creates a ready-to-use event bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[EventType][]Handler)}
}

// Subscribe registers a handler for the given event types.
// If no types are provided the handler receives every event.
func (b *Bus) Subscribe(handler Handler, types ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, t := range types {
		b.byType[t] = append(b.byType[t], handler)
	}
}

// Publish sends an event to all matching subscribers. The timestamp is set
// automatically if zero. Handlers run synchronously in the caller's
// goroutine; a panicking handler is isolated so the others still run.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.wildcard)+len(b.byType[e.Type]))
	handlers = append(handlers, b.wildcard...)
	handlers = append(handlers, b.byType[e.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("events: subscriber panic on %s: %v", e.Type, r)
				}
			}()
			h(e)
		}()
	}
}
