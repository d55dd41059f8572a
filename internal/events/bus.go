package events

import (
	"sync"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/logger"
)

// Handler reacts to a recorded event.
type Handler func(event models.SystemEvent)

// Sink is a secondary, best-effort event store (time-series backend, live
// feed). The Postgres log written by the event service remains the source
// of truth; sink failures are logged and never propagate.
type Sink interface {
	Write(event models.SystemEvent) error
}

// Bus routes a recorded event to its subscribed handlers and sinks.
// Dispatch runs synchronously after the durable append succeeds, but a
// failing handler never rolls back the recorded event: panics are recovered
// and logged.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[models.EventType][]Handler
	anyHandlers []Handler
	sinks       []Sink
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[models.EventType][]Handler),
	}
}

// AddSink registers a secondary event store.
func (b *Bus) AddSink(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType models.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	logger.Debug("Event handler subscribed", map[string]interface{}{
		"event_type": eventType,
	})
}

// SubscribeAll registers a handler invoked for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.anyHandlers = append(b.anyHandlers, handler)
}

// Dispatch routes an already-persisted event to sinks and handlers.
func (b *Bus) Dispatch(event models.SystemEvent) {
	b.mu.RLock()
	sinks := b.sinks
	handlers := append([]Handler{}, b.handlers[models.EventType(event.EventType)]...)
	handlers = append(handlers, b.anyHandlers...)
	b.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Write(event); err != nil {
			logger.Error("Failed to write event to sink", err, map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.EventType,
			})
		}
	}

	for _, handler := range handlers {
		b.invoke(handler, event)
	}
}

func (b *Bus) invoke(handler Handler, event models.SystemEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event handler panicked", nil, map[string]interface{}{
				"event_type": event.EventType,
				"panic":      r,
			})
		}
	}()
	handler(event)
}
