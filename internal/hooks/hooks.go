// Package hooks provides ordered, synchronous observer registration for the
// engine and router events.
package hooks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/irccore/internal/logging"
)

// Handler handles one event payload.
// Returning an error logs the failure but does not stop processing.
type Handler[P any] func(p P) error

// Manager manages handler registrations and dispatches events of payload
// type P.
type Manager[P any] struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler[P]
	log      *logging.Logger
}

type namedHandler[P any] struct {
	name    string
	handler Handler[P]
}

// NewManager creates a hook manager.
func NewManager[P any](log *logging.Logger) *Manager[P] {
	return &Manager[P]{
		handlers: make(map[string][]namedHandler[P]),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for Off and for logging.
func (m *Manager[P]) On(event, name string, handler Handler[P]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler[P]{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAll registers the same handler for every event in events.
func (m *Manager[P]) OnAll(events []string, name string, handler Handler[P]) {
	for _, e := range events {
		m.On(e, name, handler)
	}
}

// Off removes all handlers with the given name from the event.
func (m *Manager[P]) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler[P], 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Errors and panics are logged and do not prevent
// subsequent handlers from running.
func (m *Manager[P]) Emit(event string, p P) {
	m.mu.RLock()
	handlers := make([]namedHandler[P], len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := m.call(h, p); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}

func (m *Manager[P]) call(h namedHandler[P], p P) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.handler(p)
}

// Count returns the number of handlers registered for an event.
func (m *Manager[P]) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the sorted list of events that have at least one handler.
func (m *Manager[P]) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	sort.Strings(events)
	return events
}
