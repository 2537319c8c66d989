// internal/queue/queue.go
package queue

import (
	"sync"
)

// Bus is the fan-out primitive the collaboration hub publishes room
// broadcasts on. Delivery is fire-and-forget: live updates are ephemeral
// and a missed message is never replayed.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
}

// InMemoryBus is the single-process bus used by default.
type InMemoryBus struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte)
}

// NewInMemoryBus creates a new bus
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]func(payload []byte)),
	}
}

// Publish sends a message to all subscribers of the topic. No subscribers
// is not an error: a server with no peer instances simply drops the copy.
func (b *InMemoryBus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	handlers := b.handlers[topic]
	b.mu.Unlock()

	for _, handler := range handlers {
		// Copy per handler so no subscriber can mutate another's view.
		msg := make([]byte, len(payload))
		copy(msg, payload)
		go handler(msg)
	}
	return nil
}

// Subscribe adds a handler for a topic
func (b *InMemoryBus) Subscribe(topic string, handler func(payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

var _ Bus = (*InMemoryBus)(nil)
