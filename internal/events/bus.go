// Package events provides the in-process event bus that connects modules
// without direct coupling. Services emit events; interested parties subscribe.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of event
type EventType string

const (
	// TransactionAdded fires after a transaction is appended to the ledger
	TransactionAdded EventType = "TransactionAdded"
	// TransactionRemoved fires after a transaction is deleted from the ledger
	TransactionRemoved EventType = "TransactionRemoved"
	// LedgerReset fires after the entire ledger is cleared
	LedgerReset EventType = "LedgerReset"
	// QuoteUpdated fires when a fresh quote lands in the cache
	QuoteUpdated EventType = "QuoteUpdated"
	// QuoteFetchFailed fires when a provider fetch fails and the symbol is evicted
	QuoteFetchFailed EventType = "QuoteFetchFailed"
	// SystemStatusChanged fires on periodic system status updates
	SystemStatusChanged EventType = "SystemStatusChanged"
	// ErrorOccurred fires for errors worth surfacing to observers
	ErrorOccurred EventType = "ErrorOccurred"
)

// Event is the envelope delivered to subscribers
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Module    string                 `json:"module"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Handler is a subscriber callback. Handlers must not block; long work
// should be handed off to a goroutine by the subscriber.
type Handler func(event *Event)

// subscription pairs a handler with an id so it can be removed later
type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a simple publish/subscribe event bus.
// Emit delivers to subscribers asynchronously so publishers never block.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[EventType][]subscription
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]subscription),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type. The returned function
// removes the handler again; long-lived subscribers may discard it, but
// per-connection subscribers (the websocket stream) must call it on
// disconnect or their handlers leak.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, sub := range subs {
			if sub.id == id {
				b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit publishes an event to all subscribers of its type.
// Each handler runs in its own goroutine; a panicking handler is
// recovered and logged so it cannot take down the process.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Module:    module,
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[eventType]))
	for _, sub := range b.subscribers[eventType] {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error().
						Str("event_type", string(eventType)).
						Interface("panic", r).
						Msg("Event handler panicked")
				}
			}()
			h(event)
		}()
	}
}

// SubscriberCount returns the number of handlers registered for a type
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}
