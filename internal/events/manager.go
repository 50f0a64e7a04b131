package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager wraps the Bus with structured logging for every emitted event.
// Modules hold a Manager rather than the raw Bus so emissions are always
// observable in the logs.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("component", "event_manager").Logger(),
	}
}

// Bus returns the underlying event bus for subscription
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit publishes an event with untyped map data
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	m.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Msg("Emitting event")

	m.bus.Emit(eventType, module, data)
}

// EmitTyped publishes an event carrying a typed payload. The payload is
// flattened to a map so all subscribers see the same envelope shape.
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	m.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Msg("Emitting typed event")

	m.bus.Emit(eventType, module, toMap(data))
}

// EmitError publishes an ErrorOccurred event and logs the error
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.log.Error().
		Err(err).
		Str("module", module).
		Msg("Emitting error event")

	m.bus.Emit(ErrorOccurred, module, toMap(&ErrorEventData{
		Error:   err.Error(),
		Context: context,
	}))
}

// toMap converts typed event data into the map form the bus delivers.
// Falls back to an empty map if marshaling fails (should not happen for
// the concrete types in this package).
func toMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return map[string]interface{}{}
	}

	result := make(map[string]interface{})
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]interface{}{}
	}

	return result
}
