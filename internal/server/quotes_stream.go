package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/pgatica/financefolio/internal/events"
)

// QuotesStreamHandler streams quote and ledger events to websocket clients.
type QuotesStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewQuotesStreamHandler creates a new quote event stream handler
func NewQuotesStreamHandler(eventBus *events.Bus, log zerolog.Logger) *QuotesStreamHandler {
	return &QuotesStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "quotes_stream").Logger(),
	}
}

// streamedTypes are the event types forwarded to clients by default
var streamedTypes = []events.EventType{
	events.QuoteUpdated,
	events.QuoteFetchFailed,
	events.TransactionAdded,
	events.TransactionRemoved,
	events.LedgerReset,
	events.SystemStatusChanged,
}

// ServeHTTP handles GET /api/quotes/stream websocket upgrades.
// An optional ?types=A,B query restricts the forwarded event types.
func (h *QuotesStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	var allowedTypes map[events.EventType]bool
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	h.log.Info().Msg("Client connected to quote stream")

	// Buffered channel so a slow client drops events instead of blocking
	// the bus handlers
	eventChan := make(chan *events.Event, 100)
	eventHandler := func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	// Per-connection subscriptions are removed again on disconnect
	var unsubscribes []func()
	if allowedTypes == nil {
		for _, eventType := range streamedTypes {
			unsubscribes = append(unsubscribes, h.eventBus.Subscribe(eventType, eventHandler))
		}
	} else {
		for eventType := range allowedTypes {
			unsubscribes = append(unsubscribes, h.eventBus.Subscribe(eventType, eventHandler))
		}
	}
	defer func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}()

	ctx := r.Context()

	if err := h.writeMessage(ctx, conn, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to quote event stream",
	}); err != nil {
		return
	}

	// Periodic ping keeps intermediaries from closing an idle connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from quote stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			frame := &events.EventWithData{
				Type:      event.Type,
				Timestamp: event.Timestamp,
				Module:    event.Module,
				Data:      &events.GenericEventData{Type: event.Type, Data: event.Data},
			}
			if err := h.writeMessage(ctx, conn, frame); err != nil {
				h.log.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Ping failed, closing stream")
				return
			}
		}
	}
}

// writeMessage marshals and sends one JSON message to the client
func (h *QuotesStreamHandler) writeMessage(ctx context.Context, conn *websocket.Conn, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal stream message")
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}
