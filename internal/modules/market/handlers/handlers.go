// Package handlers provides the quote gateway: thin HTTP endpoints that fan
// out to the quote provider for symbols the caller asks about, independent
// of the portfolio cache.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// Handler handles market quote HTTP requests
type Handler struct {
	provider quotes.Provider
	log      zerolog.Logger
}

// NewHandler creates a new market quote handler
func NewHandler(provider quotes.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		log:      log.With().Str("handler", "market").Logger(),
	}
}

// batchQuote is the per-symbol payload of the batch endpoint
type batchQuote struct {
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Name   string  `json:"name"`
}

// HandleGetPrice handles GET /api/price/{symbol}.
// No data is a 404; a provider failure is a 500.
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	quote, err := h.provider.GetQuote(r.Context(), symbol)
	if errors.Is(err, quotes.ErrNoData) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "No data for symbol",
		})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Quote provider failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to fetch quote",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": quote.Symbol,
		"price":  quote.Price,
	})
}

// HandleGetPrices handles GET /api/prices?symbols=A,B,C.
// One concurrent provider call per symbol; symbols that fail or carry no
// data are omitted from the result rather than failing the batch.
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")

	symbols := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}

	if len(symbols) == 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Missing symbols parameter",
		})
		return
	}

	result := make(map[string]batchQuote)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			quote, err := h.provider.GetQuote(r.Context(), sym)
			if err != nil {
				if !errors.Is(err, quotes.ErrNoData) {
					h.log.Warn().Err(err).Str("symbol", sym).Msg("Batch quote fetch failed")
				}
				return
			}

			mu.Lock()
			result[sym] = batchQuote{
				Price:  quote.Price,
				Change: quote.ChangePercent,
				Name:   quote.DisplayName,
			}
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
