// Package handlers provides HTTP handlers for transaction ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/modules/ledger"
)

// Handler handles transaction ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new transaction ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// createTransactionRequest is the POST body for adding a transaction
type createTransactionRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Date      string  `json:"date"`
	Broker    string  `json:"broker,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// HandleListTransactions handles GET /api/transactions
// Transactions are returned most recent first for display.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := h.service.List()

	sort.SliceStable(transactions, func(i, j int) bool {
		if transactions[i].Date != transactions[j].Date {
			return transactions[i].Date > transactions[j].Date
		}
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"transactions": transactions,
			"count":        len(transactions),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreateTransaction handles POST /api/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid request body",
		})
		return
	}

	candidate := ledger.Transaction{
		Symbol:    req.Symbol,
		Side:      ledger.Side(req.Side),
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Date:      req.Date,
		Broker:    req.Broker,
		Note:      req.Note,
	}

	created, err := h.service.Add(candidate)
	if err != nil {
		var validationErr *ledger.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "Validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.log.Error().Err(err).Msg("Failed to add transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to add transaction",
		})
		return
	}

	response := map[string]interface{}{
		"data": created,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleDeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	err := h.service.Remove(id)
	if errors.Is(err, ledger.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "Transaction not found",
		})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to remove transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to remove transaction",
		})
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"id":      id,
			"deleted": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleResetLedger handles DELETE /api/transactions
func (h *Handler) HandleResetLedger(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.Reset()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reset ledger")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to reset ledger",
		})
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"removed": removed,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
