package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/price/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		h.HandleGetPrice(w, r, symbol)
	})
	r.Get("/prices", h.HandleGetPrices)
}
