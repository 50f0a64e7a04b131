// Package quotes provides the market quote cache and the provider boundary
// behind it. A provider fetches live quotes; the cache deduplicates in-flight
// fetches and holds the latest known quote per symbol.
package quotes

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned by providers when a symbol exists but carries no
// usable price, or is unknown entirely.
var ErrNoData = errors.New("no quote data for symbol")

// Quote represents the latest known market data for one symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	DisplayName   string    `json:"display_name,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Provider fetches live quotes from an external market data source
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}
