// Package ledger provides the transaction ledger: the user-entered record of
// portfolio buys and sells, persisted as a single document per ledger key.
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Side represents the direction of a transaction
type Side string

const (
	// SideBuy represents a purchase
	SideBuy Side = "BUY"
	// SideSell represents a disposal
	SideSell Side = "SELL"
)

// dateLayout is the accepted transaction date format
const dateLayout = "2006-01-02"

// Transaction represents a single user-entered portfolio transaction
type Transaction struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Broker    string    `json:"broker,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationError reports every field that failed validation
type ValidationError struct {
	Fields []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction fields: %s", strings.Join(e.Fields, ", "))
}

// Normalize trims whitespace and upper-cases the symbol and side.
// Called before Validate so user input like "aapl" is accepted.
func (t *Transaction) Normalize() {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.Side = Side(strings.ToUpper(strings.TrimSpace(string(t.Side))))
	t.Date = strings.TrimSpace(t.Date)
	t.Broker = strings.TrimSpace(t.Broker)
	t.Note = strings.TrimSpace(t.Note)
}

// Validate checks the transaction and returns a *ValidationError naming
// every offending field, or nil if the transaction is valid.
func (t Transaction) Validate() error {
	var fields []string

	if t.Symbol == "" {
		fields = append(fields, "symbol")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		fields = append(fields, "side")
	}
	if t.Quantity <= 0 {
		fields = append(fields, "quantity")
	}
	if t.UnitPrice <= 0 {
		fields = append(fields, "unit_price")
	}
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		fields = append(fields, "date")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
