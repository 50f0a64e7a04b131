// Package holdings derives current positions from the transaction ledger
// using the weighted-average-cost method.
package holdings

import (
	"github.com/pgatica/financefolio/internal/modules/ledger"
)

// Holding represents the aggregate position for one symbol
type Holding struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	InvestedCapital float64 `json:"invested_capital"`
	AverageCost     float64 `json:"average_cost"`
}

// Aggregate folds the transaction list into per-symbol holdings.
// Buys add to quantity and invested capital; sells subtract quantity only,
// so invested capital tracks total capital deployed rather than current
// cost basis. Symbols whose net quantity is zero or negative are dropped.
// The result is independent of transaction order.
func Aggregate(transactions []ledger.Transaction) map[string]Holding {
	type running struct {
		quantity  float64
		invested  float64
		boughtQty float64
	}

	totals := make(map[string]*running)
	for _, tx := range transactions {
		r := totals[tx.Symbol]
		if r == nil {
			r = &running{}
			totals[tx.Symbol] = r
		}

		switch tx.Side {
		case ledger.SideBuy:
			r.quantity += tx.Quantity
			r.invested += tx.Quantity * tx.UnitPrice
			r.boughtQty += tx.Quantity
		case ledger.SideSell:
			r.quantity -= tx.Quantity
		}
	}

	result := make(map[string]Holding)
	for symbol, r := range totals {
		if r.quantity <= 0 {
			continue
		}

		averageCost := 0.0
		if r.boughtQty > 0 {
			averageCost = r.invested / r.boughtQty
		}

		result[symbol] = Holding{
			Symbol:          symbol,
			Quantity:        r.quantity,
			InvestedCapital: r.invested,
			AverageCost:     averageCost,
		}
	}

	return result
}
