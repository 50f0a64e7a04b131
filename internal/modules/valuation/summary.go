// Package valuation combines holdings with cached quotes into per-position
// and aggregate profit/loss figures.
package valuation

import (
	"sort"

	"github.com/pgatica/financefolio/internal/modules/holdings"
	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// Position is the valuation view of one holding. Market-value fields are
// nil when no quote is cached for the symbol.
type Position struct {
	Symbol          string   `json:"symbol"`
	DisplayName     string   `json:"display_name,omitempty"`
	Quantity        float64  `json:"quantity"`
	InvestedCapital float64  `json:"invested_capital"`
	AverageCost     float64  `json:"average_cost"`
	Price           *float64 `json:"price,omitempty"`
	ChangePercent   *float64 `json:"change_percent,omitempty"`
	MarketValue     *float64 `json:"market_value,omitempty"`
	ProfitLoss      *float64 `json:"profit_loss,omitempty"`
	ProfitLossPct   *float64 `json:"profit_loss_pct,omitempty"`
}

// Totals aggregates the portfolio. Invested covers every holding; the
// market-value figures cover priced holdings only.
type Totals struct {
	Invested      float64 `json:"invested"`
	MarketValue   float64 `json:"market_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// Summary is the full valuation of the portfolio at one point in time
type Summary struct {
	Positions []Position `json:"positions"`
	Totals    Totals     `json:"totals"`
	HasPrices bool       `json:"has_prices"`
}

// Summarize combines holdings and cached quotes. Pure: no fetching, no
// mutation; it reports exactly the current cache state. Positions are
// sorted by symbol for stable output.
func Summarize(held map[string]holdings.Holding, priced map[string]quotes.Quote) Summary {
	positions := make([]Position, 0, len(held))
	totals := Totals{}
	pricedInvested := 0.0
	hasPrices := false

	for symbol, holding := range held {
		position := Position{
			Symbol:          symbol,
			Quantity:        holding.Quantity,
			InvestedCapital: holding.InvestedCapital,
			AverageCost:     holding.AverageCost,
		}
		totals.Invested += holding.InvestedCapital

		if quote, ok := priced[symbol]; ok {
			hasPrices = true

			price := quote.Price
			change := quote.ChangePercent
			marketValue := holding.Quantity * quote.Price
			profitLoss := marketValue - holding.InvestedCapital

			position.DisplayName = quote.DisplayName
			position.Price = &price
			position.ChangePercent = &change
			position.MarketValue = &marketValue
			position.ProfitLoss = &profitLoss

			if holding.InvestedCapital > 0 {
				pct := profitLoss / holding.InvestedCapital * 100
				position.ProfitLossPct = &pct
			}

			totals.MarketValue += marketValue
			pricedInvested += holding.InvestedCapital
		}

		positions = append(positions, position)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	// Total P&L covers priced holdings only; unpriced capital has no
	// current value to compare against.
	totals.ProfitLoss = totals.MarketValue - pricedInvested
	if pricedInvested > 0 {
		totals.ProfitLossPct = totals.ProfitLoss / pricedInvested * 100
	}

	return Summary{
		Positions: positions,
		Totals:    totals,
		HasPrices: hasPrices,
	}
}
