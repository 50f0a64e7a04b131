// Package yahoo provides a native Yahoo Finance quote client using the
// public v8 chart endpoint. No API key required.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// userAgent identifies this client to Yahoo; requests without one are rejected
const userAgent = "financefolio/1.0"

// Client fetches quotes from the Yahoo Finance v8 chart endpoint
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://query2.finance.yahoo.com/v8/finance/chart",
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse mirrors the subset of the v8 chart payload we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current quote for a symbol.
// Returns quotes.ErrNoData when Yahoo does not know the symbol or the
// response carries no usable price.
func (c *Client) GetQuote(ctx context.Context, symbol string) (quotes.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return quotes.Quote{}, quotes.ErrNoData
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return quotes.Quote{}, fmt.Errorf("failed to build request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return quotes.Quote{}, fmt.Errorf("quote request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	// Yahoo answers 404 for symbols it does not know
	if resp.StatusCode == http.StatusNotFound {
		return quotes.Quote{}, quotes.ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return quotes.Quote{}, fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return quotes.Quote{}, fmt.Errorf("failed to decode quote response for %s: %w", symbol, err)
	}

	if len(raw.Chart.Result) == 0 {
		return quotes.Quote{}, quotes.ErrNoData
	}

	result := raw.Chart.Result[0]
	price := result.Meta.RegularMarketPrice

	// Fallback: last non-zero close when meta carries no price
	if price <= 0 && len(result.Timestamp) > 0 && len(result.Indicators.Quote) > 0 &&
		len(result.Indicators.Quote[0].Close) == len(result.Timestamp) {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				price = closes[i]
				break
			}
		}
	}

	if price <= 0 {
		return quotes.Quote{}, quotes.ErrNoData
	}

	changePercent := 0.0
	if result.Meta.ChartPreviousClose > 0 {
		changePercent = (price - result.Meta.ChartPreviousClose) / result.Meta.ChartPreviousClose * 100
	}

	displayName := result.Meta.ShortName
	if displayName == "" {
		displayName = result.Meta.LongName
	}
	if displayName == "" {
		displayName = symbol
	}

	quote := quotes.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		DisplayName:   displayName,
		FetchedAt:     time.Now().UTC(),
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", price).
		Float64("change_percent", changePercent).
		Msg("Quote fetched")

	return quote, nil
}
