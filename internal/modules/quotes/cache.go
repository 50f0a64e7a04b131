package quotes

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/events"
)

// Cache holds the latest known quote per symbol and guarantees at most one
// in-flight provider fetch per symbol. A failed fetch evicts any cached
// quote for that symbol so consumers never read a price known to be stale
// after a failure.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Quote
	inFlight map[string]bool

	provider     Provider
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewCache creates a new quote cache backed by the given provider
func NewCache(provider Provider, eventManager *events.Manager, log zerolog.Logger) *Cache {
	return &Cache{
		entries:      make(map[string]Quote),
		inFlight:     make(map[string]bool),
		provider:     provider,
		eventManager: eventManager,
		log:          log.With().Str("service", "quote_cache").Logger(),
	}
}

// Refresh triggers a background fetch for the symbol. If a fetch for that
// symbol is already in flight the call is a no-op, so a burst of refreshes
// collapses into a single provider call. Fire-and-forget: outcomes are
// observable through the cache state and the emitted events.
func (c *Cache) Refresh(symbol string) {
	if !c.acquire(symbol) {
		return
	}
	go c.fetch(symbol)
}

// EnsureFreshFor triggers a refresh for every symbol that has neither a
// cached quote nor an in-flight fetch.
func (c *Cache) EnsureFreshFor(symbols []string) {
	for _, symbol := range symbols {
		c.mu.Lock()
		_, cached := c.entries[symbol]
		busy := c.inFlight[symbol]
		if cached || busy {
			c.mu.Unlock()
			continue
		}
		c.inFlight[symbol] = true
		c.mu.Unlock()

		go c.fetch(symbol)
	}
}

// Prime fetches all given symbols and waits for every fetch it started to
// finish. Symbols already in flight are skipped; per-symbol dedup holds.
// Used at startup and by the periodic refresh job.
func (c *Cache) Prime(symbols []string) {
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		if !c.acquire(symbol) {
			continue
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			c.fetch(sym)
		}(symbol)
	}
	wg.Wait()
}

// Get returns the cached quote for a symbol, if present
func (c *Cache) Get(symbol string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quote, ok := c.entries[symbol]
	return quote, ok
}

// Snapshot returns a copy of all cached quotes
func (c *Cache) Snapshot() map[string]Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Quote, len(c.entries))
	for symbol, quote := range c.entries {
		out[symbol] = quote
	}
	return out
}

// Count returns the number of cached quotes
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ListenForTransactions subscribes the cache to ledger additions so a quote
// fetch starts as soon as a new symbol enters the portfolio.
func (c *Cache) ListenForTransactions(bus *events.Bus) {
	bus.Subscribe(events.TransactionAdded, func(event *events.Event) {
		symbol, ok := event.Data["symbol"].(string)
		if !ok || symbol == "" {
			return
		}
		c.EnsureFreshFor([]string{symbol})
	})
}

// acquire marks a symbol as in flight. Returns false if it already was.
func (c *Cache) acquire(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[symbol] {
		return false
	}
	c.inFlight[symbol] = true
	return true
}

// fetch performs the provider call for a symbol the caller has acquired.
// The in-flight mark is always cleared, whatever the outcome.
func (c *Cache) fetch(symbol string) {
	quote, err := c.provider.GetQuote(context.Background(), symbol)

	c.mu.Lock()
	delete(c.inFlight, symbol)
	if err != nil {
		delete(c.entries, symbol)
	} else {
		c.entries[symbol] = quote
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("Quote fetch failed, cached quote evicted")

		if c.eventManager != nil {
			c.eventManager.EmitTyped(events.QuoteFetchFailed, "quotes", &events.QuoteFetchFailedData{
				Symbol: symbol,
				Error:  err.Error(),
			})
		}
		return
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", quote.Price).
		Msg("Quote updated")

	if c.eventManager != nil {
		c.eventManager.EmitTyped(events.QuoteUpdated, "quotes", &events.QuoteUpdatedData{
			Symbol:        quote.Symbol,
			Price:         quote.Price,
			ChangePercent: quote.ChangePercent,
		})
	}
}
