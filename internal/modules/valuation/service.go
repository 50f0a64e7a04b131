package valuation

import (
	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/modules/holdings"
	"github.com/pgatica/financefolio/internal/modules/ledger"
	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// Service wires the ledger, the holdings aggregator and the quote cache
// into portfolio views.
type Service struct {
	ledger *ledger.Service
	cache  *quotes.Cache
	log    zerolog.Logger
}

// NewService creates a new valuation service
func NewService(ledgerService *ledger.Service, cache *quotes.Cache, log zerolog.Logger) *Service {
	return &Service{
		ledger: ledgerService,
		cache:  cache,
		log:    log.With().Str("service", "valuation").Logger(),
	}
}

// Holdings recomputes current positions from the ledger
func (s *Service) Holdings() map[string]holdings.Holding {
	return holdings.Aggregate(s.ledger.List())
}

// Summary values the current holdings against the cached quotes. It asks
// the cache to start fetches for any held symbol without a quote, then
// reports the present state without waiting for those fetches.
func (s *Service) Summary() Summary {
	held := s.Holdings()

	symbols := make([]string, 0, len(held))
	for symbol := range held {
		symbols = append(symbols, symbol)
	}
	s.cache.EnsureFreshFor(symbols)

	return Summarize(held, s.cache.Snapshot())
}

// HeldSymbols returns the symbols with a net positive position
func (s *Service) HeldSymbols() []string {
	held := s.Holdings()
	symbols := make([]string, 0, len(held))
	for symbol := range held {
		symbols = append(symbols, symbol)
	}
	return symbols
}
