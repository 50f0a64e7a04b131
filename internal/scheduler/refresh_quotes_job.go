package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/modules/quotes"
	"github.com/pgatica/financefolio/internal/modules/valuation"
)

// RefreshQuotesJob periodically re-fetches quotes for every held symbol so
// the portfolio summary stays close to the market without user interaction.
type RefreshQuotesJob struct {
	valuation *valuation.Service
	cache     *quotes.Cache
	log       zerolog.Logger
}

// NewRefreshQuotesJob creates the periodic quote refresh job
func NewRefreshQuotesJob(valuationService *valuation.Service, cache *quotes.Cache, log zerolog.Logger) *RefreshQuotesJob {
	return &RefreshQuotesJob{
		valuation: valuationService,
		cache:     cache,
		log:       log.With().Str("job", "refresh_quotes").Logger(),
	}
}

// Name returns the job name
func (j *RefreshQuotesJob) Name() string {
	return "refresh_quotes"
}

// Run collects the held symbols and primes the quote cache for all of them.
// Prime waits for every fetch it starts, so the job reports real completion.
func (j *RefreshQuotesJob) Run() error {
	symbols := j.valuation.HeldSymbols()
	if len(symbols) == 0 {
		j.log.Debug().Msg("No holdings, nothing to refresh")
		return nil
	}

	j.cache.Prime(symbols)

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("cached", j.cache.Count()).
		Msg("Quote refresh completed")

	return nil
}
