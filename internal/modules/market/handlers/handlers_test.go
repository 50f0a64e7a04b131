package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgatica/financefolio/internal/modules/quotes"
)

// stubProvider returns canned quotes or errors per symbol
type stubProvider struct {
	mu      sync.Mutex
	calls   []string
	results map[string]quotes.Quote
	errs    map[string]error
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		results: make(map[string]quotes.Quote),
		errs:    make(map[string]error),
	}
}

func (p *stubProvider) GetQuote(ctx context.Context, symbol string) (quotes.Quote, error) {
	p.mu.Lock()
	p.calls = append(p.calls, symbol)
	p.mu.Unlock()

	if err, ok := p.errs[symbol]; ok {
		return quotes.Quote{}, err
	}
	if quote, ok := p.results[symbol]; ok {
		return quote, nil
	}
	return quotes.Quote{}, quotes.ErrNoData
}

func newTestRouter(provider quotes.Provider) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewHandler(provider, zerolog.Nop()).RegisterRoutes(r)
	})
	return router
}

// TestHandleGetPrice tests the single-symbol happy path with case normalization
func TestHandleGetPrice(t *testing.T) {
	provider := newStubProvider()
	provider.results["AAPL"] = quotes.Quote{Symbol: "AAPL", Price: 187.5}

	router := newTestRouter(provider)

	req := httptest.NewRequest(http.MethodGet, "/api/price/aapl", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "AAPL", response.Symbol)
	assert.Equal(t, 187.5, response.Price)
	assert.Equal(t, []string{"AAPL"}, provider.calls)
}

// TestHandleGetPriceNoData tests 404 for symbols the provider does not know
func TestHandleGetPriceNoData(t *testing.T) {
	router := newTestRouter(newStubProvider())

	req := httptest.NewRequest(http.MethodGet, "/api/price/ZZZZINVALID", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

// TestHandleGetPriceProviderError tests 500 for provider failures
func TestHandleGetPriceProviderError(t *testing.T) {
	provider := newStubProvider()
	provider.errs["AAPL"] = errors.New("upstream down")

	router := newTestRouter(provider)

	req := httptest.NewRequest(http.MethodGet, "/api/price/AAPL", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestHandleGetPrices tests the batch endpoint with partial failure isolation
func TestHandleGetPrices(t *testing.T) {
	provider := newStubProvider()
	provider.results["AAPL"] = quotes.Quote{Symbol: "AAPL", Price: 187.5, ChangePercent: 1.2, DisplayName: "Apple Inc."}
	provider.results["MSFT"] = quotes.Quote{Symbol: "MSFT", Price: 420.0, ChangePercent: -0.5, DisplayName: "Microsoft"}
	provider.errs["BROKEN"] = errors.New("upstream down")

	router := newTestRouter(provider)

	req := httptest.NewRequest(http.MethodGet, "/api/prices?symbols=aapl,msft,ZZZZINVALID,BROKEN", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]struct {
		Price  float64 `json:"price"`
		Change float64 `json:"change"`
		Name   string  `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	// Failed and unknown symbols are simply absent
	require.Len(t, response, 2)
	assert.Equal(t, 187.5, response["AAPL"].Price)
	assert.Equal(t, "Apple Inc.", response["AAPL"].Name)
	assert.Equal(t, -0.5, response["MSFT"].Change)

	// One provider call per requested symbol
	assert.Len(t, provider.calls, 4)
}

// TestHandleGetPricesMissingParam tests 400 before any provider call
func TestHandleGetPricesMissingParam(t *testing.T) {
	provider := newStubProvider()
	router := newTestRouter(provider)

	for _, url := range []string{"/api/prices", "/api/prices?symbols=", "/api/prices?symbols=,,"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}

	assert.Empty(t, provider.calls)
}
