package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgatica/financefolio/internal/config"
	"github.com/pgatica/financefolio/internal/database"
	"github.com/pgatica/financefolio/internal/events"
	"github.com/pgatica/financefolio/internal/modules/ledger"
	"github.com/pgatica/financefolio/internal/modules/quotes"
	"github.com/pgatica/financefolio/internal/modules/valuation"
	testdb "github.com/pgatica/financefolio/internal/testing"
)

type fixedProvider struct {
	prices map[string]float64
}

func (p *fixedProvider) GetQuote(ctx context.Context, symbol string) (quotes.Quote, error) {
	price, ok := p.prices[symbol]
	if !ok {
		return quotes.Quote{}, quotes.ErrNoData
	}
	return quotes.Quote{Symbol: symbol, Price: price, DisplayName: symbol}, nil
}

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()

	db, cleanup := testdb.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)
	log := zerolog.Nop()

	bus := events.NewBus(log)
	manager := events.NewManager(bus, log)

	store := ledger.NewStore(db.Conn(), "test", log)
	ledgerService, err := ledger.NewService(store, manager, log)
	require.NoError(t, err)

	provider := &fixedProvider{prices: map[string]float64{"AAPL": 185.0}}
	cache := quotes.NewCache(provider, manager, log)
	valuationService := valuation.NewService(ledgerService, cache, log)

	srv := New(Config{
		Log:              log,
		Config:           &config.Config{Port: 5000, LedgerKey: "test"},
		LedgerDB:         db,
		LedgerService:    ledgerService,
		QuoteCache:       cache,
		QuoteProvider:    provider,
		ValuationService: valuationService,
		EventBus:         bus,
	})
	return srv, db
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "financefolio", body["service"])
}

// TestHealthEndpointDatabaseDown tests that health reports unhealthy when
// the ledger database is unreachable
func TestHealthEndpointDatabaseDown(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Close())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestTransactionLifecycleThroughRouter(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]interface{}{
		"symbol":     "AAPL",
		"side":       "BUY",
		"quantity":   10.0,
		"unit_price": 150.0,
		"date":       "2026-08-01",
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data ledger.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Data struct {
			Transactions []ledger.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Transactions, 1)
	assert.Equal(t, "AAPL", listed.Data.Transactions[0].Symbol)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/transactions/%s", created.Data.ID), nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMarketPriceEndpointThroughRouter(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/price/AAPL", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, 185.0, body["price"])

	req = httptest.NewRequest(http.MethodGet, "/api/price/UNKNOWN", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSystemStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Data, "goroutines")
	assert.Equal(t, "running", body.Data["status"])
	assert.Equal(t, "ok", body.Data["database"])
	assert.Equal(t, 0.0, body.Data["transactions"])
}

func TestPortfolioSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/summary", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data valuation.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data.Positions)
	assert.False(t, body.Data.HasPrices)
}
