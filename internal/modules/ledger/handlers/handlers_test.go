package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgatica/financefolio/internal/modules/ledger"
)

func newTestRouter(t *testing.T) (*chi.Mux, *ledger.Service) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE ledgers (
			key        TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	svc, err := ledger.NewService(ledger.NewStore(db, "default", zerolog.Nop()), nil, zerolog.Nop())
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewHandler(svc, zerolog.Nop()).RegisterRoutes(r)
	})

	return router, svc
}

// TestHandleCreateTransaction tests POST /api/transactions
func TestHandleCreateTransaction(t *testing.T) {
	router, svc := newTestRouter(t)

	body := `{"symbol":"aapl","side":"BUY","quantity":10,"unit_price":150.5,"date":"2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		Data ledger.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "AAPL", response.Data.Symbol)
	assert.NotEmpty(t, response.Data.ID)
	assert.Equal(t, 1, svc.Count())
}

// TestHandleCreateTransactionValidation tests 400 with the offending fields
func TestHandleCreateTransactionValidation(t *testing.T) {
	router, svc := newTestRouter(t)

	body := `{"symbol":"","side":"BUY","quantity":0,"unit_price":150.5,"date":"2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, []string{"symbol", "quantity"}, response.Fields)
	assert.Equal(t, 0, svc.Count())
}

// TestHandleListTransactions tests GET /api/transactions ordering
func TestHandleListTransactions(t *testing.T) {
	router, svc := newTestRouter(t)

	_, err := svc.Add(ledger.Transaction{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: 10, UnitPrice: 100, Date: "2024-01-02",
	})
	require.NoError(t, err)
	_, err = svc.Add(ledger.Transaction{
		Symbol: "MSFT", Side: ledger.SideBuy, Quantity: 5, UnitPrice: 300, Date: "2024-02-10",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Transactions []ledger.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, 2, response.Data.Count)
	// Most recent date first
	assert.Equal(t, "MSFT", response.Data.Transactions[0].Symbol)
	assert.Equal(t, "AAPL", response.Data.Transactions[1].Symbol)
}

// TestHandleDeleteTransaction tests DELETE /api/transactions/{id}
func TestHandleDeleteTransaction(t *testing.T) {
	router, svc := newTestRouter(t)

	created, err := svc.Add(ledger.Transaction{
		Symbol: "AAPL", Side: ledger.SideBuy, Quantity: 10, UnitPrice: 100, Date: "2024-01-02",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/transactions/"+created.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, svc.Count())
}

// TestHandleDeleteTransactionNotFound tests 404 for unknown ids
func TestHandleDeleteTransactionNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/transactions/no-such-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHandleResetLedger tests DELETE /api/transactions
func TestHandleResetLedger(t *testing.T) {
	router, svc := newTestRouter(t)

	for i := 0; i < 2; i++ {
		_, err := svc.Add(ledger.Transaction{
			Symbol: "AAPL", Side: ledger.SideBuy, Quantity: 1, UnitPrice: 100, Date: "2024-01-02",
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Removed int `json:"removed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Data.Removed)
	assert.Equal(t, 0, svc.Count())
}
