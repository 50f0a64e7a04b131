package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransactionValidate tests field validation with every offending field reported
func TestTransactionValidate(t *testing.T) {
	testCases := []struct {
		name       string
		tx         Transaction
		wantFields []string
	}{
		{
			name: "valid buy",
			tx: Transaction{
				Symbol:    "AAPL",
				Side:      SideBuy,
				Quantity:  10,
				UnitPrice: 150.5,
				Date:      "2024-03-01",
			},
			wantFields: nil,
		},
		{
			name: "valid sell",
			tx: Transaction{
				Symbol:    "BTC-USD",
				Side:      SideSell,
				Quantity:  0.5,
				UnitPrice: 60000,
				Date:      "2024-03-02",
			},
			wantFields: nil,
		},
		{
			name: "empty symbol",
			tx: Transaction{
				Side:      SideBuy,
				Quantity:  1,
				UnitPrice: 1,
				Date:      "2024-03-01",
			},
			wantFields: []string{"symbol"},
		},
		{
			name: "unknown side",
			tx: Transaction{
				Symbol:    "AAPL",
				Side:      "HOLD",
				Quantity:  1,
				UnitPrice: 1,
				Date:      "2024-03-01",
			},
			wantFields: []string{"side"},
		},
		{
			name: "zero quantity",
			tx: Transaction{
				Symbol:    "AAPL",
				Side:      SideBuy,
				Quantity:  0,
				UnitPrice: 1,
				Date:      "2024-03-01",
			},
			wantFields: []string{"quantity"},
		},
		{
			name: "negative price",
			tx: Transaction{
				Symbol:    "AAPL",
				Side:      SideBuy,
				Quantity:  1,
				UnitPrice: -5,
				Date:      "2024-03-01",
			},
			wantFields: []string{"unit_price"},
		},
		{
			name: "malformed date",
			tx: Transaction{
				Symbol:    "AAPL",
				Side:      SideBuy,
				Quantity:  1,
				UnitPrice: 1,
				Date:      "03/01/2024",
			},
			wantFields: []string{"date"},
		},
		{
			name:       "everything wrong reports all fields",
			tx:         Transaction{},
			wantFields: []string{"symbol", "side", "quantity", "unit_price", "date"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.wantFields, validationErr.Fields)
		})
	}
}

// TestTransactionNormalize tests symbol and side normalization
func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{
		Symbol: "  aapl ",
		Side:   " buy ",
		Date:   " 2024-03-01 ",
		Broker: " DEGIRO ",
	}

	tx.Normalize()

	assert.Equal(t, "AAPL", tx.Symbol)
	assert.Equal(t, SideBuy, tx.Side)
	assert.Equal(t, "2024-03-01", tx.Date)
	assert.Equal(t, "DEGIRO", tx.Broker)
	assert.NoError(t, tx.Validate())
}
