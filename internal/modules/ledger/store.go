package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store persists the transaction list as a single JSON document per ledger
// key. Every save rewrites the whole collection; the document is small and
// the single-writer service above it serializes mutations.
type Store struct {
	db  *sql.DB
	key string
	log zerolog.Logger
}

// NewStore creates a new ledger store for the given key
func NewStore(db *sql.DB, key string, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		key: key,
		log: log.With().Str("repo", "ledger_store").Logger(),
	}
}

// Key returns the ledger key this store reads and writes
func (s *Store) Key() string {
	return s.key
}

// Load reads the transaction list for the store's key.
// A missing row means an empty ledger, not an error.
func (s *Store) Load() ([]Transaction, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM ledgers WHERE key = ?", s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return []Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger %q: %w", s.key, err)
	}

	var transactions []Transaction
	if err := json.Unmarshal([]byte(data), &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %q: %w", s.key, err)
	}

	return transactions, nil
}

// Save writes the whole transaction list for the store's key
func (s *Store) Save(transactions []Transaction) error {
	if transactions == nil {
		transactions = []Transaction{}
	}

	data, err := json.Marshal(transactions)
	if err != nil {
		return fmt.Errorf("failed to encode ledger %q: %w", s.key, err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO ledgers (key, data, updated_at) VALUES (?, ?, ?)",
		s.key, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger %q: %w", s.key, err)
	}

	s.log.Debug().
		Str("key", s.key).
		Int("count", len(transactions)).
		Msg("Ledger saved")

	return nil
}

// Delete removes the ledger document for the store's key
func (s *Store) Delete() error {
	_, err := s.db.Exec("DELETE FROM ledgers WHERE key = ?", s.key)
	if err != nil {
		return fmt.Errorf("failed to delete ledger %q: %w", s.key, err)
	}
	return nil
}
