package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pgatica/financefolio/internal/events"
)

// ErrNotFound is returned when a transaction id does not exist in the ledger
var ErrNotFound = errors.New("transaction not found")

// Service owns the in-memory transaction list and serializes all mutations
// through a single mutex. Reads return copies so callers can never observe
// a partially applied mutation.
type Service struct {
	mu           sync.Mutex
	transactions []Transaction
	store        *Store
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates the ledger service and loads the persisted ledger
func NewService(store *Store, eventManager *events.Manager, log zerolog.Logger) (*Service, error) {
	transactions, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	svc := &Service{
		transactions: transactions,
		store:        store,
		eventManager: eventManager,
		log:          log.With().Str("service", "ledger").Logger(),
	}

	svc.log.Info().
		Str("key", store.Key()).
		Int("count", len(transactions)).
		Msg("Ledger loaded")

	return svc, nil
}

// Add validates the candidate, assigns identity, appends it to the ledger
// and persists the whole collection. On any failure the in-memory list is
// left untouched.
func (s *Service) Add(candidate Transaction) (Transaction, error) {
	candidate.Normalize()
	if err := candidate.Validate(); err != nil {
		return Transaction{}, err
	}

	candidate.ID = uuid.NewString()
	candidate.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Transaction, len(s.transactions), len(s.transactions)+1)
	copy(next, s.transactions)
	next = append(next, candidate)

	if err := s.store.Save(next); err != nil {
		if s.eventManager != nil {
			s.eventManager.EmitError("ledger", err, map[string]interface{}{
				"operation": "add",
				"symbol":    candidate.Symbol,
			})
		}
		return Transaction{}, err
	}
	s.transactions = next

	s.log.Info().
		Str("id", candidate.ID).
		Str("symbol", candidate.Symbol).
		Str("side", string(candidate.Side)).
		Float64("quantity", candidate.Quantity).
		Msg("Transaction added")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TransactionAdded, "ledger", &events.TransactionAddedData{
			ID:        candidate.ID,
			Symbol:    candidate.Symbol,
			Operation: string(candidate.Side),
			Quantity:  candidate.Quantity,
			Price:     candidate.UnitPrice,
		})
	}

	return candidate, nil
}

// Remove deletes the transaction with the given id and persists the ledger.
// Returns ErrNotFound when the id is absent.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, tx := range s.transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	removed := s.transactions[idx]

	next := make([]Transaction, 0, len(s.transactions)-1)
	next = append(next, s.transactions[:idx]...)
	next = append(next, s.transactions[idx+1:]...)

	if err := s.store.Save(next); err != nil {
		if s.eventManager != nil {
			s.eventManager.EmitError("ledger", err, map[string]interface{}{
				"operation": "remove",
				"id":        id,
			})
		}
		return err
	}
	s.transactions = next

	s.log.Info().
		Str("id", removed.ID).
		Str("symbol", removed.Symbol).
		Msg("Transaction removed")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.TransactionRemoved, "ledger", &events.TransactionRemovedData{
			ID:     removed.ID,
			Symbol: removed.Symbol,
		})
	}

	return nil
}

// Reset clears the whole ledger and returns how many transactions were removed
func (s *Service) Reset() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.transactions)

	// The whole document goes away; the next Load starts from an empty ledger
	if err := s.store.Delete(); err != nil {
		if s.eventManager != nil {
			s.eventManager.EmitError("ledger", err, map[string]interface{}{
				"operation": "reset",
			})
		}
		return 0, err
	}
	s.transactions = []Transaction{}

	s.log.Info().Int("removed", removed).Msg("Ledger reset")

	if s.eventManager != nil {
		s.eventManager.EmitTyped(events.LedgerReset, "ledger", &events.LedgerResetData{
			Removed: removed,
		})
	}

	return removed, nil
}

// List returns a copy of the ledger in insertion order
func (s *Service) List() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Symbols returns the distinct symbols present in the ledger
func (s *Service) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	symbols := make([]string, 0)
	for _, tx := range s.transactions {
		if !seen[tx.Symbol] {
			seen[tx.Symbol] = true
			symbols = append(symbols, tx.Symbol)
		}
	}
	return symbols
}

// Count returns the number of transactions in the ledger
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}
