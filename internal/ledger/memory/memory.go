// Package memory implements the ledger port in process memory. It backs
// local runs without Google credentials and doubles as the test ledger.
package memory

import (
	"context"
	"sync"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Expense
	fail error
}

var _ ledger.Appender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense, or returns the injected failure.
func (s *Store) Append(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.rows = append(s.rows, e)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.rows))
	copy(out, s.rows)
	return out
}

// FailWith makes subsequent appends fail with err; nil restores normal
// operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
