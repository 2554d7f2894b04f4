package memory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"
	"ledgerbook/internal/transport"
)

// Store keeps both datasets in process memory. Ledger rows behave like sheet
// rows: deleting one shifts the ones below it up.
type Store struct {
	mu      sync.Mutex
	rules   []core.RecurringRule
	entries []core.LedgerEntry
}

var _ ports.Repository = (*Store)(nil)

func New(rules []core.RecurringRule) *Store {
	s := &Store{}
	for _, r := range rules {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.rules = append(s.rules, r)
	}
	return s
}

// NewFromFile seeds the store from a getRecurringTransactions payload. A
// missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil), nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	rules, err := transport.DecodeRules(b)
	if err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return New(rules), nil
}

func (s *Store) ListRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringRule(nil), s.rules...), nil
}

func (s *Store) CreateRule(_ context.Context, r core.RecurringRule) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if s.indexOf(r.ID) >= 0 {
		return "", fmt.Errorf("rule %s already exists", r.ID)
	}
	s.rules = append(s.rules, r)
	return r.ID, nil
}

func (s *Store) UpdateRule(_ context.Context, id string, u core.RuleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	s.rules[i] = s.rules[i].Apply(u)
	return nil
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListEntries(_ context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		e.RowIndex = i + ports.FirstDataRow
		out[i] = e
	}
	return out, nil
}

func (s *Store) AppendEntry(_ context.Context, e core.LedgerEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return len(s.entries) - 1 + ports.FirstDataRow, nil
}

func (s *Store) UpdateEntry(_ context.Context, row int, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := row - ports.FirstDataRow
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	s.entries[i] = e
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := row - ports.FirstDataRow
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}
