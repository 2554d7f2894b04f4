package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"
)

func rule(id string) core.RecurringRule {
	return core.RecurringRule{
		ID:        id,
		Payee:     "Gym",
		Category:  "Health",
		Amount:    decimal.RequireFromString("30"),
		Kind:      core.Expense,
		Frequency: core.Monthly,
		StartDate: core.NewDate(2026, 1, 1),
		NextDue:   core.DatePtr(core.NewDate(2026, 2, 1)),
	}
}

func TestStoreRules(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	id, err := s.CreateRule(ctx, rule(""))
	if err != nil || id == "" {
		t.Fatalf("CreateRule() = %q, %v", id, err)
	}
	if _, err := s.CreateRule(ctx, rule(id)); err == nil {
		t.Fatal("expected duplicate id error")
	}

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	next := core.NewDate(2026, 3, 1)
	if err := s.UpdateRule(ctx, id, core.RuleUpdate{Schedule: &core.ScheduleUpdate{NextDue: &next, LastProcessed: now}}); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}
	rules, _ := s.ListRules(ctx)
	if len(rules) != 1 || !rules[0].NextDue.Equal(next) {
		t.Fatalf("unexpected rules %+v", rules)
	}

	if err := s.UpdateRule(ctx, "missing", core.RuleUpdate{}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("UpdateRule(missing) = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRule(ctx, id); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if err := s.DeleteRule(ctx, id); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second DeleteRule() = %v, want ErrNotFound", err)
	}
}

func TestStoreLedgerRowsShift(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	for _, p := range []string{"a", "b", "c"} {
		if _, err := s.AppendEntry(ctx, core.LedgerEntry{Payee: p, Date: core.NewDate(2026, 1, 1)}); err != nil {
			t.Fatalf("AppendEntry() error = %v", err)
		}
	}
	if err := s.DeleteEntry(ctx, 3); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	entries, _ := s.ListEntries(ctx)
	if len(entries) != 2 || entries[1].Payee != "c" || entries[1].RowIndex != 3 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if err := s.UpdateEntry(ctx, 9, core.LedgerEntry{}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("UpdateEntry(9) = %v, want ErrNotFound", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should give an empty store: %v", err)
	}
	if rules, _ := s.ListRules(context.Background()); len(rules) != 0 {
		t.Fatalf("expected empty store, got %d rules", len(rules))
	}

	path := filepath.Join(dir, "seed.json")
	seed := `{"recurringTransactions":[{"id":"1","payee":"Rent","category":"Housing","amount":"900","type":"expense","frequency":"monthly","startDate":"2026-01-01","nextDue":"2026-01-01"}]}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	rules, _ := s.ListRules(context.Background())
	if len(rules) != 1 || rules[0].Payee != "Rent" {
		t.Fatalf("unexpected seeded rules %+v", rules)
	}
}
