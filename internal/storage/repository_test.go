package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledgerbook.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_Rules(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := core.RecurringRule{
		ID:        "7",
		Payee:     "Water",
		Category:  "Utilities",
		Account:   "Checking",
		Amount:    decimal.RequireFromString("41.20"),
		Kind:      core.Expense,
		Frequency: core.Quarterly,
		StartDate: core.NewDate(2026, 1, 15),
		EndDate:   core.DatePtr(core.NewDate(2026, 12, 31)),
		NextDue:   core.DatePtr(core.NewDate(2026, 1, 15)),
	}
	id, err := repo.CreateRule(ctx, in)
	if err != nil || id != "7" {
		t.Fatalf("CreateRule() = %q, %v", id, err)
	}
	generated, err := repo.CreateRule(ctx, core.RecurringRule{
		Payee: "Gym", Category: "Health", Kind: core.Expense, Frequency: core.Monthly,
		StartDate: core.NewDate(2026, 1, 1),
	})
	if err != nil || generated == "" {
		t.Fatalf("CreateRule() without id = %q, %v", generated, err)
	}

	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	next := core.NewDate(2026, 4, 15)
	if err := repo.UpdateRule(ctx, "7", core.RuleUpdate{Schedule: &core.ScheduleUpdate{NextDue: &next, LastProcessed: now}}); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}

	rules, err := repo.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(rules) != 2 || rules[0].ID != "7" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	got := rules[0]
	if !got.NextDue.Equal(next) || got.LastProcessed == nil || !got.LastProcessed.Equal(now) {
		t.Errorf("schedule not persisted: %+v", got)
	}
	if !got.Amount.Equal(in.Amount) || got.Frequency != core.Quarterly || !got.EndDate.Equal(*in.EndDate) {
		t.Errorf("fields not persisted: %+v", got)
	}

	if err := repo.UpdateRule(ctx, "missing", core.RuleUpdate{}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("UpdateRule(missing) = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteRule(ctx, "7"); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if err := repo.DeleteRule(ctx, "7"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("DeleteRule(again) = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_RetiredStaysRetired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	r := core.RecurringRule{
		ID: "1", Payee: "Old", Category: "Misc", Kind: core.Expense, Frequency: core.Weekly,
		StartDate: core.NewDate(2025, 1, 1),
	}
	if _, err := repo.CreateRule(ctx, r); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	next := core.NewDate(2026, 3, 1)
	if err := repo.UpdateRule(ctx, "1", core.RuleUpdate{Schedule: &core.ScheduleUpdate{NextDue: &next, LastProcessed: time.Now()}}); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}
	rules, _ := repo.ListRules(ctx)
	if len(rules) != 1 || !rules[0].Retired() {
		t.Fatalf("retired rule was resurrected: %+v", rules)
	}
}

func TestSQLiteRepository_Ledger(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i, payee := range []string{"a", "b", "c"} {
		row, err := repo.AppendEntry(ctx, core.LedgerEntry{
			Date:      core.NewDate(2026, 2, 1),
			DayOfWeek: "Sunday",
			Kind:      core.Expense,
			Amount:    decimal.RequireFromString("1.50"),
			Payee:     payee,
		})
		if err != nil {
			t.Fatalf("AppendEntry() error = %v", err)
		}
		if want := i + ports.FirstDataRow; row != want {
			t.Errorf("row = %d, want %d", row, want)
		}
	}

	if err := repo.DeleteEntry(ctx, 2); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if err := repo.UpdateEntry(ctx, 3, core.LedgerEntry{Date: core.NewDate(2026, 2, 2), Kind: core.Income, Amount: decimal.NewFromInt(5), Payee: "C"}); err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Payee != "b" || entries[1].Payee != "C" || entries[1].RowIndex != 3 || entries[1].Kind != core.Income {
		t.Errorf("unexpected entries %+v", entries)
	}
	if err := repo.DeleteEntry(ctx, 10); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("DeleteEntry(10) = %v, want ErrNotFound", err)
	}
}
