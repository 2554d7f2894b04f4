package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"
	"ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/transport"
)

func TestTransportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	tr := New(store, store)

	r := core.RecurringRule{
		ID:        "r-1",
		Payee:     "Gym",
		Category:  "Health",
		Amount:    decimal.RequireFromString("30"),
		Kind:      core.Expense,
		Frequency: core.Monthly,
		StartDate: core.NewDate(2026, 1, 1),
		NextDue:   core.DatePtr(core.NewDate(2026, 1, 1)),
	}
	d, err := tr.Send(ctx, transport.AddRule(r))
	if err != nil {
		t.Fatalf("Send(addRecurring) error = %v", err)
	}
	if d.Operation != transport.OpAddRecurring || d.CommandID == "" {
		t.Errorf("unexpected dispatch %+v", d)
	}

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if _, err := tr.Send(ctx, transport.UpdateRule("r-1", core.RuleUpdate{
		Schedule: &core.ScheduleUpdate{LastProcessed: now},
	})); err != nil {
		t.Fatalf("Send(updateRecurring) error = %v", err)
	}

	body, err := tr.Query(ctx, transport.GetRecurringTransactions)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	rules, err := transport.DecodeRules(body)
	if err != nil || len(rules) != 1 {
		t.Fatalf("DecodeRules() = %v, %v", rules, err)
	}
	if !rules[0].Retired() || rules[0].LastProcessed == nil {
		t.Errorf("rule not retired through the wire: %+v", rules[0])
	}

	if _, err := tr.Send(ctx, transport.AddEntry(core.Materialize(r, now))); err != nil {
		t.Fatalf("Send(add) error = %v", err)
	}
	body, err = tr.Query(ctx, transport.GetTransactions)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	entries, _ := transport.DecodeEntries(body)
	if len(entries) != 1 || entries[0].RowIndex != ports.FirstDataRow || entries[0].Notes != "Recurring monthly" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestTransportErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	tr := New(store, store)

	if err := tr.Apply(ctx, transport.Command{}); !errors.Is(err, transport.ErrInvalidCommand) {
		t.Errorf("Apply(empty) = %v, want ErrInvalidCommand", err)
	}
	if err := tr.Apply(ctx, transport.DeleteRule("nope")); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Apply(delete missing) = %v, want ErrNotFound", err)
	}
	if _, err := tr.Send(ctx, transport.DeleteEntry(5)); !errors.Is(err, transport.ErrTransport) {
		t.Errorf("Send(delete missing row) = %v, want ErrTransport", err)
	}
	if _, err := tr.Query(ctx, transport.ActionUnknown); !errors.Is(err, transport.ErrTransport) {
		t.Errorf("Query(unknown) = %v, want ErrTransport", err)
	}
}
