package transport

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
)

func TestOperationText(t *testing.T) {
	for op, name := range operationNames {
		b, err := op.MarshalText()
		if err != nil || string(b) != name {
			t.Errorf("MarshalText(%d) = %q, %v", op, b, err)
		}
		var back Operation
		if err := back.UnmarshalText(b); err != nil || back != op {
			t.Errorf("UnmarshalText(%q) = %v, %v", b, back, err)
		}
	}
	if _, err := OpUnknown.MarshalText(); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestCommandRetireSendsExplicitNull(t *testing.T) {
	now := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	cmd := UpdateRule("9", core.RuleUpdate{Schedule: &core.ScheduleUpdate{LastProcessed: now}})

	b, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(b), `"nextDue":null`) {
		t.Fatalf("payload %s lacks explicit null nextDue", b)
	}
	if !strings.Contains(string(b), `"operation":"updateRecurring"`) {
		t.Fatalf("payload %s lacks operation", b)
	}

	var back Command
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Schedule == nil {
		t.Fatal("schedule update lost")
	}
	if back.Schedule.NextDue != nil {
		t.Errorf("NextDue = %v, want nil", back.Schedule.NextDue)
	}
	if !back.Schedule.LastProcessed.Equal(now) {
		t.Errorf("LastProcessed = %v, want %v", back.Schedule.LastProcessed, now)
	}
}

func TestCommandWithoutScheduleOmitsNextDue(t *testing.T) {
	b, err := json.Marshal(DeleteRule("3"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(b), "nextDue") {
		t.Fatalf("payload %s should not mention nextDue", b)
	}
	var back Command
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Schedule != nil || back.Operation != OpDeleteRecurring || back.RecurringID != "3" {
		t.Errorf("unexpected command %+v", back)
	}
}

func TestCommandRecurringScheduleFields(t *testing.T) {
	next := core.NewDate(2026, 3, 1)
	r := core.RecurringRule{
		ID:        "4",
		Payee:     "Gym",
		Category:  "Health",
		Amount:    decimal.RequireFromString("30"),
		Kind:      core.Expense,
		Frequency: core.Monthly,
		StartDate: core.NewDate(2026, 1, 1),
		NextDue:   &next,
	}

	tests := []struct {
		name        string
		cmd         Command
		wantNextDue bool
	}{
		{"details edit", UpdateRule("4", core.RuleUpdate{Details: &r}), false},
		{"add", AddRule(r), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.cmd)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var raw struct {
				Recurring map[string]json.RawMessage `json:"recurring"`
			}
			if err := json.Unmarshal(b, &raw); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if _, ok := raw.Recurring["lastProcessed"]; ok {
				t.Errorf("payload %s carries lastProcessed", b)
			}
			if _, ok := raw.Recurring["nextDue"]; ok != tt.wantNextDue {
				t.Errorf("payload %s: nextDue present = %v, want %v", b, ok, tt.wantNextDue)
			}

			var back Command
			if err := json.Unmarshal(b, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back.Rule == nil || back.Rule.Payee != "Gym" || back.Schedule != nil {
				t.Fatalf("decoded %+v", back)
			}
			if got := back.Rule.NextDue != nil; got != tt.wantNextDue {
				t.Errorf("decoded NextDue set = %v, want %v", got, tt.wantNextDue)
			}
		})
	}
}

func TestCommandAddEntryRoundTrip(t *testing.T) {
	e := core.LedgerEntry{
		Date:      core.NewDate(2026, 2, 1),
		DayOfWeek: "Sunday",
		Kind:      core.Income,
		Amount:    decimal.RequireFromString("2500"),
		Category:  "Salary",
		Payee:     "Employer",
		Notes:     "Recurring monthly",
	}
	b, err := json.Marshal(AddEntry(e))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Command
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Entry == nil || back.Entry.Kind != core.Income || !back.Entry.Amount.Equal(e.Amount) || back.Entry.Notes != e.Notes {
		t.Errorf("entry not preserved: %+v", back.Entry)
	}
}

func TestCommandUnknownOperation(t *testing.T) {
	var c Command
	if err := json.Unmarshal([]byte(`{"operation":"truncate"}`), &c); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestCommandValidate(t *testing.T) {
	rule := core.RecurringRule{ID: "1"}
	entry := core.LedgerEntry{}
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"add", AddEntry(entry), false},
		{"add without entry", Command{Operation: OpAdd}, true},
		{"update", UpdateEntry(4, entry), false},
		{"update without row", UpdateEntry(0, entry), true},
		{"delete", DeleteEntry(2), false},
		{"delete without row", DeleteEntry(0), true},
		{"add recurring", AddRule(rule), false},
		{"add recurring without id", AddRule(core.RecurringRule{}), true},
		{"update recurring", UpdateRule("1", core.RuleUpdate{Details: &rule}), false},
		{"update recurring empty", UpdateRule("1", core.RuleUpdate{}), true},
		{"delete recurring", DeleteRule("1"), false},
		{"delete recurring without id", DeleteRule(" "), true},
		{"unknown", Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("error %v does not wrap ErrInvalidCommand", err)
			}
		})
	}
}
