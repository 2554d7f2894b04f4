package google

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
)

func TestParseRuleRow(t *testing.T) {
	tests := []struct {
		name    string
		row     []interface{}
		wantErr bool
		check   func(t *testing.T, r core.RecurringRule)
	}{
		{
			name: "full row with comma amount",
			row:  []interface{}{"r1", "Rent", "Housing", "Checking", "", "950,00", "expense", "monthly", "2026-01-01", "", "2026-02-01", "2026-01-01T08:00:00Z"},
			check: func(t *testing.T, r core.RecurringRule) {
				if !r.Amount.Equal(decimal.RequireFromString("950")) || r.Frequency != core.Monthly || r.EndDate != nil {
					t.Errorf("unexpected rule %+v", r)
				}
				if r.NextDue == nil || r.NextDue.String() != "2026-02-01" || r.LastProcessed == nil {
					t.Errorf("schedule not parsed: %+v", r)
				}
			},
		},
		{
			name: "numeric amount cell and short row",
			row:  []interface{}{"r2", "Gym", "Health", "", "", 30.0, "expense", "weekly", "2026-01-05"},
			check: func(t *testing.T, r core.RecurringRule) {
				if !r.Retired() || r.Amount.String() != "30" {
					t.Errorf("unexpected rule %+v", r)
				}
			},
		},
		{
			name:    "missing id",
			row:     []interface{}{"", "Gym"},
			wantErr: true,
		},
		{
			name:    "bad amount",
			row:     []interface{}{"r3", "Gym", "Health", "", "", "abc", "expense", "weekly", "2026-01-05"},
			wantErr: true,
		},
		{
			name:    "bad start date",
			row:     []interface{}{"r4", "Gym", "Health", "", "", "1", "expense", "weekly", "05/01/2026"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseRuleRow(toStrings(tt.row))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRuleRow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestRuleRowRoundTrip(t *testing.T) {
	processed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	in := core.RecurringRule{
		ID: "x", Payee: "Paper", Category: "News", Notes: "weekend",
		Amount: decimal.RequireFromString("4.5"), Kind: core.Expense, Frequency: core.Weekly,
		StartDate: core.NewDate(2026, 1, 3), EndDate: core.DatePtr(core.NewDate(2026, 12, 26)),
		NextDue: core.DatePtr(core.NewDate(2026, 2, 7)), LastProcessed: &processed,
	}
	out, err := parseRuleRow(toStrings(ruleRow(in)))
	if err != nil {
		t.Fatalf("parseRuleRow() error = %v", err)
	}
	if out.ID != in.ID || out.Notes != in.Notes || !out.Amount.Equal(in.Amount) ||
		!out.EndDate.Equal(*in.EndDate) || !out.NextDue.Equal(*in.NextDue) || !out.LastProcessed.Equal(processed) {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestParseEntryRow(t *testing.T) {
	e, err := parseEntryRow(toStrings([]interface{}{"2026-02-01", "", "income", "2500.00", "Salary", "Checking", "Employer", "Recurring monthly"}))
	if err != nil {
		t.Fatalf("parseEntryRow() error = %v", err)
	}
	if e.Kind != core.Income || e.DayOfWeek != "Sunday" || e.Notes != "Recurring monthly" {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, err := parseEntryRow(toStrings([]interface{}{"", "", "income", "1"})); err == nil {
		t.Error("expected error for missing date")
	}
}

func TestIsBlank(t *testing.T) {
	if !isBlank([]string{"", ""}) || !isBlank(nil) {
		t.Error("empty rows must be blank")
	}
	if isBlank([]string{"", "x"}) {
		t.Error("row with a value is not blank")
	}
}
