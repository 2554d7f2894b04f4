package http

import (
	"errors"
	"testing"

	"ledgerbook/internal/core"
)

func TestRuleRequest_Rule(t *testing.T) {
	tests := []struct {
		name    string
		req     RuleRequest
		wantErr error
	}{
		{
			name: "valid with end date",
			req: RuleRequest{Payee: " Rent\x00 ", Category: "Housing", Amount: "900", Type: "expense",
				Frequency: "monthly", StartDate: "2026-01-01", EndDate: "2026-12-31"},
		},
		{
			name:    "bad start date",
			req:     RuleRequest{Payee: "Rent", Category: "Housing", Amount: "900", Type: "expense", Frequency: "monthly", StartDate: "01/01/2026"},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "bad kind",
			req:     RuleRequest{Payee: "Rent", Category: "Housing", Amount: "900", Type: "transfer", Frequency: "monthly", StartDate: "2026-01-01"},
			wantErr: core.ErrUnknownKind,
		},
		{
			name:    "negative amount",
			req:     RuleRequest{Payee: "Rent", Category: "Housing", Amount: "-5", Type: "expense", Frequency: "monthly", StartDate: "2026-01-01"},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "empty category",
			req:     RuleRequest{Payee: "Rent", Amount: "5", Type: "expense", Frequency: "monthly", StartDate: "2026-01-01"},
			wantErr: core.ErrEmptyCategory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.req.Rule()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rule() error = %v", err)
			}
			if r.Payee != "Rent" {
				t.Errorf("payee not sanitized: %q", r.Payee)
			}
			if r.EndDate == nil || r.EndDate.String() != "2026-12-31" {
				t.Errorf("end date = %v", r.EndDate)
			}
		})
	}
}

func TestEntryRequest_Entry(t *testing.T) {
	e, err := EntryRequest{Date: "2026-02-03", Type: "income", Amount: "10,5", Category: "Salary"}.Entry()
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if e.DayOfWeek != "Tuesday" || e.Amount.StringFixed(2) != "10.50" || e.Kind != core.Income {
		t.Errorf("unexpected entry %+v", e)
	}

	if _, err := (EntryRequest{Date: "2026-02-03", Type: "income", Amount: "1"}).Entry(); !errors.Is(err, core.ErrEmptyCategory) {
		t.Errorf("err = %v, want ErrEmptyCategory", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x01b\tc  "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
