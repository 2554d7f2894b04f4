package google

import (
	"fmt"
	"strings"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/transport"
)

// Column layout of the rules sheet (A..L) and the ledger sheet (A..H).
const (
	colRuleID = iota
	colRulePayee
	colRuleCategory
	colRuleAccount
	colRuleNotes
	colRuleAmount
	colRuleType
	colRuleFrequency
	colRuleStart
	colRuleEnd
	colRuleNextDue
	colRuleLastProcessed

	ruleLastCol = "L"
)

const (
	colEntryDate = iota
	colEntryDayOfWeek
	colEntryType
	colEntryAmount
	colEntryCategory
	colEntryAccount
	colEntryPayee
	colEntryNotes

	entryLastCol = "H"
)

func ruleRow(r core.RecurringRule) []any {
	row := []any{
		r.ID, r.Payee, r.Category, r.Account, r.Notes,
		core.FormatAmount(r.Amount), r.Kind.String(), r.Frequency.String(),
		r.StartDate.String(), "", "", "",
	}
	if r.EndDate != nil {
		row[colRuleEnd] = r.EndDate.String()
	}
	if r.NextDue != nil {
		row[colRuleNextDue] = r.NextDue.String()
	}
	if r.LastProcessed != nil {
		row[colRuleLastProcessed] = r.LastProcessed.Format(time.RFC3339)
	}
	return row
}

// parseRuleRow converts the trimmed cells of a rules sheet row. Amounts may
// use either decimal separator.
func parseRuleRow(cols []string) (core.RecurringRule, error) {
	id := safeGet(cols, colRuleID)
	if id == "" {
		return core.RecurringRule{}, fmt.Errorf("row without id")
	}
	amount, err := core.ParseAmount(safeGet(cols, colRuleAmount))
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("rule %s amount %q: %w", id, safeGet(cols, colRuleAmount), err)
	}
	w := transport.RuleWire{
		ID:            id,
		Payee:         safeGet(cols, colRulePayee),
		Category:      safeGet(cols, colRuleCategory),
		Account:       safeGet(cols, colRuleAccount),
		Notes:         safeGet(cols, colRuleNotes),
		Amount:        amount,
		Type:          safeGet(cols, colRuleType),
		Frequency:     safeGet(cols, colRuleFrequency),
		StartDate:     safeGet(cols, colRuleStart),
		EndDate:       optional(safeGet(cols, colRuleEnd)),
		NextDue:       optional(safeGet(cols, colRuleNextDue)),
		LastProcessed: optional(safeGet(cols, colRuleLastProcessed)),
	}
	return w.Rule()
}

func entryRow(e core.LedgerEntry) []any {
	return []any{
		e.Date.String(), e.DayOfWeek, e.Kind.String(), core.FormatAmount(e.Amount),
		e.Category, e.Account, e.Payee, e.Notes,
	}
}

func parseEntryRow(cols []string) (core.LedgerEntry, error) {
	amount, err := core.ParseAmount(safeGet(cols, colEntryAmount))
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("amount %q: %w", safeGet(cols, colEntryAmount), err)
	}
	return transport.EntryWire{
		Date:      safeGet(cols, colEntryDate),
		DayOfWeek: safeGet(cols, colEntryDayOfWeek),
		Type:      safeGet(cols, colEntryType),
		Amount:    amount,
		Category:  safeGet(cols, colEntryCategory),
		Account:   safeGet(cols, colEntryAccount),
		Payee:     safeGet(cols, colEntryPayee),
		Notes:     safeGet(cols, colEntryNotes),
	}.Entry()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
