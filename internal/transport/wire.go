package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
)

// Dataset keys of the query payloads.
const (
	RecurringKey    = "recurringTransactions"
	TransactionsKey = "transactions"
)

// RuleWire is the JSON form of a recurring rule. Dates travel as
// "2006-01-02", an empty or null nextDue means retired.
type RuleWire struct {
	ID            string          `json:"id"`
	Payee         string          `json:"payee"`
	Category      string          `json:"category"`
	Account       string          `json:"account"`
	Notes         string          `json:"notes"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Frequency     string          `json:"frequency"`
	StartDate     string          `json:"startDate"`
	EndDate       *string         `json:"endDate"`
	NextDue       *string         `json:"nextDue"`
	LastProcessed *string         `json:"lastProcessed"`
}

// EntryWire is the JSON form of a ledger row.
type EntryWire struct {
	RowIndex  int             `json:"rowIndex,omitempty"`
	Date      string          `json:"date"`
	DayOfWeek string          `json:"dayOfWeek"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Account   string          `json:"account"`
	Payee     string          `json:"payee"`
	Notes     string          `json:"notes"`
}

func RuleToWire(r core.RecurringRule) RuleWire {
	w := RuleWire{
		ID:        r.ID,
		Payee:     r.Payee,
		Category:  r.Category,
		Account:   r.Account,
		Notes:     r.Notes,
		Amount:    r.Amount,
		Type:      r.Kind.String(),
		Frequency: r.Frequency.String(),
		StartDate: r.StartDate.String(),
		EndDate:   dateString(r.EndDate),
		NextDue:   dateString(r.NextDue),
	}
	if r.LastProcessed != nil {
		s := r.LastProcessed.Format(time.RFC3339)
		w.LastProcessed = &s
	}
	return w
}

// Rule decodes the wire form. Unknown frequency and kind values are kept as
// their Unknown enum value and logged; malformed dates are an error.
func (w RuleWire) Rule() (core.RecurringRule, error) {
	r := core.RecurringRule{
		ID:       strings.TrimSpace(w.ID),
		Payee:    w.Payee,
		Category: w.Category,
		Account:  w.Account,
		Notes:    w.Notes,
		Amount:   w.Amount,
	}

	freq, err := core.ParseFrequency(w.Frequency)
	if err != nil {
		slog.Warn("Unknown frequency on recurring rule", "rule_id", r.ID, "frequency", w.Frequency)
	}
	r.Frequency = freq

	kind, err := core.ParseKind(w.Type)
	if err != nil {
		slog.Warn("Unknown type on recurring rule", "rule_id", r.ID, "type", w.Type)
	}
	r.Kind = kind

	start, err := ParseWireDate(w.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("rule %s start date: %w", r.ID, err)
	}
	if start == nil {
		return core.RecurringRule{}, fmt.Errorf("rule %s: %w: missing start date", r.ID, core.ErrInvalidDate)
	}
	r.StartDate = *start

	if r.EndDate, err = parseOptionalDate(w.EndDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("rule %s end date: %w", r.ID, err)
	}
	if r.NextDue, err = parseOptionalDate(w.NextDue); err != nil {
		return core.RecurringRule{}, fmt.Errorf("rule %s next due: %w", r.ID, err)
	}
	if w.LastProcessed != nil && strings.TrimSpace(*w.LastProcessed) != "" {
		ts, err := ParseTimestamp(*w.LastProcessed)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("rule %s last processed: %w", r.ID, err)
		}
		r.LastProcessed = &ts
	}
	return r, nil
}

func EntryToWire(e core.LedgerEntry) EntryWire {
	return EntryWire{
		RowIndex:  e.RowIndex,
		Date:      e.Date.String(),
		DayOfWeek: e.DayOfWeek,
		Type:      e.Kind.String(),
		Amount:    e.Amount,
		Category:  e.Category,
		Account:   e.Account,
		Payee:     e.Payee,
		Notes:     e.Notes,
	}
}

func (w EntryWire) Entry() (core.LedgerEntry, error) {
	d, err := ParseWireDate(w.Date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("row %d date: %w", w.RowIndex, err)
	}
	if d == nil {
		return core.LedgerEntry{}, fmt.Errorf("row %d: %w: missing date", w.RowIndex, core.ErrInvalidDate)
	}
	kind, err := core.ParseKind(w.Type)
	if err != nil {
		slog.Warn("Unknown type on ledger row", "row_index", w.RowIndex, "type", w.Type)
	}
	dow := w.DayOfWeek
	if dow == "" {
		dow = d.Weekday().String()
	}
	return core.LedgerEntry{
		RowIndex:  w.RowIndex,
		Date:      *d,
		DayOfWeek: dow,
		Kind:      kind,
		Amount:    w.Amount,
		Category:  w.Category,
		Account:   w.Account,
		Payee:     w.Payee,
		Notes:     w.Notes,
	}, nil
}

// ParseWireDate accepts "2006-01-02" and full timestamps, of which only the
// date part is kept. An empty string yields nil.
func ParseWireDate(s string) (*core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) > len(time.DateOnly) && s[len(time.DateOnly)] == 'T' {
		s = s[:len(time.DateOnly)]
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseTimestamp accepts RFC 3339 timestamps and bare dates.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	if d, err := core.ParseDate(s); err == nil {
		return d.Time, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseOptionalDate(s *string) (*core.Date, error) {
	if s == nil {
		return nil, nil
	}
	return ParseWireDate(*s)
}

func dateString(d *core.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// EncodeRules renders the getRecurringTransactions payload.
func EncodeRules(rules []core.RecurringRule) ([]byte, error) {
	wires := make([]RuleWire, 0, len(rules))
	for _, r := range rules {
		wires = append(wires, RuleToWire(r))
	}
	return json.Marshal(map[string][]RuleWire{RecurringKey: wires})
}

// EncodeEntries renders the getTransactions payload.
func EncodeEntries(entries []core.LedgerEntry) ([]byte, error) {
	wires := make([]EntryWire, 0, len(entries))
	for _, e := range entries {
		wires = append(wires, EntryToWire(e))
	}
	return json.Marshal(map[string][]EntryWire{TransactionsKey: wires})
}

// DecodeRules extracts the rules of a getRecurringTransactions payload. A body
// that is not a JSON object is a transport error; a missing or malformed
// dataset key is no data. Rules that fail to decode are skipped with a warning.
func DecodeRules(body []byte) ([]core.RecurringRule, error) {
	raw, err := datasetItems(body, RecurringKey)
	if err != nil {
		return nil, err
	}
	rules := make([]core.RecurringRule, 0, len(raw))
	for _, item := range raw {
		var w RuleWire
		if err := json.Unmarshal(item, &w); err != nil {
			slog.Warn("Skipping undecodable recurring rule", "error", err)
			continue
		}
		r, err := w.Rule()
		if err != nil {
			slog.Warn("Skipping invalid recurring rule", "error", err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// DecodeEntries extracts the rows of a getTransactions payload with the same
// leniency as DecodeRules.
func DecodeEntries(body []byte) ([]core.LedgerEntry, error) {
	raw, err := datasetItems(body, TransactionsKey)
	if err != nil {
		return nil, err
	}
	entries := make([]core.LedgerEntry, 0, len(raw))
	for _, item := range raw {
		var w EntryWire
		if err := json.Unmarshal(item, &w); err != nil {
			slog.Warn("Skipping undecodable ledger row", "error", err)
			continue
		}
		e, err := w.Entry()
		if err != nil {
			slog.Warn("Skipping invalid ledger row", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func datasetItems(body []byte, key string) ([]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrTransport, err)
	}
	value, ok := payload[key]
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		slog.Warn("Malformed dataset in payload, treating as empty", "dataset", key, "error", err)
		return nil, nil
	}
	return items, nil
}
