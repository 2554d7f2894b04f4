package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring rule repeats. The zero value is an
// unknown frequency decoded from a foreign value.
type Frequency int

const (
	FrequencyUnknown Frequency = iota
	Daily
	Weekly
	Biweekly
	Monthly
	Quarterly
	Yearly
)

// Kind carries the direction of an amount.
type Kind int

const (
	KindUnknown Kind = iota
	Expense
	Income
)

type (
	Date struct {
		time.Time
	}

	// RecurringRule is a user-declared repeating transaction template.
	RecurringRule struct {
		ID            string
		Payee         string
		Category      string
		Account       string
		Notes         string
		Amount        decimal.Decimal
		Kind          Kind
		Frequency     Frequency
		StartDate     Date
		EndDate       *Date
		NextDue       *Date // nil means retired
		LastProcessed *time.Time
	}

	// LedgerEntry is a single materialized transaction.
	LedgerEntry struct {
		RowIndex  int // positional id assigned by the store, 0 before it is stored
		Date      Date
		DayOfWeek string
		Kind      Kind
		Amount    decimal.Decimal
		Category  string
		Account   string
		Payee     string
		Notes     string
	}

	// ScheduleUpdate is the single write that advances or retires a rule.
	ScheduleUpdate struct {
		NextDue       *Date // nil retires the rule
		LastProcessed time.Time
	}

	// RuleUpdate is a partial update. Nil parts leave the stored values untouched.
	RuleUpdate struct {
		Schedule *ScheduleUpdate
		Details  *RecurringRule
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyPayee       = errors.New("empty payee")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrUnknownKind      = errors.New("unknown kind")
	ErrEndBeforeStart   = errors.New("end date must not be before start date")
)

var frequencyNames = map[Frequency]string{
	Daily:     "daily",
	Weekly:    "weekly",
	Biweekly:  "biweekly",
	Monthly:   "monthly",
	Quarterly: "quarterly",
	Yearly:    "yearly",
}

// Frequencies lists every supported frequency in ascending period order.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	_, ok := frequencyNames[f]
	return ok
}

// ParseFrequency accepts the lower-case names used on the wire, ignoring case
// and surrounding spaces.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range frequencyNames {
		if name == s {
			return f, nil
		}
	}
	return FrequencyUnknown, fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
}

func (k Kind) String() string {
	switch k {
	case Expense:
		return "expense"
	case Income:
		return "income"
	default:
		return "unknown"
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return Expense, nil
	case "income":
		return Income, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses the ISO form "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same calendar date.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// DatePtr is a convenience for optional date fields.
func DatePtr(d Date) *Date {
	return &d
}

func (r RecurringRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if r.EndDate != nil {
		if err := r.EndDate.Validate(); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if r.EndDate.Before(r.StartDate) {
			return ErrEndBeforeStart
		}
	}
	if !r.Frequency.Valid() {
		return ErrUnknownFrequency
	}
	switch r.Kind {
	case Expense, Income:
	default:
		return ErrUnknownKind
	}
	if len(strings.TrimSpace(r.Payee)) == 0 {
		return ErrEmptyPayee
	}
	if len(r.Payee) > 200 {
		return errors.New("payee too long (max 200 characters)")
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Retired reports whether the rule has been permanently disabled.
func (r RecurringRule) Retired() bool {
	return r.NextDue == nil
}

// Materialize builds the ledger entry for the rule's current due occurrence,
// dated on the calendar day of now.
func Materialize(r RecurringRule, now time.Time) LedgerEntry {
	today := DateOf(now)
	return LedgerEntry{
		Date:      today,
		DayOfWeek: today.Weekday().String(),
		Kind:      r.Kind,
		Amount:    r.Amount,
		Category:  r.Category,
		Account:   r.Account,
		Payee:     r.Payee,
		Notes:     strings.TrimSpace(fmt.Sprintf("%s Recurring %s", strings.TrimSpace(r.Notes), r.Frequency)),
	}
}

// Signed returns the amount with the sign implied by the entry kind.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Kind == Expense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Apply merges a partial update into r. Details replace the descriptive and
// schedule-definition fields, Schedule replaces nextDue and lastProcessed. A
// retired rule never gets a nextDue back.
func (r RecurringRule) Apply(u RuleUpdate) RecurringRule {
	if d := u.Details; d != nil {
		r.Payee = d.Payee
		r.Category = d.Category
		r.Account = d.Account
		r.Notes = d.Notes
		r.Amount = d.Amount
		r.Kind = d.Kind
		r.Frequency = d.Frequency
		r.StartDate = d.StartDate
		r.EndDate = d.EndDate
	}
	if s := u.Schedule; s != nil {
		if r.NextDue != nil {
			r.NextDue = s.NextDue
		}
		lp := s.LastProcessed
		if !lp.IsZero() {
			r.LastProcessed = &lp
		}
	}
	return r
}
