package services

import (
	"fmt"
	"strings"
)

// Stage names where a rule failed during a batch.
type Stage string

const (
	StageList        Stage = "list"
	StageVerify      Stage = "verify"
	StageMaterialize Stage = "materialize"
	StageAdvance     Stage = "advance"
)

// RuleError is a per-rule failure collected in a batch summary.
type RuleError struct {
	RuleID string
	Stage  Stage
	Err    error
}

func (e *RuleError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("rule %s: %s: %v", e.RuleID, e.Stage, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// Summary reports the outcome of one batch.
type Summary struct {
	Total     int // rules selected as due
	Processed int // rules materialized
	Retired   int // processed rules retired by this batch
	Skipped   int // rules dropped by the lock or verification
	Cancelled bool
	Errors    []*RuleError
}

// Message renders the summary for a person.
func (s Summary) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d of %d recurring transactions", s.Processed, s.Total)
	if s.Retired > 0 {
		fmt.Fprintf(&b, " (%d retired)", s.Retired)
	}
	if s.Cancelled {
		b.WriteString(", batch cancelled")
	}
	for _, e := range s.Errors {
		b.WriteString("\n- ")
		b.WriteString(e.Error())
	}
	return b.String()
}
