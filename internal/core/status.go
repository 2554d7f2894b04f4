package core

// Status is the lifecycle state of a rule on a given day.
type Status int

const (
	StatusActive Status = iota
	StatusDue
	StatusOverdue
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusOverdue:
		return "overdue"
	case StatusDue:
		return "due"
	default:
		return "active"
	}
}

// Actionable reports whether a rule in this status may be materialized.
func (s Status) Actionable() bool {
	return s == StatusOverdue || s == StatusDue
}

// Classify derives the status of r on today. The checks run in a fixed
// priority order and the first match wins: any inactive condition dominates
// overdue and due, so an inactive rule is never materialized.
func Classify(r RecurringRule, today Date) Status {
	switch {
	case r.NextDue == nil:
		return StatusInactive
	case r.StartDate.After(today):
		return StatusInactive
	case r.EndDate != nil && r.EndDate.Before(today):
		return StatusInactive
	case r.EndDate != nil && r.NextDue.After(*r.EndDate):
		// nextDue past the window breaks the rule invariant; treat it as closed.
		return StatusInactive
	case r.NextDue.Before(today):
		return StatusOverdue
	case r.NextDue.Equal(today):
		return StatusDue
	default:
		return StatusActive
	}
}
