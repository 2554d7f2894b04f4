package core

import (
	"sort"
	"strconv"
)

// IsDue is the explicit eligibility predicate of the due set. It must agree
// with Classify returning Overdue or Due for every rule.
func IsDue(r RecurringRule, today Date) bool {
	if r.NextDue == nil {
		return false
	}
	if r.StartDate.After(today) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Before(today) {
		return false
	}
	if r.EndDate != nil && r.NextDue.After(*r.EndDate) {
		return false
	}
	return !r.NextDue.After(today)
}

// SelectDue returns the rules that are actionable on today, ordered by id.
func SelectDue(rules []RecurringRule, today Date) []RecurringRule {
	due := make([]RecurringRule, 0, len(rules))
	for _, r := range rules {
		if Classify(r, today).Actionable() {
			due = append(due, r)
		}
	}
	SortByID(due)
	return due
}

// SortByID orders rules by id: numeric ids compare numerically and sort before
// non-numeric ones, which compare lexicographically.
func SortByID(rules []RecurringRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return lessID(rules[i].ID, rules[j].ID)
	})
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
