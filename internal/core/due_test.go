package core

import (
	"testing"
	"time"
)

func TestIsDueAgreesWithClassify(t *testing.T) {
	days := []Date{
		NewDate(2026, 1, 1), NewDate(2026, 1, 15), NewDate(2026, 2, 1),
		NewDate(2026, 2, 20), NewDate(2026, 3, 31),
	}
	var ptrs []*Date
	ptrs = append(ptrs, nil)
	for _, d := range days {
		ptrs = append(ptrs, DatePtr(d))
	}

	for _, today := range days {
		for _, start := range days {
			for _, end := range ptrs {
				for _, next := range ptrs {
					r := validRule()
					r.StartDate, r.EndDate, r.NextDue = start, end, next
					want := Classify(r, today).Actionable()
					if got := IsDue(r, today); got != want {
						t.Fatalf("today=%s start=%s end=%v next=%v: IsDue=%v Classify=%s",
							today, start, end, next, got, Classify(r, today))
					}
				}
			}
		}
	}
}

func TestSelectDue(t *testing.T) {
	today := NewDate(2026, 2, 20)
	mk := func(id string, next *Date) RecurringRule {
		r := validRule()
		r.ID = id
		r.NextDue = next
		return r
	}
	rules := []RecurringRule{
		mk("10", DatePtr(NewDate(2026, 2, 1))),
		mk("2", DatePtr(today)),
		mk("3", DatePtr(NewDate(2026, 3, 1))),
		mk("4", nil),
		mk("abc", DatePtr(NewDate(2026, 2, 19))),
		mk("1", DatePtr(NewDate(2026, 1, 20))),
	}

	got := SelectDue(rules, today)
	want := []string{"1", "2", "10", "abc"}
	if len(got) != len(want) {
		t.Fatalf("SelectDue() returned %d rules, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSelectDueEmpty(t *testing.T) {
	if got := SelectDue(nil, NewDate(2026, 2, 20)); len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}

// Walking a monthly rule day by day and advancing whenever it is due yields
// exactly one occurrence per month.
func TestDueWalkMonthly(t *testing.T) {
	r := validRule()
	r.StartDate = NewDate(2026, 1, 1)
	r.NextDue = DatePtr(NewDate(2026, 1, 1))
	r.EndDate = DatePtr(NewDate(2026, 6, 30))

	var hits []string
	for day := r.StartDate.Time; !day.After(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)); day = day.AddDate(0, 0, 1) {
		today := DateOf(day)
		if !IsDue(r, today) {
			continue
		}
		hits = append(hits, today.String())
		next := NextOccurrence(*r.NextDue, r.Frequency)
		if next.After(*r.EndDate) {
			r.NextDue = nil
		} else {
			r.NextDue = &next
		}
	}
	if len(hits) != 6 {
		t.Fatalf("got %d occurrences %v, want 6", len(hits), hits)
	}
	if !r.Retired() {
		t.Fatal("rule should be retired after its last occurrence")
	}
}
