package core

import "testing"

func TestClassify(t *testing.T) {
	today := NewDate(2026, 2, 20)
	tests := []struct {
		name  string
		start Date
		end   *Date
		next  *Date
		want  Status
	}{
		{"retired", NewDate(2026, 1, 1), nil, nil, StatusInactive},
		{"not started", NewDate(2026, 3, 1), nil, DatePtr(NewDate(2026, 3, 1)), StatusInactive},
		{"window closed", NewDate(2026, 1, 1), DatePtr(NewDate(2026, 2, 5)), DatePtr(NewDate(2026, 2, 5)), StatusInactive},
		{"next due past end", NewDate(2026, 1, 1), DatePtr(NewDate(2026, 2, 25)), DatePtr(NewDate(2026, 3, 1)), StatusInactive},
		{"overdue", NewDate(2026, 1, 1), nil, DatePtr(NewDate(2026, 2, 1)), StatusOverdue},
		{"due today", NewDate(2026, 1, 1), nil, DatePtr(today), StatusDue},
		{"due on last day", NewDate(2026, 1, 1), DatePtr(today), DatePtr(today), StatusDue},
		{"not yet due", NewDate(2026, 1, 1), nil, DatePtr(NewDate(2026, 3, 1)), StatusActive},
		{"starts today", today, nil, DatePtr(today), StatusDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			r.StartDate, r.EndDate, r.NextDue = tt.start, tt.end, tt.next
			if got := Classify(r, today); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

// An inactive condition must win even when nextDue would otherwise make the
// rule overdue.
func TestClassifyInactiveDominates(t *testing.T) {
	r := validRule()
	r.StartDate = NewDate(2026, 1, 1)
	r.NextDue = DatePtr(NewDate(2026, 1, 10))
	r.EndDate = DatePtr(NewDate(2026, 1, 5))

	if got := Classify(r, NewDate(2026, 2, 1)); got != StatusInactive {
		t.Fatalf("Classify() = %s, want inactive", got)
	}
	if IsDue(r, NewDate(2026, 2, 1)) {
		t.Fatal("IsDue() = true for an inactive rule")
	}
}

func TestStatusActionable(t *testing.T) {
	tests := map[Status]bool{
		StatusActive:   false,
		StatusDue:      true,
		StatusOverdue:  true,
		StatusInactive: false,
	}
	for s, want := range tests {
		if got := s.Actionable(); got != want {
			t.Errorf("%s.Actionable() = %v, want %v", s, got, want)
		}
	}
}
