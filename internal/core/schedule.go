package core

// NextOccurrence returns the occurrence that follows d for the given frequency.
// Month and year steps use time.AddDate, so a day of month that does not exist
// in the target month overflows into the next one (Jan 31 + 1 month = Mar 3 in
// a 28-day February). An unknown frequency advances by one day; callers are
// expected to log it.
func NextOccurrence(d Date, f Frequency) Date {
	switch f {
	case Daily:
		return Date{Time: d.AddDate(0, 0, 1)}
	case Weekly:
		return Date{Time: d.AddDate(0, 0, 7)}
	case Biweekly:
		return Date{Time: d.AddDate(0, 0, 14)}
	case Monthly:
		return Date{Time: d.AddDate(0, 1, 0)}
	case Quarterly:
		return Date{Time: d.AddDate(0, 3, 0)}
	case Yearly:
		return Date{Time: d.AddDate(1, 0, 0)}
	case FrequencyUnknown:
		return Date{Time: d.AddDate(0, 0, 1)}
	}
	return Date{Time: d.AddDate(0, 0, 1)}
}

// LastOccurrenceOnOrBefore walks the schedule from start and returns the last
// occurrence not later than limit. It reports false when start itself is
// already past limit.
func LastOccurrenceOnOrBefore(start Date, f Frequency, limit Date) (Date, bool) {
	if start.After(limit) {
		return Date{}, false
	}
	last := start
	for {
		next := NextOccurrence(last, f)
		if next.After(limit) {
			return last, true
		}
		last = next
	}
}
