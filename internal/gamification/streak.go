package gamification

import "time"

// DateLayout is the calendar-day format stored in streak and activity-log
// records. Streak arithmetic works on calendar days, not 24h windows.
const DateLayout = "2006-01-02"

// AdvanceStreak computes the streak counters after activity on the given
// day. last is the stored last-activity date ("" for a brand-new streak).
//
//	same day            -> unchanged
//	exactly one day on  -> current+1
//	longer gap or first -> reset to 1
//
// changed reports whether the stored record needs updating.
func AdvanceStreak(current, max int, last string, now time.Time) (newCurrent, newMax int, newLast string, changed bool) {
	today := now.Format(DateLayout)
	if last == today {
		return current, max, last, false
	}

	gap := daysBetween(last, today)
	switch {
	case gap == 1:
		newCurrent = current + 1
	default:
		newCurrent = 1
	}
	newMax = max
	if newCurrent > newMax {
		newMax = newCurrent
	}
	return newCurrent, newMax, today, true
}

// daysBetween returns the whole calendar days from one stored date to
// another. Unparseable or empty dates count as an unbounded gap.
func daysBetween(from, to string) int {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 1 << 30
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 1 << 30
	}
	return int(b.Sub(a).Hours() / 24)
}
