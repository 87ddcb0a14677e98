// Package recurrence parses and expands recurrence rules for calendar
// events. Rules use a compact RRULE-style syntax: "FREQ=WEEKLY;INTERVAL=2".
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

type Rule struct {
	Freq     Freq
	Interval int        // always >= 1
	Count    int        // max occurrences (0 = unlimited)
	Until    *time.Time // stop after this date (nil = no limit)
}

// Parse parses a rule string like "FREQ=WEEKLY;INTERVAL=2;COUNT=10".
func Parse(rule string) (Rule, error) {
	if rule == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	r := Rule{Interval: 1}
	var hasFreq bool

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}
		key, val := kv[0], kv[1]

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return Rule{}, fmt.Errorf("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid interval: %q", val)
			}
			r.Interval = n

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid count: %q", val)
			}
			r.Count = n

		case "UNTIL":
			t, err := time.Parse("20060102", val)
			if err != nil {
				return Rule{}, fmt.Errorf("invalid UNTIL: %q", val)
			}
			r.Until = &t

		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, fmt.Errorf("FREQ is required")
	}
	return r, nil
}

// String serializes the rule back to its rule-string form.
func (r Rule) String() string {
	parts := []string{"FREQ=" + freqNames[r.Freq]}
	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.Format("20060102"))
	}
	return strings.Join(parts, ";")
}

// Occurrence is a single generated occurrence of a recurring event.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Expand generates the occurrences of an event within [rangeStart, rangeEnd).
// eventStart and eventEnd define the first occurrence and its duration.
func Expand(rule Rule, eventStart, eventEnd, rangeStart, rangeEnd time.Time) []Occurrence {
	duration := eventEnd.Sub(eventStart)

	// UNTIL is inclusive: a date-only UNTIL covers occurrences at any
	// time of that day, so the cutoff is the start of the following day.
	var cutoff time.Time
	if rule.Until != nil {
		y, m, d := rule.Until.Date()
		cutoff = time.Date(y, m, d, 0, 0, 0, 0, rule.Until.Location()).AddDate(0, 0, 1)
	}

	var out []Occurrence
	start := eventStart
	for n := 0; ; n++ {
		if rule.Count > 0 && n >= rule.Count {
			break
		}
		if rule.Until != nil && !start.Before(cutoff) {
			break
		}
		if !start.Before(rangeEnd) {
			break
		}

		end := start.Add(duration)
		if end.After(rangeStart) {
			out = append(out, Occurrence{Start: start, End: end})
		}
		start = advance(rule, eventStart, n+1)
	}
	return out
}

// advance returns the start of occurrence number n (0 = the event itself).
// Monthly and yearly steps use calendar arithmetic from the original start,
// so a Jan 31 monthly event lands on the normalized date Go produces rather
// than drifting.
func advance(rule Rule, base time.Time, n int) time.Time {
	step := n * rule.Interval
	switch rule.Freq {
	case Daily:
		return base.AddDate(0, 0, step)
	case Weekly:
		return base.AddDate(0, 0, 7*step)
	case Monthly:
		return base.AddDate(0, step, 0)
	case Yearly:
		return base.AddDate(step, 0, 0)
	}
	return base
}
