package schedule

import "time"

const (
	// DefaultMaxOccurrences is the materialization batch cap when the caller
	// does not supply one.
	DefaultMaxOccurrences = 60
	// HardMaxOccurrences bounds a single expansion regardless of the caller's
	// request. Never-ending rules truncate here.
	HardMaxOccurrences = 500
)

// Expansion is the result of expanding a recurrence rule.
type Expansion struct {
	Dates []time.Time `json:"dates"`
	// Truncated is set when expansion stopped at the occurrence cap rather
	// than at the rule's own end condition.
	Truncated bool     `json:"truncated"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Expand produces the ordered occurrence dates for a rule from its anchor.
// It is deterministic: the same rule, anchor and cap always yield the same
// dates. Month-based frequencies use calendar arithmetic computed from the
// anchor, so a month-end anchor stays at month-end.
func Expand(rule RecurrenceRule, anchor time.Time, maxOccurrences int) (Expansion, error) {
	if err := rule.Validate(); err != nil {
		return Expansion{}, err
	}

	limit := maxOccurrences
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	if limit > HardMaxOccurrences {
		limit = HardMaxOccurrences
	}

	anchor = DateOnly(anchor)
	result := Expansion{}

	if endDate, ok := rule.End.OnDate(); ok && anchor.After(endDate) {
		result.Warnings = append(result.Warnings, "end date precedes anchor date; no occurrences will be scheduled")
		return result, nil
	}

	for i := 0; ; i++ {
		candidate := nthOccurrence(rule, anchor, i)

		if endDate, ok := rule.End.OnDate(); ok && candidate.After(endDate) {
			return result, nil
		}
		if count, ok := rule.End.AfterCount(); ok && len(result.Dates) >= count {
			return result, nil
		}
		if len(result.Dates) >= limit {
			result.Truncated = true
			return result, nil
		}

		result.Dates = append(result.Dates, candidate)
	}
}

// NthOccurrence returns the date of occurrence index n (0 = anchor).
func NthOccurrence(rule RecurrenceRule, anchor time.Time, n int) time.Time {
	return nthOccurrence(rule, DateOnly(anchor), n)
}

func nthOccurrence(rule RecurrenceRule, anchor time.Time, n int) time.Time {
	steps := n * rule.Interval
	switch rule.Frequency {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, steps)
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*steps)
	case FrequencyMonthly:
		return addMonthsClamped(anchor, steps)
	case FrequencyQuarterly:
		return addMonthsClamped(anchor, 3*steps)
	case FrequencyAnnually:
		return addMonthsClamped(anchor, 12*steps)
	default:
		return anchor
	}
}

// addMonthsClamped advances by whole calendar months, clamping the day of
// month to the target month's length. Unlike time.Time.AddDate it never
// rolls Jan 31 + 1 month into March.
func addMonthsClamped(anchor time.Time, months int) time.Time {
	firstOfTarget := time.Date(anchor.Year(), anchor.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := anchor.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}
