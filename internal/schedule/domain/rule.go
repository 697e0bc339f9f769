package schedule

import (
	"encoding/json"
	"time"
)

// Frequency is the base unit of a recurrence rule.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

// Valid reports whether the frequency is supported.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	default:
		return false
	}
}

type endKind int

const (
	endNever endKind = iota
	endOnDate
	endAfterCount
)

// EndCondition is a tagged variant: Never, OnDate(date) or AfterCount(n).
// Invalid combinations are unrepresentable; use the constructors.
type EndCondition struct {
	kind  endKind
	date  time.Time
	count int
}

// EndNever returns the open-ended end condition.
func EndNever() EndCondition {
	return EndCondition{kind: endNever}
}

// EndOnDate returns an end condition bounded by a final date (inclusive).
func EndOnDate(date time.Time) EndCondition {
	return EndCondition{kind: endOnDate, date: DateOnly(date)}
}

// EndAfterCount returns an end condition bounded by an occurrence count.
func EndAfterCount(count int) EndCondition {
	return EndCondition{kind: endAfterCount, count: count}
}

// IsNever reports whether the condition is open-ended.
func (e EndCondition) IsNever() bool { return e.kind == endNever }

// OnDate returns the boundary date when the condition is date-bounded.
func (e EndCondition) OnDate() (time.Time, bool) {
	if e.kind != endOnDate {
		return time.Time{}, false
	}
	return e.date, true
}

// AfterCount returns the occurrence count when the condition is count-bounded.
func (e EndCondition) AfterCount() (int, bool) {
	if e.kind != endAfterCount {
		return 0, false
	}
	return e.count, true
}

// RecurrenceRule describes how a series repeats from its anchor date.
type RecurrenceRule struct {
	Frequency Frequency
	Interval  int
	End       EndCondition
}

// Validate checks rule invariants.
func (r RecurrenceRule) Validate() error {
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	if count, ok := r.End.AfterCount(); ok && count < 1 {
		return ErrInvalidEndCount
	}
	return nil
}

// ruleWire is the persisted shape of a rule. Exactly one of end_date and
// end_after is populated; both absent means never-ending.
type ruleWire struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	EndDate   string    `json:"end_date,omitempty"`
	EndAfter  int       `json:"end_after,omitempty"`
}

// MarshalJSON encodes the rule in its wire shape.
func (r RecurrenceRule) MarshalJSON() ([]byte, error) {
	wire := ruleWire{Frequency: r.Frequency, Interval: r.Interval}
	if date, ok := r.End.OnDate(); ok {
		wire.EndDate = date.Format("2006-01-02")
	}
	if count, ok := r.End.AfterCount(); ok {
		wire.EndAfter = count
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire shape, rejecting conflicting end conditions.
func (r *RecurrenceRule) UnmarshalJSON(data []byte) error {
	var wire ruleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.EndDate != "" && wire.EndAfter != 0 {
		return ErrConflictingEndConditions
	}
	rule := RecurrenceRule{Frequency: wire.Frequency, Interval: wire.Interval, End: EndNever()}
	if wire.EndDate != "" {
		date, err := time.Parse("2006-01-02", wire.EndDate)
		if err != nil {
			return err
		}
		rule.End = EndOnDate(date)
	}
	if wire.EndAfter != 0 {
		rule.End = EndAfterCount(wire.EndAfter)
	}
	*r = rule
	return nil
}

// DateOnly truncates a time to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
