package schedule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRuleWire_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		rule RecurrenceRule
	}{
		{"never", RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, End: EndNever()}},
		{"on date", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 2, End: EndOnDate(date(2026, time.March, 31))}},
		{"after count", RecurrenceRule{Frequency: FrequencyQuarterly, Interval: 1, End: EndAfterCount(8)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := json.Marshal(tc.rule)
			if err != nil {
				t.Fatalf("marshal error: %v", err)
			}
			var decoded RecurrenceRule
			if err := json.Unmarshal(encoded, &decoded); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}
			if decoded.Frequency != tc.rule.Frequency || decoded.Interval != tc.rule.Interval {
				t.Fatalf("frequency/interval did not round-trip: %+v", decoded)
			}
			if decoded.End != tc.rule.End {
				t.Fatalf("end condition did not round-trip: %+v vs %+v", decoded.End, tc.rule.End)
			}
			reencoded, err := json.Marshal(decoded)
			if err != nil {
				t.Fatalf("re-marshal error: %v", err)
			}
			if string(encoded) != string(reencoded) {
				t.Fatalf("wire form not stable: %s vs %s", encoded, reencoded)
			}
		})
	}
}

func TestRuleWire_RejectsConflictingEndConditions(t *testing.T) {
	var rule RecurrenceRule
	err := json.Unmarshal([]byte(`{"frequency":"monthly","interval":1,"end_date":"2026-01-01","end_after":5}`), &rule)
	if !errors.Is(err, ErrConflictingEndConditions) {
		t.Fatalf("expected ErrConflictingEndConditions, got %v", err)
	}
}

func TestRuleValidate(t *testing.T) {
	cases := []struct {
		name     string
		rule     RecurrenceRule
		expected error
	}{
		{"valid", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, End: EndNever()}, nil},
		{"zero interval", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 0, End: EndNever()}, ErrInvalidInterval},
		{"negative interval", RecurrenceRule{Frequency: FrequencyDaily, Interval: -2, End: EndNever()}, ErrInvalidInterval},
		{"bad frequency", RecurrenceRule{Frequency: "hourly", Interval: 1, End: EndNever()}, ErrInvalidFrequency},
		{"zero count", RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, End: EndAfterCount(0)}, ErrInvalidEndCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rule.Validate(); !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}
