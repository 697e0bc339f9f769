package insights

import (
	"sort"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// CorrelationConfig controls cold-snap matching and seasonal grouping.
type CorrelationConfig struct {
	ColdEventTypes   []string              `yaml:"cold_event_types"`
	MinSeverity      int                   `yaml:"min_severity"`
	LookbackDays     int                   `yaml:"lookback_days"`
	SeasonByMonth    map[time.Month]string `yaml:"-"`
	SeasonByMonthRaw map[int]string        `yaml:"season_by_month"`
}

// DefaultCorrelationConfig returns northern-hemisphere defaults.
func DefaultCorrelationConfig() CorrelationConfig {
	return CorrelationConfig{
		ColdEventTypes: []string{weather.EventColdSnap, weather.EventIceStorm},
		MinSeverity:    2,
		LookbackDays:   14,
		SeasonByMonth: map[time.Month]string{
			time.December: "winter", time.January: "winter", time.February: "winter",
			time.March: "spring", time.April: "spring", time.May: "spring",
			time.June: "summer", time.July: "summer", time.August: "summer",
			time.September: "fall", time.October: "fall", time.November: "fall",
		},
	}
}

// Normalize fills gaps left by partial YAML configuration.
func (c CorrelationConfig) Normalize() CorrelationConfig {
	defaults := DefaultCorrelationConfig()
	if len(c.ColdEventTypes) == 0 {
		c.ColdEventTypes = defaults.ColdEventTypes
	}
	if c.MinSeverity < 1 {
		c.MinSeverity = defaults.MinSeverity
	}
	if c.LookbackDays < 1 {
		c.LookbackDays = defaults.LookbackDays
	}
	if len(c.SeasonByMonthRaw) > 0 {
		c.SeasonByMonth = make(map[time.Month]string, len(c.SeasonByMonthRaw))
		for month, season := range c.SeasonByMonthRaw {
			if month >= 1 && month <= 12 {
				c.SeasonByMonth[time.Month(month)] = season
			}
		}
	}
	if len(c.SeasonByMonth) == 0 {
		c.SeasonByMonth = defaults.SeasonByMonth
	}
	return c
}

// Correlation links a maintenance entry to the nearest preceding cold snap.
type Correlation struct {
	Entry       maintenance.LogEntry `json:"entry"`
	Observation weather.Observation  `json:"observation"`
	DaysAfter   int                  `json:"days_after"`
}

// SeasonSummary aggregates maintenance activity for one season.
type SeasonSummary struct {
	Season    string  `json:"season"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"total_cost"`
}

// Correlate scans backward from each log entry for the nearest cold-snap
// observation within the lookback window. Days without an observation do
// not break the scan; they simply cannot match.
func Correlate(entries []maintenance.LogEntry, observations []weather.Observation, cfg CorrelationConfig) []Correlation {
	cfg = cfg.Normalize()

	byDate := make(map[string]weather.Observation, len(observations))
	for _, obs := range observations {
		byDate[obs.Date.UTC().Format("2006-01-02")] = obs
	}

	var correlations []Correlation
	for _, entry := range entries {
		for daysBack := 0; daysBack <= cfg.LookbackDays; daysBack++ {
			date := entry.Date.UTC().AddDate(0, 0, -daysBack)
			obs, ok := byDate[date.Format("2006-01-02")]
			if !ok {
				continue
			}
			if !isColdSnap(obs, cfg) {
				continue
			}
			correlations = append(correlations, Correlation{
				Entry:       entry,
				Observation: obs,
				DaysAfter:   daysBack,
			})
			break
		}
	}
	sort.Slice(correlations, func(i, j int) bool {
		if correlations[i].Entry.Date.Equal(correlations[j].Entry.Date) {
			return correlations[i].Entry.ID < correlations[j].Entry.ID
		}
		return correlations[i].Entry.Date.Before(correlations[j].Entry.Date)
	})
	return correlations
}

// SeasonalBreakdown groups maintenance entries into seasons. Zero-cost
// entries contribute to the count but not the cost.
func SeasonalBreakdown(entries []maintenance.LogEntry, cfg CorrelationConfig) []SeasonSummary {
	cfg = cfg.Normalize()

	totals := make(map[string]*SeasonSummary)
	for _, entry := range entries {
		season, ok := cfg.SeasonByMonth[entry.Date.UTC().Month()]
		if !ok {
			continue
		}
		summary, exists := totals[season]
		if !exists {
			summary = &SeasonSummary{Season: season}
			totals[season] = summary
		}
		summary.Count++
		summary.TotalCost += entry.Cost.Total()
	}

	result := make([]SeasonSummary, 0, len(totals))
	for _, summary := range totals {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Season < result[j].Season })
	return result
}

func isColdSnap(obs weather.Observation, cfg CorrelationConfig) bool {
	for _, eventType := range cfg.ColdEventTypes {
		if obs.HasEvent(eventType, cfg.MinSeverity) {
			return true
		}
	}
	return false
}
