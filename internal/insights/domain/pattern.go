package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
)

// Confidence grades how much a detected pattern can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PatternConfig holds pattern detection thresholds.
type PatternConfig struct {
	MinOccurrences       int     `yaml:"min_occurrences"`
	HighMinOccurrences   int     `yaml:"high_min_occurrences"`
	HighMinConsistency   float64 `yaml:"high_min_consistency"`
	MediumMinOccurrences int     `yaml:"medium_min_occurrences"`
	MediumMinConsistency float64 `yaml:"medium_min_consistency"`
}

// DefaultPatternConfig returns the stock thresholds.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		MinOccurrences:       3,
		HighMinOccurrences:   5,
		HighMinConsistency:   70,
		MediumMinOccurrences: 3,
		MediumMinConsistency: 50,
	}
}

// Normalize fills gaps left by partial YAML configuration.
func (c PatternConfig) Normalize() PatternConfig {
	defaults := DefaultPatternConfig()
	if c.MinOccurrences < 2 {
		c.MinOccurrences = defaults.MinOccurrences
	}
	if c.HighMinOccurrences < 1 {
		c.HighMinOccurrences = defaults.HighMinOccurrences
	}
	if c.HighMinConsistency <= 0 {
		c.HighMinConsistency = defaults.HighMinConsistency
	}
	if c.MediumMinOccurrences < 1 {
		c.MediumMinOccurrences = defaults.MediumMinOccurrences
	}
	if c.MediumMinConsistency <= 0 {
		c.MediumMinConsistency = defaults.MediumMinConsistency
	}
	return c
}

// Pattern describes a recurring maintenance cadence detected for one system.
type Pattern struct {
	SystemID     string     `json:"system_id"`
	Occurrences  int        `json:"occurrences"`
	IntervalDays float64    `json:"interval_days"`
	Consistency  float64    `json:"consistency"`
	Confidence   Confidence `json:"confidence"`
	Description  string     `json:"description"`
}

// DetectPatterns finds per-system maintenance cadences in a history log.
// Systems with fewer than MinOccurrences entries are skipped. Results are
// ordered by system id.
func DetectPatterns(entries []maintenance.LogEntry, cfg PatternConfig) []Pattern {
	cfg = cfg.Normalize()
	bySystem := make(map[string][]time.Time)
	for _, entry := range entries {
		bySystem[entry.SystemID] = append(bySystem[entry.SystemID], entry.Date)
	}

	var patterns []Pattern
	for systemID, dates := range bySystem {
		if len(dates) < cfg.MinOccurrences {
			continue
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		gaps := make([]float64, 0, len(dates)-1)
		for i := 1; i < len(dates); i++ {
			gaps = append(gaps, dates[i].Sub(dates[i-1]).Hours()/24)
		}
		mean := meanOf(gaps)
		consistency := consistencyOf(gaps, mean)
		pattern := Pattern{
			SystemID:     systemID,
			Occurrences:  len(dates),
			IntervalDays: mean,
			Consistency:  consistency,
			Confidence:   confidenceFor(len(dates), consistency, cfg),
		}
		pattern.Description = describePattern(pattern)
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].SystemID < patterns[j].SystemID })
	return patterns
}

// OverallConfidence is the best confidence across all patterns, low when
// there are none.
func OverallConfidence(patterns []Pattern) Confidence {
	overall := ConfidenceLow
	for _, pattern := range patterns {
		if rank(pattern.Confidence) > rank(overall) {
			overall = pattern.Confidence
		}
	}
	return overall
}

func confidenceFor(occurrences int, consistency float64, cfg PatternConfig) Confidence {
	if occurrences >= cfg.HighMinOccurrences && consistency >= cfg.HighMinConsistency {
		return ConfidenceHigh
	}
	if occurrences >= cfg.MediumMinOccurrences && consistency >= cfg.MediumMinConsistency {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// consistencyOf maps gap variability to a 0..100 score. A mean of zero
// (all entries on the same day) scores zero.
func consistencyOf(gaps []float64, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, gap := range gaps {
		diff := gap - mean
		variance += diff * diff
	}
	variance /= float64(len(gaps))
	stddev := math.Sqrt(variance)

	score := 100 * (1 - stddev/mean)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func describePattern(p Pattern) string {
	cadence := "irregularly"
	switch {
	case p.Consistency >= 70:
		cadence = "on a steady cadence"
	case p.Consistency >= 50:
		cadence = "fairly regularly"
	}
	return fmt.Sprintf("%s is maintained about every %.0f days %s (%d entries)",
		p.SystemID, p.IntervalDays, cadence, p.Occurrences)
}

func rank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}
