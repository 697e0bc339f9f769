package insights

import (
	"errors"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// Granularity is the bucket width of a timeline aggregation.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ErrInvalidGranularity rejects unknown bucket widths.
var ErrInvalidGranularity = errors.New("insights: invalid granularity")

// ErrInvalidRange rejects ranges where end precedes start.
var ErrInvalidRange = errors.New("insights: end precedes start")

// WeatherSummary condenses the observations inside one bucket. Nil when the
// bucket holds no observations.
type WeatherSummary struct {
	MinTempC      float64 `json:"min_temp_c"`
	MaxTempC      float64 `json:"max_temp_c"`
	MeanTempC     float64 `json:"mean_temp_c"`
	Observations  int     `json:"observations"`
	ExtremeEvents int     `json:"extreme_events"`
}

// TimelineBucket is one interval of the aggregated timeline.
type TimelineBucket struct {
	Start       time.Time              `json:"start"`
	End         time.Time              `json:"end"`
	Weather     *WeatherSummary        `json:"weather,omitempty"`
	Maintenance []maintenance.LogEntry `json:"maintenance,omitempty"`
	Count       int                    `json:"count"`
	TotalCost   float64                `json:"total_cost"`
}

// Timeline is the full aggregation result.
type Timeline struct {
	Granularity      Granularity      `json:"granularity"`
	Buckets          []TimelineBucket `json:"buckets"`
	TotalMaintenance int              `json:"total_maintenance"`
	TotalCost        float64          `json:"total_cost"`
}

// Aggregate buckets observations and maintenance entries over [start, end].
// It is a pure function of its inputs; callers resolve open-ended ranges
// before calling.
func Aggregate(observations []weather.Observation, entries []maintenance.LogEntry, start, end time.Time, granularity Granularity) (*Timeline, error) {
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	switch granularity {
	case GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return nil, ErrInvalidGranularity
	}

	timeline := &Timeline{Granularity: granularity}
	for i := 0; ; i++ {
		bucketStart := bucketBoundary(start, granularity, i)
		if bucketStart.After(end) {
			break
		}
		clampedEnd := bucketBoundary(start, granularity, i+1).AddDate(0, 0, -1)
		if clampedEnd.After(end) {
			clampedEnd = end
		}
		bucket := TimelineBucket{Start: bucketStart, End: clampedEnd}

		var (
			summary WeatherSummary
			tempSum float64
		)
		for _, obs := range observations {
			date := dateOnly(obs.Date)
			if date.Before(bucketStart) || date.After(clampedEnd) {
				continue
			}
			if summary.Observations == 0 || obs.TempLowC < summary.MinTempC {
				summary.MinTempC = obs.TempLowC
			}
			if summary.Observations == 0 || obs.TempHighC > summary.MaxTempC {
				summary.MaxTempC = obs.TempHighC
			}
			tempSum += obs.TempMeanC
			summary.Observations++
			summary.ExtremeEvents += len(obs.ExtremeEvents)
		}
		if summary.Observations > 0 {
			summary.MeanTempC = tempSum / float64(summary.Observations)
			bucket.Weather = &summary
		}

		for _, entry := range entries {
			date := dateOnly(entry.Date)
			if date.Before(bucketStart) || date.After(clampedEnd) {
				continue
			}
			bucket.Maintenance = append(bucket.Maintenance, entry)
			bucket.Count++
			bucket.TotalCost += entry.Cost.Total()
		}

		timeline.TotalMaintenance += bucket.Count
		timeline.TotalCost += bucket.TotalCost
		timeline.Buckets = append(timeline.Buckets, bucket)
	}
	return timeline, nil
}

// bucketBoundary returns the start of the n-th bucket counted from the
// range start. Month boundaries stay anchored on the range start's
// day-of-month, clamping into shorter months, so a range starting
// January 31 buckets at Jan 31, Feb 28, Mar 31 instead of drifting.
func bucketBoundary(start time.Time, granularity Granularity, n int) time.Time {
	switch granularity {
	case GranularityWeek:
		return start.AddDate(0, 0, 7*n)
	case GranularityMonth:
		firstOfTarget := time.Date(start.Year(), start.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
		lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
		day := start.Day()
		if day > lastDay {
			day = lastDay
		}
		return firstOfTarget.AddDate(0, 0, day-1)
	default:
		return start.AddDate(0, 0, n)
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
