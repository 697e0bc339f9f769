package insights

import (
	"errors"
	"testing"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

func TestAggregate_DayGranularity(t *testing.T) {
	start := d(2025, time.March, 1)
	end := d(2025, time.March, 10)

	var observations []weather.Observation
	for i := 0; i < 10; i++ {
		observations = append(observations, mildObservation(start.AddDate(0, 0, i)))
	}
	entries := []maintenance.LogEntry{
		entryOn("system-furnace", d(2025, time.March, 4), 75),
	}

	timeline, err := Aggregate(observations, entries, start, end, GranularityDay)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(timeline.Buckets) != 10 {
		t.Fatalf("a 10-day range at day granularity must yield 10 buckets, got %d", len(timeline.Buckets))
	}
	for i, bucket := range timeline.Buckets {
		if !bucket.Start.Equal(start.AddDate(0, 0, i)) {
			t.Fatalf("bucket %d starts at %s", i, bucket.Start)
		}
		if bucket.Weather == nil {
			t.Fatalf("bucket %d missing weather summary", i)
		}
		if bucket.Weather.Observations != 1 {
			t.Fatalf("bucket %d has %d observations", i, bucket.Weather.Observations)
		}
	}
	if timeline.TotalMaintenance != 1 || timeline.TotalCost != 75 {
		t.Fatalf("unexpected totals: %d / %f", timeline.TotalMaintenance, timeline.TotalCost)
	}
	if timeline.Buckets[3].Count != 1 {
		t.Fatalf("entry expected in fourth bucket, got count %d", timeline.Buckets[3].Count)
	}
}

func TestAggregate_MonthGranularityWeatherSummary(t *testing.T) {
	start := d(2025, time.January, 1)
	end := d(2025, time.February, 28)

	observations := []weather.Observation{
		{CommunityID: "comm-1", Date: d(2025, time.January, 5), TempHighC: 2, TempLowC: -10, TempMeanC: -4},
		{CommunityID: "comm-1", Date: d(2025, time.January, 20), TempHighC: 6, TempLowC: -2, TempMeanC: 2,
			ExtremeEvents: []weather.ExtremeEvent{{Type: weather.EventHighWind, Severity: 2}}},
	}
	entries := []maintenance.LogEntry{
		entryOn("system-furnace", d(2025, time.January, 21), 200),
		entryOn("system-hvac", d(2025, time.February, 3), 50),
	}

	timeline, err := Aggregate(observations, entries, start, end, GranularityMonth)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(timeline.Buckets) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(timeline.Buckets))
	}

	january := timeline.Buckets[0]
	if january.Weather == nil {
		t.Fatal("january must carry a weather summary")
	}
	if january.Weather.MinTempC != -10 || january.Weather.MaxTempC != 6 {
		t.Fatalf("unexpected january extremes: %+v", january.Weather)
	}
	if january.Weather.MeanTempC != -1 {
		t.Fatalf("expected mean -1, got %f", january.Weather.MeanTempC)
	}
	if january.Weather.ExtremeEvents != 1 {
		t.Fatalf("expected 1 extreme event in january, got %d", january.Weather.ExtremeEvents)
	}

	february := timeline.Buckets[1]
	if february.Weather != nil {
		t.Fatal("february has no observations; summary must be nil")
	}
	if february.Count != 1 || february.TotalCost != 50 {
		t.Fatalf("unexpected february maintenance: %d / %f", february.Count, february.TotalCost)
	}

	if timeline.TotalMaintenance != 2 || timeline.TotalCost != 250 {
		t.Fatalf("unexpected totals: %d / %f", timeline.TotalMaintenance, timeline.TotalCost)
	}
}

func TestAggregate_MonthBucketsAnchorOnStartDay(t *testing.T) {
	start := d(2025, time.January, 31)
	end := d(2025, time.April, 15)

	timeline, err := Aggregate(nil, nil, start, end, GranularityMonth)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	wantStarts := []time.Time{
		d(2025, time.January, 31),
		d(2025, time.February, 28),
		d(2025, time.March, 31),
	}
	if len(timeline.Buckets) != len(wantStarts) {
		t.Fatalf("expected %d buckets, got %d", len(wantStarts), len(timeline.Buckets))
	}
	for i, want := range wantStarts {
		if !timeline.Buckets[i].Start.Equal(want) {
			t.Fatalf("bucket %d starts at %s, want %s", i, timeline.Buckets[i].Start, want)
		}
	}
	// Buckets stay contiguous: each ends the day before the next begins.
	for i := 0; i < len(timeline.Buckets)-1; i++ {
		if !timeline.Buckets[i].End.AddDate(0, 0, 1).Equal(timeline.Buckets[i+1].Start) {
			t.Fatalf("gap after bucket %d: end %s, next start %s",
				i, timeline.Buckets[i].End, timeline.Buckets[i+1].Start)
		}
	}
	if !timeline.Buckets[2].End.Equal(end) {
		t.Fatalf("last bucket must clamp to range end, got %s", timeline.Buckets[2].End)
	}
}

func TestAggregate_WeekBucketsClampToEnd(t *testing.T) {
	start := d(2025, time.June, 2)
	end := d(2025, time.June, 12)

	timeline, err := Aggregate(nil, nil, start, end, GranularityWeek)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(timeline.Buckets) != 2 {
		t.Fatalf("expected 2 week buckets, got %d", len(timeline.Buckets))
	}
	last := timeline.Buckets[1]
	if !last.End.Equal(end) {
		t.Fatalf("last bucket must clamp to range end, got %s", last.End)
	}
}

func TestAggregate_Validation(t *testing.T) {
	start := d(2025, time.June, 10)
	if _, err := Aggregate(nil, nil, start, start.AddDate(0, 0, -1), GranularityDay); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := Aggregate(nil, nil, start, start, "hour"); !errors.Is(err, ErrInvalidGranularity) {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}
