package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
	insights "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/domain"
	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// ErrHomeNotFound indicates an unknown home id.
var ErrHomeNotFound = errors.New("insights: home not found")

// Service computes maintenance insights for a home by joining its history
// log with its community's weather record.
type Service struct {
	homes       homes.HomeRepository
	maintenance maintenance.Repository
	weather     weather.Repository
	cfg         Config
}

// NewService constructs an insights service.
func NewService(homeRepo homes.HomeRepository, maintenanceRepo maintenance.Repository, weatherRepo weather.Repository, cfg Config) (*Service, error) {
	if homeRepo == nil {
		return nil, errors.New("insights service: nil home repository")
	}
	if maintenanceRepo == nil {
		return nil, errors.New("insights service: nil maintenance repository")
	}
	if weatherRepo == nil {
		return nil, errors.New("insights service: nil weather repository")
	}
	cfg.Patterns = cfg.Patterns.Normalize()
	cfg.Correlation = cfg.Correlation.Normalize()
	return &Service{homes: homeRepo, maintenance: maintenanceRepo, weather: weatherRepo, cfg: cfg}, nil
}

// PatternsResult is the pattern detection response for one home.
type PatternsResult struct {
	HomeID            string              `json:"home_id"`
	Patterns          []insights.Pattern  `json:"patterns"`
	OverallConfidence insights.Confidence `json:"overall_confidence"`
}

// Patterns detects per-system maintenance cadences from the home's history.
func (s *Service) Patterns(ctx context.Context, homeID string) (*PatternsResult, error) {
	if _, err := s.home(ctx, homeID); err != nil {
		return nil, err
	}
	entries, err := s.maintenance.List(ctx, maintenance.ListFilter{HomeID: homeID})
	if err != nil {
		return nil, err
	}
	patterns := insights.DetectPatterns(entries, s.cfg.Patterns)
	return &PatternsResult{
		HomeID:            homeID,
		Patterns:          patterns,
		OverallConfidence: insights.OverallConfidence(patterns),
	}, nil
}

// CorrelationsResult pairs cold-snap correlations with the seasonal view.
type CorrelationsResult struct {
	HomeID       string                   `json:"home_id"`
	Correlations []insights.Correlation   `json:"correlations"`
	Seasons      []insights.SeasonSummary `json:"seasons"`
}

// Correlations links the home's maintenance history to preceding cold
// snaps in its community within [from, to].
func (s *Service) Correlations(ctx context.Context, homeID string, from, to time.Time) (*CorrelationsResult, error) {
	home, err := s.home(ctx, homeID)
	if err != nil {
		return nil, err
	}
	entries, err := s.maintenance.List(ctx, maintenance.ListFilter{HomeID: homeID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	// Extend the observation window backward so entries near the range
	// start can still find their cold snap.
	lookbackStart := from.AddDate(0, 0, -s.cfg.Correlation.LookbackDays)
	observations, err := s.weather.ListByCommunity(ctx, home.CommunityID, lookbackStart, to)
	if err != nil {
		return nil, err
	}
	return &CorrelationsResult{
		HomeID:       homeID,
		Correlations: insights.Correlate(entries, observations, s.cfg.Correlation),
		Seasons:      insights.SeasonalBreakdown(entries, s.cfg.Correlation),
	}, nil
}

// Timeline aggregates the home's weather and maintenance over [from, to].
func (s *Service) Timeline(ctx context.Context, homeID string, from, to time.Time, granularity insights.Granularity) (*insights.Timeline, error) {
	home, err := s.home(ctx, homeID)
	if err != nil {
		return nil, err
	}
	entries, err := s.maintenance.List(ctx, maintenance.ListFilter{HomeID: homeID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	observations, err := s.weather.ListByCommunity(ctx, home.CommunityID, from, to)
	if err != nil {
		return nil, err
	}
	return insights.Aggregate(observations, entries, from, to, granularity)
}

// ReportData bundles everything a maintenance report needs.
type ReportData struct {
	Home     homes.Home
	From     time.Time
	To       time.Time
	Timeline *insights.Timeline
	Patterns []insights.Pattern
	Seasons  []insights.SeasonSummary
	Entries  []maintenance.LogEntry
}

// Report assembles the data behind the PDF and XLSX exports.
func (s *Service) Report(ctx context.Context, homeID string, from, to time.Time) (*ReportData, error) {
	home, err := s.home(ctx, homeID)
	if err != nil {
		return nil, err
	}
	timeline, err := s.Timeline(ctx, homeID, from, to, insights.GranularityMonth)
	if err != nil {
		return nil, err
	}
	entries, err := s.maintenance.List(ctx, maintenance.ListFilter{HomeID: homeID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	return &ReportData{
		Home:     *home,
		From:     from,
		To:       to,
		Timeline: timeline,
		Patterns: insights.DetectPatterns(entries, s.cfg.Patterns),
		Seasons:  insights.SeasonalBreakdown(entries, s.cfg.Correlation),
		Entries:  entries,
	}, nil
}

func (s *Service) home(ctx context.Context, homeID string) (*homes.Home, error) {
	home, err := s.homes.Get(ctx, homeID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, fmt.Errorf("%w: %s", ErrHomeNotFound, homeID)
	}
	return home, nil
}
