package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
)

// A stand-in for a regional weather provider. It generates plausible daily
// observations for a community and posts them to the ingest endpoint with a
// valid HMAC signature, either once or on an interval.
type config struct {
	baseURL     string
	secret      string
	communityID string
	days        int
	interval    time.Duration
	endDate     string
}

func main() {
	cfg := parseConfig()
	if cfg.baseURL == "" {
		log.Fatal("BASE_URL is required")
	}
	if cfg.secret == "" {
		log.Fatal("INGEST_HMAC_SECRET is required")
	}
	if cfg.days <= 0 {
		log.Fatal("days must be > 0")
	}

	end, err := parseEndDate(cfg.endDate)
	if err != nil {
		log.Fatalf("invalid end-date: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	post := func(end time.Time) {
		batch := buildBatch(cfg.communityID, end, cfg.days, rng)
		if err := postBatch(context.Background(), client, cfg.baseURL, []byte(cfg.secret), batch); err != nil {
			log.Printf("post batch error: %v", err)
			return
		}
		log.Printf("posted batch community=%s days=%d end=%s", cfg.communityID, cfg.days, end.Format("2006-01-02"))
	}

	post(end)
	if cfg.interval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()
	for range ticker.C {
		post(time.Now().UTC().Truncate(24 * time.Hour))
	}
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.baseURL, "base-url", envOrDefault("BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.secret, "secret", envOrDefault("INGEST_HMAC_SECRET", ""), "ingest HMAC secret")
	flag.StringVar(&cfg.communityID, "community-id", envOrDefault("COMMUNITY_ID", "comm-demo"), "community id to report for")
	flag.IntVar(&cfg.days, "days", envOrInt("DAYS", 1), "days per batch, ending at end-date")
	flag.DurationVar(&cfg.interval, "interval", 0, "repost interval (0 posts once and exits)")
	flag.StringVar(&cfg.endDate, "end-date", envOrDefault("END_DATE", ""), "last observation date (YYYY-MM-DD, default today)")
	flag.Parse()
	return cfg
}

func parseEndDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

type observation struct {
	CommunityID     string         `json:"community_id"`
	Date            string         `json:"date"`
	TempHighC       float64        `json:"temp_high_c"`
	TempLowC        float64        `json:"temp_low_c"`
	TempMeanC       float64        `json:"temp_mean_c"`
	PrecipitationMM float64        `json:"precipitation_mm"`
	WindKPH         float64        `json:"wind_kph"`
	ExtremeEvents   []extremeEvent `json:"extreme_events,omitempty"`
}

type extremeEvent struct {
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

func buildBatch(communityID string, end time.Time, days int, rng *rand.Rand) []observation {
	batch := make([]observation, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		doy := float64(day.YearDay())
		mean := 2.5 - 18.5*math.Cos(2*math.Pi*(doy-10)/365.25) + rng.Float64()*8 - 4
		high := mean + 4 + rng.Float64()*3
		low := mean - 5 - rng.Float64()*3

		obs := observation{
			CommunityID: communityID,
			Date:        day.Format("2006-01-02"),
			TempHighC:   round1(high),
			TempLowC:    round1(low),
			TempMeanC:   round1(mean),
			WindKPH:     round1(5 + rng.Float64()*40),
		}
		if rng.Float64() < 0.35 {
			obs.PrecipitationMM = round1(rng.Float64() * 12)
		}
		if low <= -28 {
			severity := 3
			if low <= -34 {
				severity = 4
			}
			obs.ExtremeEvents = append(obs.ExtremeEvents, extremeEvent{
				Type:        "cold_snap",
				Severity:    severity,
				Description: fmt.Sprintf("overnight low %.0fC", low),
			})
		}
		batch = append(batch, obs)
	}
	return batch
}

func postBatch(ctx context.Context, client *http.Client, baseURL string, secret []byte, batch []observation) error {
	payload, err := json.Marshal(map[string]any{"observations": batch})
	if err != nil {
		return err
	}
	url := strings.TrimRight(baseURL, "/") + "/ingest/weather/observations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ingest-Timestamp", timestamp)
	req.Header.Set("X-Ingest-Signature", auth.ComputeIngestSignature(secret, timestamp, payload))

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ingest failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
