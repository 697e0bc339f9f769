package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
	homesrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/infrastructure/postgres"
	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	maintenancerepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/infrastructure/postgres"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
	weatherrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn             string
	tenantID        string
	communityID     string
	homeID          string
	years           int
	seedWeather     bool
	seedMaintenance bool
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.years <= 0 {
		log.Fatal("years must be > 0")
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	systems, err := seedRegistry(ctx, db, cfg)
	if err != nil {
		log.Fatalf("seed registry: %v", err)
	}
	log.Printf("seeded registry: community=%s home=%s systems=%d", cfg.communityID, cfg.homeID, len(systems))

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-cfg.years, 0, 0)
	rng := rand.New(rand.NewSource(42))

	var coldSnaps []time.Time
	if cfg.seedWeather {
		coldSnaps, err = seedWeather(ctx, db, cfg.communityID, start, end, rng)
		if err != nil {
			log.Fatalf("seed weather: %v", err)
		}
		log.Printf("seeded weather: community=%s days=%d cold_snaps=%d", cfg.communityID, int(end.Sub(start).Hours()/24), len(coldSnaps))
	}

	if cfg.seedMaintenance {
		count, err := seedMaintenance(ctx, db, cfg, systems, start, end, coldSnaps, rng)
		if err != nil {
			log.Fatalf("seed maintenance: %v", err)
		}
		log.Printf("seeded maintenance: home=%s entries=%d", cfg.homeID, count)
	}

	log.Printf("seed completed")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.tenantID, "tenant-id", envOrDefault("TENANT_ID", "tenant-demo"), "tenant id for the demo home")
	flag.StringVar(&cfg.communityID, "community-id", envOrDefault("COMMUNITY_ID", "comm-demo"), "community id")
	flag.StringVar(&cfg.homeID, "home-id", envOrDefault("HOME_ID", "home-demo-001"), "home id")
	flag.IntVar(&cfg.years, "years", envOrInt("YEARS", 2), "years of history to generate")
	flag.BoolVar(&cfg.seedWeather, "seed-weather", true, "seed daily weather observations")
	flag.BoolVar(&cfg.seedMaintenance, "seed-maintenance", true, "seed the maintenance history")
	flag.Parse()
	return cfg
}

func seedRegistry(ctx context.Context, db *sql.DB, cfg config) ([]homes.HomeSystem, error) {
	now := time.Now().UTC()

	community := &homes.Community{
		ID:     cfg.communityID,
		Name:   "Riverbend",
		Region: "Prairie North",
	}
	if err := homesrepo.NewCommunityRepository(db).Save(ctx, community); err != nil {
		return nil, err
	}

	home := &homes.Home{
		ID:          cfg.homeID,
		TenantID:    cfg.tenantID,
		CommunityID: cfg.communityID,
		Name:        "Demo bungalow",
		Address:     "14 Riverbend Crescent",
		Timezone:    "America/Winnipeg",
	}
	if err := homesrepo.NewHomeRepository(db).Save(ctx, home); err != nil {
		return nil, err
	}

	systems := []homes.HomeSystem{
		{ID: cfg.homeID + "-furnace", Kind: homes.SystemFurnace, Label: "Mid-efficiency furnace", InstalledAt: now.AddDate(-9, 0, 0)},
		{ID: cfg.homeID + "-water-heater", Kind: homes.SystemWaterHeater, Label: "50gal gas tank", InstalledAt: now.AddDate(-5, 0, 0)},
		{ID: cfg.homeID + "-hvac", Kind: homes.SystemHVAC, Label: "Central AC", InstalledAt: now.AddDate(-6, 0, 0)},
		{ID: cfg.homeID + "-roof", Kind: homes.SystemRoof, Label: "Asphalt shingles", InstalledAt: now.AddDate(-12, 0, 0)},
		{ID: cfg.homeID + "-gutters", Kind: homes.SystemGutters, Label: "Aluminum gutters", InstalledAt: now.AddDate(-12, 0, 0)},
		{ID: cfg.homeID + "-sump-pump", Kind: homes.SystemSumpPump, Label: "Basement sump pump", InstalledAt: now.AddDate(-3, 0, 0)},
	}
	systemRepo := homesrepo.NewSystemRepository(db)
	for i := range systems {
		systems[i].HomeID = cfg.homeID
		if err := systemRepo.Save(ctx, &systems[i]); err != nil {
			return nil, err
		}
	}
	return systems, nil
}

// seedWeather writes one observation per day with a northern seasonal curve
// and returns the dates of severe cold snaps for use by the maintenance
// generator.
func seedWeather(ctx context.Context, db *sql.DB, communityID string, start, end time.Time, rng *rand.Rand) ([]time.Time, error) {
	repo := weatherrepo.NewRepository(db)
	var coldSnaps []time.Time

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		doy := float64(day.YearDay())
		// Roughly -16C mean in mid January, +21C in mid July.
		mean := 2.5 - 18.5*math.Cos(2*math.Pi*(doy-10)/365.25)
		mean += rng.Float64()*8 - 4
		high := mean + 4 + rng.Float64()*3
		low := mean - 5 - rng.Float64()*3

		precip := 0.0
		if rng.Float64() < 0.35 {
			precip = rng.Float64() * 12
		}
		wind := 5 + rng.Float64()*40
		if rng.Float64() < 0.05 {
			wind += 30
		}

		obs := weather.Observation{
			CommunityID:     communityID,
			Date:            day,
			TempHighC:       round1(high),
			TempLowC:        round1(low),
			TempMeanC:       round1(mean),
			PrecipitationMM: round1(precip),
			WindKPH:         round1(wind),
		}
		if low <= -28 {
			severity := 3
			if low <= -34 {
				severity = 4
			}
			obs.ExtremeEvents = append(obs.ExtremeEvents, weather.ExtremeEvent{
				Type:        weather.EventColdSnap,
				Severity:    severity,
				Description: fmt.Sprintf("overnight low %.0fC", low),
			})
			coldSnaps = append(coldSnaps, day)
		}
		if high >= 31 {
			obs.ExtremeEvents = append(obs.ExtremeEvents, weather.ExtremeEvent{
				Type:        weather.EventHeatWave,
				Severity:    2,
				Description: fmt.Sprintf("daytime high %.0fC", high),
			})
		}
		if wind >= 65 {
			obs.ExtremeEvents = append(obs.ExtremeEvents, weather.ExtremeEvent{
				Type:        weather.EventHighWind,
				Severity:    2,
				Description: fmt.Sprintf("gusts %.0f km/h", wind),
			})
		}
		if precip >= 10 && mean < -2 {
			obs.ExtremeEvents = append(obs.ExtremeEvents, weather.ExtremeEvent{
				Type:        weather.EventHeavySnow,
				Severity:    2,
				Description: fmt.Sprintf("%.0fmm snowfall", precip),
			})
		}

		if err := repo.Upsert(ctx, obs); err != nil {
			return nil, err
		}
	}
	return coldSnaps, nil
}

func seedMaintenance(ctx context.Context, db *sql.DB, cfg config, systems []homes.HomeSystem, start, end time.Time, coldSnaps []time.Time, rng *rand.Rand) (int, error) {
	repo := maintenancerepo.NewRepository(db)
	byKind := make(map[string]string, len(systems))
	for _, s := range systems {
		byKind[s.Kind] = s.ID
	}

	seq := 0
	insert := func(systemID, title string, date time.Time, parts, labor float64, notes string) error {
		seq++
		entry := maintenance.LogEntry{
			ID:       fmt.Sprintf("mlog-seed-%04d", seq),
			TenantID: cfg.tenantID,
			HomeID:   cfg.homeID,
			SystemID: systemID,
			Title:    title,
			Date:     date,
			Cost:     maintenance.Cost{Parts: parts, Labor: labor},
			Notes:    notes,
		}
		entry.CreatedAt = date
		return repo.Insert(ctx, entry)
	}

	for year := start.Year(); year <= end.Year(); year++ {
		annual := []struct {
			systemID string
			title    string
			date     time.Time
			parts    float64
			labor    float64
		}{
			{byKind[homes.SystemFurnace], "Annual furnace service", time.Date(year, time.October, 12, 0, 0, 0, 0, time.UTC), 35, 110},
			{byKind[homes.SystemWaterHeater], "Flush water heater", time.Date(year, time.June, 5, 0, 0, 0, 0, time.UTC), 0, 80},
			{byKind[homes.SystemGutters], "Clean gutters", time.Date(year, time.May, 8, 0, 0, 0, 0, time.UTC), 0, 90},
			{byKind[homes.SystemGutters], "Clean gutters", time.Date(year, time.November, 2, 0, 0, 0, 0, time.UTC), 0, 90},
			{byKind[homes.SystemSumpPump], "Test sump pump", time.Date(year, time.April, 3, 0, 0, 0, 0, time.UTC), 0, 40},
		}
		for _, e := range annual {
			if e.date.Before(start) || e.date.After(end) {
				continue
			}
			if err := insert(e.systemID, e.title, e.date, e.parts, e.labor, ""); err != nil {
				return seq, err
			}
		}

		// Quarterly furnace filter swaps keep a steady cadence for the
		// pattern detector.
		for _, month := range []time.Month{time.January, time.April, time.July, time.October} {
			date := time.Date(year, month, 20, 0, 0, 0, 0, time.UTC)
			if date.Before(start) || date.After(end) {
				continue
			}
			if err := insert(byKind[homes.SystemFurnace], "Replace furnace filter", date, 25, 0, ""); err != nil {
				return seq, err
			}
		}
	}

	// One emergency repair a few days after the worst snap of each winter,
	// so cold-weather correlation has something to surface.
	lastRepairYear := 0
	for _, snap := range coldSnaps {
		winterYear := snap.Year()
		if snap.Month() >= time.October {
			winterYear++
		}
		if winterYear == lastRepairYear {
			continue
		}
		lastRepairYear = winterYear
		date := snap.AddDate(0, 0, 2+rng.Intn(3))
		if date.After(end) {
			continue
		}
		if err := insert(byKind[homes.SystemFurnace], "Emergency furnace repair", date, 260, 190, "igniter failed during cold snap"); err != nil {
			return seq, err
		}
	}

	return seq, nil
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
