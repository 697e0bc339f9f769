package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/audit"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/eventbus"
	eventingrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/infrastructure/postgres"
	homesapp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/application"
	homesrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/infrastructure/postgres"
	homeshttp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/interfaces/http"
	insightsapp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/application"
	insightshttp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/interfaces/http"
	maintenanceapp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/application"
	maintenancerepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/infrastructure/postgres"
	maintenanceinterfaces "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/interfaces"
	maintenancehttp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/interfaces/http"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/notify"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/observability/metrics"
	scheduleapp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application"
	schedevents "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
	schedulerepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/infrastructure/postgres"
	schedulehttp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/interfaces/http"
	weatherapp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/application"
	weatherrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/infrastructure/postgres"
	weatherhttp "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()
	metrics.InitDB(db, logger)
	homeChecker := auth.NewHomeChecker(db)
	auditRepo := audit.NewRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(schedevents.SeriesCreated{})
	registry.Register(schedevents.OccurrenceCompleted{})
	registry.Register(weatherapp.ObservationRecorded{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.TenantID, baseBus)

	homesService, err := homesapp.NewService(db)
	if err != nil {
		logger.Fatalf("homes service error: %v", err)
	}
	provisionHandler, err := homeshttp.NewProvisioningHandler(homesService, auditRepo)
	if err != nil {
		logger.Fatalf("provisioning handler error: %v", err)
	}
	systemsHandler, err := homeshttp.NewSystemsHandler(homesService, homeChecker)
	if err != nil {
		logger.Fatalf("systems handler error: %v", err)
	}

	seriesRepo := schedulerepo.NewSeriesRepository(db)
	occurrenceRepo := schedulerepo.NewOccurrenceRepository(db)
	scheduleService, err := scheduleapp.NewService(seriesRepo, occurrenceRepo, publisher, scheduleapp.SystemClock{}, cfg.SeriesBatchSize)
	if err != nil {
		logger.Fatalf("schedule service error: %v", err)
	}
	seriesHandler, err := schedulehttp.NewSeriesHandler(scheduleService, homeChecker, auditRepo)
	if err != nil {
		logger.Fatalf("series handler error: %v", err)
	}
	occurrencesHandler, err := schedulehttp.NewOccurrencesHandler(scheduleService, homeChecker, auditRepo)
	if err != nil {
		logger.Fatalf("occurrences handler error: %v", err)
	}
	materializer := scheduleapp.NewMaterializer(scheduleService, cfg.MaterializeMinPending, cfg.MaterializeBatchSize, cfg.MaterializeDailyAt, logger)
	go materializer.Start(context.Background())

	maintenanceService, err := maintenanceapp.NewService(maintenancerepo.NewRepository(db), maintenanceapp.SystemClock{})
	if err != nil {
		logger.Fatalf("maintenance service error: %v", err)
	}
	maintenanceinterfaces.RegisterOccurrenceCompletedConsumer(baseBus, maintenanceService, processedStore, logger)
	maintenanceHandler, err := maintenancehttp.NewHandler(maintenanceService, homeChecker, auditRepo)
	if err != nil {
		logger.Fatalf("maintenance handler error: %v", err)
	}
	exportHandler, err := maintenancehttp.NewExportHandler(maintenanceService, homeChecker)
	if err != nil {
		logger.Fatalf("maintenance export handler error: %v", err)
	}

	weatherStore := weatherrepo.NewRepository(db)
	weatherService, err := weatherapp.NewService(weatherStore, weatherapp.WithPublisher(publisher))
	if err != nil {
		logger.Fatalf("weather service error: %v", err)
	}
	weatherIngestHandler, err := weatherhttp.NewIngestHandler(weatherService, logger)
	if err != nil {
		logger.Fatalf("weather ingest handler error: %v", err)
	}
	weatherListHandler, err := weatherhttp.NewListHandler(weatherService)
	if err != nil {
		logger.Fatalf("weather list handler error: %v", err)
	}

	insightsCfg, err := insightsapp.LoadConfig()
	if err != nil {
		logger.Fatalf("insights config error: %v", err)
	}
	insightsService, err := insightsapp.NewService(homesrepo.NewHomeRepository(db), maintenancerepo.NewRepository(db), weatherStore, insightsCfg)
	if err != nil {
		logger.Fatalf("insights service error: %v", err)
	}
	insightsHandler, err := insightshttp.NewHandler(insightsService, homeChecker)
	if err != nil {
		logger.Fatalf("insights handler error: %v", err)
	}

	if cfg.NotifyWebhookURL != "" {
		notifier, err := notify.NewWebhookNotifier(cfg.NotifyWebhookURL)
		if err != nil {
			logger.Fatalf("notify webhook error: %v", err)
		}
		notify.RegisterOccurrenceCompletedConsumer(baseBus, notifier, processedStore, logger)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/weather/observations", ingestAuth.Wrap(weatherIngestHandler))
	mux.Handle("/api/v1/weather", weatherListHandler)
	mux.Handle("/api/v1/provisioning/homes", provisionHandler)
	mux.Handle("/api/v1/homes/", systemsHandler)
	mux.Handle("/api/v1/series", seriesHandler)
	mux.Handle("/api/v1/series/", seriesHandler)
	mux.Handle("/api/v1/occurrences", occurrencesHandler)
	mux.Handle("/api/v1/occurrences/", occurrencesHandler)
	mux.Handle("/api/v1/maintenance", maintenanceHandler)
	mux.Handle("/api/v1/insights/", insightsHandler)
	mux.Handle("/api/v1/exports/maintenance.csv", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL           string
	HTTPAddr              string
	TenantID              string
	SeriesBatchSize       int
	MaterializeMinPending int
	MaterializeBatchSize  int
	MaterializeDailyAt    string
	NotifyWebhookURL      string
	JWTSecret             string
	IngestSecret          string
	IngestSkewSeconds     int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:           getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:              getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:              getenvDefault("TENANT_ID", "tenant-demo"),
		SeriesBatchSize:       getenvIntDefault("SERIES_BATCH_SIZE", 12),
		MaterializeMinPending: getenvIntDefault("MATERIALIZE_MIN_PENDING", 3),
		MaterializeBatchSize:  getenvIntDefault("MATERIALIZE_BATCH_SIZE", 12),
		MaterializeDailyAt:    getenvDefault("MATERIALIZE_DAILY_AT", "03:00"),
		NotifyWebhookURL:      getenvDefault("NOTIFY_WEBHOOK_URL", ""),
		JWTSecret:             getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:          getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds:     getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
