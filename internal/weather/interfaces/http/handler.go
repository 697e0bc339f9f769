package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/observability/metrics"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/application"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// IngestHandler accepts provider feed batches on
// POST /ingest/weather/observations. Authentication is handled upstream by
// the HMAC ingest middleware.
type IngestHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.Service, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("weather ingest handler: nil service")
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

type ingestPayload struct {
	Observations []observationPayload `json:"observations"`
}

type observationPayload struct {
	CommunityID     string                `json:"community_id"`
	Date            string                `json:"date"`
	TempHighC       float64               `json:"temp_high_c"`
	TempLowC        float64               `json:"temp_low_c"`
	TempMeanC       float64               `json:"temp_mean_c"`
	PrecipitationMM float64               `json:"precipitation_mm"`
	WindKPH         float64               `json:"wind_kph"`
	ExtremeEvents   []weather.ExtremeEvent `json:"extreme_events"`
}

// ServeHTTP handles one ingest batch.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.ObserveWeatherIngest(err, "read_body", time.Since(start))
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload ingestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.ObserveWeatherIngest(err, "invalid_json", time.Since(start))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(payload.Observations) == 0 {
		metrics.ObserveWeatherIngest(errors.New("empty batch"), "empty_batch", time.Since(start))
		http.Error(w, "empty observations batch", http.StatusBadRequest)
		return
	}

	batch := make([]weather.Observation, 0, len(payload.Observations))
	for _, item := range payload.Observations {
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			metrics.ObserveWeatherIngest(err, "invalid_date", time.Since(start))
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		batch = append(batch, weather.Observation{
			CommunityID:     item.CommunityID,
			Date:            date,
			TempHighC:       item.TempHighC,
			TempLowC:        item.TempLowC,
			TempMeanC:       item.TempMeanC,
			PrecipitationMM: item.PrecipitationMM,
			WindKPH:         item.WindKPH,
			ExtremeEvents:   item.ExtremeEvents,
		})
	}

	result, err := h.service.Ingest(r.Context(), batch)
	metrics.ObserveWeatherIngest(err, "store", time.Since(start))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.logger != nil {
		h.logger.Printf("weather batch ingested accepted=%d rejected=%d", result.Accepted, result.Rejected)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// ListHandler serves GET /api/v1/weather?community&from&to.
type ListHandler struct {
	service *application.Service
}

// NewListHandler constructs a list handler.
func NewListHandler(service *application.Service) (*ListHandler, error) {
	if service == nil {
		return nil, errors.New("weather list handler: nil service")
	}
	return &ListHandler{service: service}, nil
}

// ServeHTTP handles observation range queries.
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	communityID := r.URL.Query().Get("community")
	if communityID == "" {
		http.Error(w, "community query parameter is required", http.StatusBadRequest)
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to must not precede from", http.StatusBadRequest)
		return
	}

	observations, err := h.service.List(r.Context(), communityID, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"community_id": communityID,
		"observations": observations,
	})
}
