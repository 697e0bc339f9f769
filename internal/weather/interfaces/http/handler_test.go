package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/application"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/infrastructure/memory"
)

func newHandlers(t *testing.T) (*IngestHandler, *ListHandler) {
	t.Helper()
	service, err := application.NewService(memory.NewRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ingest, err := NewIngestHandler(service, nil)
	if err != nil {
		t.Fatalf("new ingest handler: %v", err)
	}
	list, err := NewListHandler(service)
	if err != nil {
		t.Fatalf("new list handler: %v", err)
	}
	return ingest, list
}

func TestIngestHandler_BatchUpsert(t *testing.T) {
	ingest, list := newHandlers(t)

	body := `{"observations": [
		{"community_id": "comm-1", "date": "2025-01-10", "temp_high_c": -5, "temp_low_c": -18, "temp_mean_c": -11,
		 "extreme_events": [{"type": "cold_snap", "severity": 3, "description": "arctic front"}]},
		{"community_id": "comm-1", "date": "2025-01-11", "temp_high_c": -2, "temp_low_c": -9, "temp_mean_c": -5}
	]}`
	rec := httptest.NewRecorder()
	ingest.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/weather/observations", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Accepted != 2 || result.Rejected != 0 {
		t.Fatalf("expected 2 accepted, got %+v", result)
	}

	// Re-ingest the same date replaces rather than duplicates.
	rec = httptest.NewRecorder()
	ingest.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/weather/observations", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("re-ingest: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	list.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/weather?community=comm-1&from=2025-01-01&to=2025-01-31", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d: %s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Observations []struct {
			Date          string `json:"date"`
			ExtremeEvents []struct {
				Type     string `json:"type"`
				Severity int    `json:"severity"`
			} `json:"extreme_events"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Observations) != 2 {
		t.Fatalf("expected 2 observations after re-ingest, got %d", len(listed.Observations))
	}
	if len(listed.Observations[0].ExtremeEvents) != 1 || listed.Observations[0].ExtremeEvents[0].Type != "cold_snap" {
		t.Fatalf("expected cold_snap event on first day: %+v", listed.Observations[0])
	}
}

func TestIngestHandler_PartialBatch(t *testing.T) {
	ingest, _ := newHandlers(t)

	// Second item is invalid (high below low) and must be skipped.
	body := `{"observations": [
		{"community_id": "comm-1", "date": "2025-02-01", "temp_high_c": 4, "temp_low_c": -3, "temp_mean_c": 0},
		{"community_id": "comm-1", "date": "2025-02-02", "temp_high_c": -10, "temp_low_c": 5, "temp_mean_c": 0}
	]}`
	rec := httptest.NewRecorder()
	ingest.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/weather/observations", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Accepted int      `json:"accepted"`
		Rejected int      `json:"rejected"`
		Errors   []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Accepted != 1 || result.Rejected != 1 {
		t.Fatalf("expected 1 accepted 1 rejected, got %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error message, got %v", result.Errors)
	}
}

func TestIngestHandler_RejectsEmptyBatch(t *testing.T) {
	ingest, _ := newHandlers(t)

	rec := httptest.NewRecorder()
	ingest.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/weather/observations", strings.NewReader(`{"observations": []}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListHandler_ValidatesRange(t *testing.T) {
	_, list := newHandlers(t)

	rec := httptest.NewRecorder()
	list.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/weather?community=comm-1&from=2025-02-01&to=2025-01-01", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	list.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/weather?from=2025-01-01&to=2025-02-01", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without community, got %d", rec.Code)
	}
}
