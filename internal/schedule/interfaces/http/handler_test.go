package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application"
	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/infrastructure/memory"
)

type testClock struct {
	at time.Time
}

func (c testClock) Now() time.Time { return c.at }

func newHandlers(t *testing.T) (*SeriesHandler, *OccurrencesHandler, *application.Service) {
	t.Helper()
	store := memory.NewRepository()
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, err := application.NewService(store, store.Occurrences(), nil, testClock{at: now}, 10)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seriesHandler, err := NewSeriesHandler(service, nil, nil)
	if err != nil {
		t.Fatalf("new series handler: %v", err)
	}
	occHandler, err := NewOccurrencesHandler(service, nil, nil)
	if err != nil {
		t.Fatalf("new occurrences handler: %v", err)
	}
	return seriesHandler, occHandler, service
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithIdentity(req.Context(), "tenant-a", auth.RoleResident, "user-1")
	return req.WithContext(ctx)
}

func TestSeriesHandler_CreateAndList(t *testing.T) {
	seriesHandler, _, _ := newHandlers(t)

	body := `{
		"home_id": "home-1",
		"system_id": "system-furnace",
		"title": "Replace furnace filter",
		"priority": "medium",
		"rule": {"frequency": "monthly", "interval": 1, "end_after": 3},
		"anchor_date": "2025-09-15"
	}`
	rec := httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/series", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Series struct {
			ID string `json:"id"`
		} `json:"series"`
		Occurrences []struct {
			DueDate string `json:"due_date"`
		} `json:"occurrences"`
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(created.Occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(created.Occurrences))
	}
	if created.Occurrences[0].DueDate != "2025-09-15" {
		t.Fatalf("unexpected first due date %s", created.Occurrences[0].DueDate)
	}
	if created.Truncated {
		t.Fatal("count-bounded series must not truncate")
	}

	rec = httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/series/"+created.Series.ID+"/occurrences", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Occurrences []json.RawMessage `json:"occurrences"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Occurrences) != 3 {
		t.Fatalf("expected 3 listed occurrences, got %d", len(listed.Occurrences))
	}
}

func TestSeriesHandler_CreateRejectsConflictingEnds(t *testing.T) {
	seriesHandler, _, _ := newHandlers(t)

	body := `{
		"home_id": "home-1",
		"title": "Flush water heater",
		"rule": {"frequency": "monthly", "interval": 1, "end_date": "2026-01-01", "end_after": 4},
		"anchor_date": "2025-09-15"
	}`
	rec := httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/series", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSeriesHandler_Preview(t *testing.T) {
	seriesHandler, _, _ := newHandlers(t)

	body := `{
		"rule": {"frequency": "monthly", "interval": 1},
		"anchor_date": "2025-01-31",
		"count": 3
	}`
	rec := httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/series/preview", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var preview struct {
		Dates     []string `json:"dates"`
		Truncated bool     `json:"truncated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31"}
	if len(preview.Dates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(preview.Dates))
	}
	for i, date := range want {
		if preview.Dates[i] != date {
			t.Fatalf("date %d: expected %s, got %s", i, date, preview.Dates[i])
		}
	}
	if !preview.Truncated {
		t.Fatal("never-ending rule previewed at 3 must report truncation")
	}
}

func requestAs(method, target, body, tenantID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithIdentity(req.Context(), tenantID, auth.RoleResident, "user-2")
	return req.WithContext(ctx)
}

func TestSeriesHandler_SubRoutesHideForeignSeries(t *testing.T) {
	seriesHandler, _, _ := newHandlers(t)

	body := `{
		"home_id": "home-1",
		"system_id": "system-furnace",
		"title": "Service furnace",
		"rule": {"frequency": "monthly", "interval": 1},
		"anchor_date": "2025-09-15"
	}`
	rec := httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/series", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create series: %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Series struct {
			ID string `json:"id"`
		} `json:"series"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	rec = httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, requestAs(http.MethodGet,
		"/api/v1/series/"+created.Series.ID+"/occurrences", "", "tenant-b"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 listing foreign series, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, requestAs(http.MethodPost,
		"/api/v1/series/"+created.Series.ID+"/materialize", `{"count": 5}`, "tenant-b"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 materializing foreign series, got %d", rec.Code)
	}

	// An unauthenticated caller is hidden from the series too.
	rec = httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/series/"+created.Series.ID+"/occurrences", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without identity, got %d", rec.Code)
	}
}

func TestOccurrencesHandler_PatchActions(t *testing.T) {
	seriesHandler, occHandler, _ := newHandlers(t)

	body := `{
		"home_id": "home-1",
		"system_id": "system-furnace",
		"title": "Replace furnace filter",
		"rule": {"frequency": "monthly", "interval": 1, "end_after": 2},
		"anchor_date": "2025-09-15"
	}`
	rec := httptest.NewRecorder()
	seriesHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/series", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create series: %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Occurrences []struct {
			ID string `json:"id"`
		} `json:"occurrences"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	occID := created.Occurrences[0].ID

	// Reschedule forward.
	rec = httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/occurrences/"+occID,
		`{"action": "reschedule", "due_date": "2025-10-01"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule: %d: %s", rec.Code, rec.Body.String())
	}

	// Reschedule into the past is a validation failure.
	rec = httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/occurrences/"+occID,
		`{"action": "reschedule", "due_date": "2024-01-01"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past reschedule, got %d", rec.Code)
	}

	// Complete with costs.
	rec = httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/occurrences/"+occID,
		`{"action": "complete", "parts_cost": 19.5, "notes": "done"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d: %s", rec.Code, rec.Body.String())
	}
	var completed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &completed); err != nil {
		t.Fatalf("decode complete: %v", err)
	}
	if completed.Status != "completed" {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	// Editing a terminal occurrence conflicts.
	rec = httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/occurrences/"+occID,
		`{"action": "cancel"}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for cancelling completed, got %d", rec.Code)
	}

	// Unknown action.
	rec = httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/v1/occurrences/"+occID,
		`{"action": "snooze"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", rec.Code)
	}
}

func TestOccurrencesHandler_TenantIsolation(t *testing.T) {
	_, occHandler, service := newHandlers(t)

	occ, err := service.CreateOccurrence(
		authedRequest(http.MethodGet, "/", "").Context(),
		schedule.ScheduledOccurrence{
			TenantID: "tenant-b",
			HomeID:   "home-9",
			SystemID: "system-roof",
			Title:    "Inspect roof",
			DueDate:  time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		},
	)
	if err != nil {
		t.Fatalf("seed occurrence: %v", err)
	}

	rec := httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/occurrences/"+occ.ID, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign tenant, got %d", rec.Code)
	}
}

func TestOccurrencesHandler_ListRequiresHomeID(t *testing.T) {
	_, occHandler, _ := newHandlers(t)

	rec := httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/occurrences", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without home_id, got %d", rec.Code)
	}
}

func TestOccurrencesHandler_CreateOneOff(t *testing.T) {
	_, occHandler, _ := newHandlers(t)

	body := fmt.Sprintf(`{
		"home_id": "home-1",
		"system_id": "system-gutters",
		"title": "Clean gutters",
		"due_date": %q
	}`, "2025-10-10")
	rec := httptest.NewRecorder()
	occHandler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/occurrences", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var occ struct {
		SeriesID string `json:"series_id"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &occ); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if occ.SeriesID != "" {
		t.Fatalf("one-off occurrence must not carry series_id, got %q", occ.SeriesID)
	}
	if occ.Status != "pending" || occ.Priority != "medium" {
		t.Fatalf("unexpected defaults: status=%s priority=%s", occ.Status, occ.Priority)
	}
}
