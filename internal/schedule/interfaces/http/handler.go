package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/audit"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/observability/metrics"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application"
	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
)

// SeriesHandler routes recurring series requests:
//
//	POST /api/v1/series                       create a series
//	POST /api/v1/series/preview               expand a rule without persisting
//	POST /api/v1/series/{id}/materialize      append further occurrences
//	GET  /api/v1/series/{id}/occurrences      list a series' occurrences
type SeriesHandler struct {
	service     *application.Service
	checker     auth.HomeTenantChecker
	auditLogger audit.Logger
}

// NewSeriesHandler constructs a series handler.
func NewSeriesHandler(service *application.Service, checker auth.HomeTenantChecker, auditLogger audit.Logger) (*SeriesHandler, error) {
	if service == nil {
		return nil, errors.New("series handler: nil service")
	}
	return &SeriesHandler{service: service, checker: checker, auditLogger: auditLogger}, nil
}

type seriesCreatePayload struct {
	HomeID     string                  `json:"home_id"`
	SystemID   string                  `json:"system_id"`
	Title      string                  `json:"title"`
	Priority   string                  `json:"priority"`
	Rule       schedule.RecurrenceRule `json:"rule"`
	AnchorDate string                  `json:"anchor_date"`
}

type previewPayload struct {
	Rule       schedule.RecurrenceRule `json:"rule"`
	AnchorDate string                  `json:"anchor_date"`
	Count      int                     `json:"count"`
}

type materializePayload struct {
	Count int `json:"count"`
}

// ServeHTTP routes series requests.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/series")
	rest = strings.Trim(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case rest == "preview" && r.Method == http.MethodPost:
		h.preview(w, r)
	default:
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		seriesID := parts[0]
		switch {
		case parts[1] == "materialize" && r.Method == http.MethodPost:
			h.materialize(w, r, seriesID)
		case parts[1] == "occurrences" && r.Method == http.MethodGet:
			h.listOccurrences(w, r, seriesID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (h *SeriesHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload seriesCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	anchor, err := parseDate(payload.AnchorDate)
	if err != nil {
		http.Error(w, "invalid anchor_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if !h.ensureHomeAccess(w, r, tenantID, payload.HomeID) {
		return
	}

	result, err := h.service.CreateSeries(r.Context(), application.CreateSeriesRequest{
		TenantID:   tenantID,
		HomeID:     payload.HomeID,
		SystemID:   payload.SystemID,
		Title:      payload.Title,
		Priority:   schedule.Priority(payload.Priority),
		Rule:       payload.Rule,
		AnchorDate: anchor,
	})
	metrics.ObserveSeriesCreated(err)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}

	h.logAudit(r, tenantID, "series.create", result.Series.ID, result.Series.HomeID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"series":      seriesJSON(result.Series),
		"occurrences": occurrencesJSON(result.Occurrences),
		"truncated":   result.Truncated,
		"warnings":    result.Warnings,
	})
}

func (h *SeriesHandler) preview(w http.ResponseWriter, r *http.Request) {
	var payload previewPayload
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	anchor, err := parseDate(payload.AnchorDate)
	if err != nil {
		http.Error(w, "invalid anchor_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	expansion, err := h.service.Preview(payload.Rule, anchor, payload.Count)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}
	dates := make([]string, 0, len(expansion.Dates))
	for _, d := range expansion.Dates {
		dates = append(dates, d.Format("2006-01-02"))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"dates":     dates,
		"truncated": expansion.Truncated,
		"warnings":  expansion.Warnings,
	})
}

func (h *SeriesHandler) materialize(w http.ResponseWriter, r *http.Request, seriesID string) {
	var payload materializePayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !h.ensureSeriesAccess(w, r, seriesID) {
		return
	}
	batch, err := h.service.MaterializeNext(r.Context(), seriesID, payload.Count)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}
	h.logAudit(r, auth.TenantIDFromContext(r.Context()), "series.materialize", seriesID, "")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"series_id":   seriesID,
		"occurrences": occurrencesJSON(batch),
	})
}

func (h *SeriesHandler) listOccurrences(w http.ResponseWriter, r *http.Request, seriesID string) {
	if !h.ensureSeriesAccess(w, r, seriesID) {
		return
	}
	occurrences, err := h.service.ListBySeries(r.Context(), seriesID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"series_id":   seriesID,
		"occurrences": occurrencesJSON(occurrences),
	})
}

// ensureSeriesAccess hides series of other tenants. A missing tenant
// identity is treated the same as a foreign tenant.
func (h *SeriesHandler) ensureSeriesAccess(w http.ResponseWriter, r *http.Request, seriesID string) bool {
	series, err := h.service.GetSeries(r.Context(), seriesID)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return false
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" || series.TenantID != tenantID {
		w.WriteHeader(http.StatusNotFound)
		return false
	}
	return true
}

func (h *SeriesHandler) ensureHomeAccess(w http.ResponseWriter, r *http.Request, tenantID, homeID string) bool {
	if h.checker == nil {
		return true
	}
	if tenantID == "" {
		http.Error(w, "missing tenant identity", http.StatusForbidden)
		return false
	}
	if err := h.checker.EnsureHomeTenant(r.Context(), tenantID, homeID); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, auth.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return false
	}
	return true
}

func (h *SeriesHandler) logAudit(r *http.Request, tenantID, action, resourceID, homeID string) {
	if h.auditLogger == nil || tenantID == "" {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "series",
		ResourceID:   resourceID,
		HomeID:       homeID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// OccurrencesHandler routes occurrence requests:
//
//	POST  /api/v1/occurrences          create a one-off occurrence
//	GET   /api/v1/occurrences?home_id= list occurrences for a home
//	GET   /api/v1/occurrences/{id}     fetch one occurrence
//	PATCH /api/v1/occurrences/{id}     reschedule, complete, or cancel
type OccurrencesHandler struct {
	service     *application.Service
	checker     auth.HomeTenantChecker
	auditLogger audit.Logger
}

// NewOccurrencesHandler constructs an occurrences handler.
func NewOccurrencesHandler(service *application.Service, checker auth.HomeTenantChecker, auditLogger audit.Logger) (*OccurrencesHandler, error) {
	if service == nil {
		return nil, errors.New("occurrences handler: nil service")
	}
	return &OccurrencesHandler{service: service, checker: checker, auditLogger: auditLogger}, nil
}

type occurrenceCreatePayload struct {
	HomeID   string `json:"home_id"`
	SystemID string `json:"system_id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date"`
}

type occurrencePatchPayload struct {
	Action    string  `json:"action"`
	DueDate   string  `json:"due_date"`
	PartsCost float64 `json:"parts_cost"`
	LaborCost float64 `json:"labor_cost"`
	OtherCost float64 `json:"other_cost"`
	Notes     string  `json:"notes"`
}

// ServeHTTP routes occurrence requests.
func (h *OccurrencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/occurrences")
	rest = strings.Trim(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case rest == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodGet:
		h.get(w, r, rest)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodPatch:
		h.patch(w, r, rest)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *OccurrencesHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload occurrenceCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	dueDate, err := parseDate(payload.DueDate)
	if err != nil {
		http.Error(w, "invalid due_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if !h.ensureHomeAccess(w, r, tenantID, payload.HomeID) {
		return
	}

	occ, err := h.service.CreateOccurrence(r.Context(), schedule.ScheduledOccurrence{
		TenantID: tenantID,
		HomeID:   payload.HomeID,
		SystemID: payload.SystemID,
		Title:    payload.Title,
		Priority: schedule.Priority(payload.Priority),
		DueDate:  dueDate,
	})
	metrics.ObserveOccurrenceEdit("create", err)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}
	h.logAudit(r, tenantID, "occurrence.create", occ.ID, occ.HomeID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(occurrenceJSON(*occ))
}

func (h *OccurrencesHandler) list(w http.ResponseWriter, r *http.Request) {
	homeID := r.URL.Query().Get("home_id")
	if homeID == "" {
		http.Error(w, "home_id query parameter is required", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if !h.ensureHomeAccess(w, r, tenantID, homeID) {
		return
	}
	status := schedule.Status(r.URL.Query().Get("status"))
	occurrences, err := h.service.ListByHome(r.Context(), homeID, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"home_id":     homeID,
		"occurrences": occurrencesJSON(occurrences),
	})
}

func (h *OccurrencesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	occ, err := h.service.GetOccurrence(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" || occ.TenantID != tenantID {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(occurrenceJSON(*occ))
}

func (h *OccurrencesHandler) patch(w http.ResponseWriter, r *http.Request, id string) {
	var payload occurrencePatchPayload
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	existing, err := h.service.GetOccurrence(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" || existing.TenantID != tenantID {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var occ *schedule.ScheduledOccurrence
	switch payload.Action {
	case "reschedule":
		var newDate time.Time
		newDate, err = parseDate(payload.DueDate)
		if err != nil {
			http.Error(w, "invalid due_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		occ, err = h.service.Reschedule(r.Context(), id, newDate)
	case "complete":
		occ, err = h.service.Complete(r.Context(), id, application.CompleteRequest{
			PartsCost: payload.PartsCost,
			LaborCost: payload.LaborCost,
			OtherCost: payload.OtherCost,
			Notes:     payload.Notes,
		})
	case "cancel":
		occ, err = h.service.Cancel(r.Context(), id)
	default:
		http.Error(w, "unknown action, expected reschedule, complete or cancel", http.StatusBadRequest)
		return
	}
	metrics.ObserveOccurrenceEdit(payload.Action, err)
	if err != nil {
		http.Error(w, err.Error(), statusForScheduleError(err))
		return
	}

	h.logAudit(r, tenantID, "occurrence."+payload.Action, occ.ID, occ.HomeID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(occurrenceJSON(*occ))
}

func (h *OccurrencesHandler) ensureHomeAccess(w http.ResponseWriter, r *http.Request, tenantID, homeID string) bool {
	if h.checker == nil {
		return true
	}
	if tenantID == "" {
		http.Error(w, "missing tenant identity", http.StatusForbidden)
		return false
	}
	if err := h.checker.EnsureHomeTenant(r.Context(), tenantID, homeID); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, auth.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return false
	}
	return true
}

func (h *OccurrencesHandler) logAudit(r *http.Request, tenantID, action, resourceID, homeID string) {
	if h.auditLogger == nil || tenantID == "" {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "occurrence",
		ResourceID:   resourceID,
		HomeID:       homeID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func statusForScheduleError(err error) int {
	switch {
	case errors.Is(err, schedule.ErrSeriesNotFound), errors.Is(err, schedule.ErrOccurrenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, schedule.ErrPastDueDate),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrInvalidFrequency),
		errors.Is(err, schedule.ErrConflictingEndConditions),
		errors.Is(err, schedule.ErrInvalidEndCount),
		errors.Is(err, schedule.ErrInvalidPriority):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, target any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if len(body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(body, target)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func seriesJSON(series schedule.Series) map[string]any {
	return map[string]any{
		"id":          series.ID,
		"home_id":     series.HomeID,
		"system_id":   series.SystemID,
		"title":       series.Title,
		"priority":    string(series.Priority),
		"rule":        series.Rule,
		"anchor_date": series.AnchorDate.Format("2006-01-02"),
		"created_at":  series.CreatedAt,
	}
}

func occurrenceJSON(occ schedule.ScheduledOccurrence) map[string]any {
	out := map[string]any{
		"id":             occ.ID,
		"home_id":        occ.HomeID,
		"system_id":      occ.SystemID,
		"sequence_index": occ.SequenceIndex,
		"title":          occ.Title,
		"due_date":       occ.DueDate.Format("2006-01-02"),
		"status":         string(occ.Status),
		"priority":       string(occ.Priority),
	}
	if occ.SeriesID != "" {
		out["series_id"] = occ.SeriesID
	}
	if !occ.CompletedAt.IsZero() {
		out["completed_at"] = occ.CompletedAt
	}
	return out
}

func occurrencesJSON(occurrences []schedule.ScheduledOccurrence) []map[string]any {
	result := make([]map[string]any, 0, len(occurrences))
	for _, occ := range occurrences {
		result = append(result, occurrenceJSON(occ))
	}
	return result
}
