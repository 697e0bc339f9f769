package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/audit"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/application"
	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
)

// Handler routes maintenance history requests:
//
//	POST /api/v1/maintenance           record a manual entry
//	GET  /api/v1/maintenance?home_id=  list history for a home
type Handler struct {
	service     *application.Service
	checker     auth.HomeTenantChecker
	auditLogger audit.Logger
}

// NewHandler constructs a maintenance handler.
func NewHandler(service *application.Service, checker auth.HomeTenantChecker, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("maintenance handler: nil service")
	}
	return &Handler{service: service, checker: checker, auditLogger: auditLogger}, nil
}

type recordPayload struct {
	HomeID   string           `json:"home_id"`
	SystemID string           `json:"system_id"`
	Title    string           `json:"title"`
	Date     string           `json:"date"`
	Cost     maintenance.Cost `json:"cost"`
	Notes    string           `json:"notes"`
}

// ServeHTTP routes maintenance requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload recordPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if !h.ensureHomeAccess(w, r, tenantID, payload.HomeID) {
		return
	}

	entry, err := h.service.Record(r.Context(), application.RecordRequest{
		TenantID: tenantID,
		HomeID:   payload.HomeID,
		SystemID: payload.SystemID,
		Title:    payload.Title,
		Date:     date,
		Cost:     payload.Cost,
		Notes:    payload.Notes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logAudit(r, tenantID, entry)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(entry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filterFromRequest(w, r)
	if !ok {
		return
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var total float64
	for _, entry := range entries {
		total += entry.Cost.Total()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"home_id":    filter.HomeID,
		"entries":    entries,
		"total_cost": total,
	})
}

func (h *Handler) filterFromRequest(w http.ResponseWriter, r *http.Request) (maintenance.ListFilter, bool) {
	homeID := r.URL.Query().Get("home_id")
	if homeID == "" {
		http.Error(w, "home_id query parameter is required", http.StatusBadRequest)
		return maintenance.ListFilter{}, false
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if !h.ensureHomeAccess(w, r, tenantID, homeID) {
		return maintenance.ListFilter{}, false
	}
	filter := maintenance.ListFilter{
		HomeID:   homeID,
		SystemID: r.URL.Query().Get("system_id"),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			http.Error(w, "invalid from, expected YYYY-MM-DD", http.StatusBadRequest)
			return maintenance.ListFilter{}, false
		}
		filter.From = parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			http.Error(w, "invalid to, expected YYYY-MM-DD", http.StatusBadRequest)
			return maintenance.ListFilter{}, false
		}
		filter.To = parsed
	}
	return filter, true
}

func (h *Handler) ensureHomeAccess(w http.ResponseWriter, r *http.Request, tenantID, homeID string) bool {
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

func (h *Handler) logAudit(r *http.Request, tenantID string, entry *maintenance.LogEntry) {
	if h.auditLogger == nil || tenantID == "" {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "maintenance.record",
		ResourceType: "maintenance_entry",
		ResourceID:   entry.ID,
		HomeID:       entry.HomeID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// ExportHandler serves GET /api/v1/exports/maintenance.csv with the full
// maintenance history of one home.
type ExportHandler struct {
	service *application.Service
	checker auth.HomeTenantChecker
}

// NewExportHandler constructs a CSV export handler.
func NewExportHandler(service *application.Service, checker auth.HomeTenantChecker) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("maintenance export handler: nil service")
	}
	return &ExportHandler{service: service, checker: checker}, nil
}

// ServeHTTP writes the history as CSV.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	homeID := r.URL.Query().Get("home_id")
	if homeID == "" {
		http.Error(w, "home_id query parameter is required", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if h.checker != nil {
		if tenantID == "" {
			http.Error(w, "missing tenant identity", http.StatusForbidden)
			return
		}
		if err := h.checker.EnsureHomeTenant(r.Context(), tenantID, homeID); err != nil {
			status := http.StatusForbidden
			if errors.Is(err, auth.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
	}

	entries, err := h.service.List(r.Context(), maintenance.ListFilter{HomeID: homeID})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="maintenance.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"date", "system_id", "title", "parts_cost", "labor_cost", "other_cost", "total_cost", "notes"})
	for _, entry := range entries {
		_ = writer.Write([]string{
			entry.Date.Format("2006-01-02"),
			entry.SystemID,
			entry.Title,
			fmt.Sprintf("%.2f", entry.Cost.Parts),
			fmt.Sprintf("%.2f", entry.Cost.Labor),
			fmt.Sprintf("%.2f", entry.Cost.Other),
			fmt.Sprintf("%.2f", entry.Cost.Total()),
			entry.Notes,
		})
	}
	writer.Flush()
}
