package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/application"
	insights "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/domain"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/interfaces"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/observability/metrics"
)

// Handler routes insights requests:
//
//	GET /api/v1/insights/{homeID}/patterns
//	GET /api/v1/insights/{homeID}/correlations?from&to
//	GET /api/v1/insights/{homeID}/timeline?from&to&granularity
//	GET /api/v1/insights/{homeID}/report.pdf?from&to
//	GET /api/v1/insights/{homeID}/report.xlsx?from&to
type Handler struct {
	service *application.Service
	checker auth.HomeTenantChecker
}

// NewHandler constructs an insights handler.
func NewHandler(service *application.Service, checker auth.HomeTenantChecker) (*Handler, error) {
	if service == nil {
		return nil, errors.New("insights handler: nil service")
	}
	return &Handler{service: service, checker: checker}, nil
}

// ServeHTTP routes insights requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/insights/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	homeID := parts[0]

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

	switch parts[1] {
	case "patterns":
		h.patterns(w, r, homeID)
	case "correlations":
		h.correlations(w, r, homeID)
	case "timeline":
		h.timeline(w, r, homeID)
	case "report.pdf":
		h.report(w, r, homeID, "pdf")
	case "report.xlsx":
		h.report(w, r, homeID, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) patterns(w http.ResponseWriter, r *http.Request, homeID string) {
	start := time.Now()
	result, err := h.service.Patterns(r.Context(), homeID)
	metrics.ObserveInsights("patterns", err, time.Since(start))
	if err != nil {
		http.Error(w, err.Error(), statusForInsightsError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) correlations(w http.ResponseWriter, r *http.Request, homeID string) {
	from, to, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := h.service.Correlations(r.Context(), homeID, from, to)
	metrics.ObserveInsights("correlations", err, time.Since(start))
	if err != nil {
		http.Error(w, err.Error(), statusForInsightsError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request, homeID string) {
	from, to, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	granularity := insights.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = insights.GranularityDay
	}
	start := time.Now()
	timeline, err := h.service.Timeline(r.Context(), homeID, from, to, granularity)
	metrics.ObserveInsights("timeline", err, time.Since(start))
	if err != nil {
		http.Error(w, err.Error(), statusForInsightsError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(timeline)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, homeID, format string) {
	from, to, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	start := time.Now()
	data, err := h.service.Report(r.Context(), homeID, from, to)
	if err != nil {
		metrics.ObserveReportExport(format, err, time.Since(start))
		http.Error(w, err.Error(), statusForInsightsError(err))
		return
	}

	var (
		content     []byte
		contentType string
		filename    string
	)
	switch format {
	case "pdf":
		content, err = interfaces.BuildMaintenanceReportPDF(data)
		contentType = "application/pdf"
		filename = "maintenance-report.pdf"
	case "xlsx":
		content, err = interfaces.BuildMaintenanceReportXLSX(data)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "maintenance-report.xlsx"
	}
	metrics.ObserveReportExport(format, err, time.Since(start))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(content)
}

func rangeFromQuery(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	to := now
	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			http.Error(w, "invalid from, expected YYYY-MM-DD", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			http.Error(w, "invalid to, expected YYYY-MM-DD", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if to.Before(from) {
		http.Error(w, "to must not precede from", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func statusForInsightsError(err error) int {
	switch {
	case errors.Is(err, application.ErrHomeNotFound):
		return http.StatusNotFound
	case errors.Is(err, insights.ErrInvalidGranularity), errors.Is(err, insights.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
