package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/audit"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/auth"
	application "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/application"
)

// ProvisioningHandler handles home provisioning requests.
type ProvisioningHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewProvisioningHandler constructs a handler.
func NewProvisioningHandler(service *application.Service, auditLogger audit.Logger) (*ProvisioningHandler, error) {
	if service == nil {
		return nil, errors.New("provisioning handler: nil service")
	}
	return &ProvisioningHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles POST /api/v1/provisioning/homes.
func (h *ProvisioningHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req application.ProvisionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID != "" && req.Home.TenantID != "" && req.Home.TenantID != tenantID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if tenantID != "" {
		req.Home.TenantID = tenantID
	}

	resp, err := h.service.ProvisionHome(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, req.Home.TenantID, resp.HomeID)
}

func (h *ProvisioningHandler) logAudit(r *http.Request, tenantID, homeID string) {
	if h.auditLogger == nil || tenantID == "" {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     tenantID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "provision.home",
		ResourceType: "home",
		ResourceID:   homeID,
		HomeID:       homeID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// SystemsHandler serves GET /api/v1/homes/{id}/systems.
type SystemsHandler struct {
	service *application.Service
	checker auth.HomeTenantChecker
}

// NewSystemsHandler constructs a systems handler.
func NewSystemsHandler(service *application.Service, checker auth.HomeTenantChecker) (*SystemsHandler, error) {
	if service == nil {
		return nil, errors.New("systems handler: nil service")
	}
	return &SystemsHandler{service: service, checker: checker}, nil
}

// ServeHTTP routes home systems requests.
func (h *SystemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/homes/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "systems" {
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

	systems, err := h.service.ListSystems(r.Context(), homeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"home_id": homeID, "systems": systems})
}
