package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/service"
)

// TenantHandler handles tenancy endpoints
type TenantHandler struct {
	occupancy *service.OccupancyService
	logger    *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(occupancy *service.OccupancyService, logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{occupancy: occupancy, logger: logger}
}

// List handles GET /api/tenants
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.occupancy.ListTenants(r.Context(), identity(r), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// Create handles POST /api/tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTenantRequest
	if err := decodeJSON(r, "createTenant", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tenant, err := h.occupancy.CreateTenant(r.Context(), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

// MoveOut handles POST /api/tenants/{id}/move-out. The body is optional.
func (h *TenantHandler) MoveOut(w http.ResponseWriter, r *http.Request) {
	var req domain.MoveOutRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, h.logger, domain.Validation("moveOutTenant", "invalid request body"))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, h.logger, domain.Validation("moveOutTenant", "invalid request body"))
			return
		}
	}
	tenant, err := h.occupancy.MoveOutTenant(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// MyTenancy handles GET /api/tenancy
func (h *TenantHandler) MyTenancy(w http.ResponseWriter, r *http.Request) {
	tenancy, err := h.occupancy.MyTenancy(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenancy)
}
