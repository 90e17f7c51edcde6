package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/service"
)

// DashboardHandler serves the role-scoped views
type DashboardHandler struct {
	dashboards *service.DashboardService
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboards *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{dashboards: dashboards, logger: logger}
}

// Dashboard handles GET /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboards.Compose(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Inventory handles GET /api/inventory
func (h *DashboardHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.dashboards.Inventory(r.Context(), identity(r), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
