package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/service"
)

// TicketHandler handles maintenance ticket endpoints
type TicketHandler struct {
	tickets *service.TicketService
	logger  *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets *service.TicketService, logger *slog.Logger) *TicketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketHandler{tickets: tickets, logger: logger}
}

// List handles GET /api/tickets
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListTickets(r.Context(), identity(r), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Create handles POST /api/tickets
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTicketRequest
	if err := decodeJSON(r, "createMaintenanceTicket", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ticket, err := h.tickets.CreateMaintenanceTicket(r.Context(), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// UpdateStatus handles PATCH /api/tickets/{id}/status
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTicketStatusRequest
	if err := decodeJSON(r, "updateTicketStatus", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ticket, err := h.tickets.UpdateTicketStatus(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// AssignVendor handles PATCH /api/tickets/{id}/vendor
func (h *TicketHandler) AssignVendor(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignVendorRequest
	if err := decodeJSON(r, "assignVendor", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ticket, err := h.tickets.AssignVendor(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ListForRoom handles GET /api/rooms/{id}/tickets
func (h *TicketHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListTicketsForRoom(r.Context(), r.PathValue("id"), identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, filter.Tickets(tickets, filter.ParseCriteria(r.URL.Query())))
}
