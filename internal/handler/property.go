package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/service"
)

// PropertyHandler handles property and room endpoints
type PropertyHandler struct {
	properties *service.PropertyService
	logger     *slog.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *service.PropertyService, logger *slog.Logger) *PropertyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyHandler{properties: properties, logger: logger}
}

// List handles GET /api/properties
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.properties.ListProperties(r.Context(), identity(r), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
	if err := decodeJSON(r, "createProperty", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.properties.CreateProperty(r.Context(), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /api/properties/{id}
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.GetProperty(r.Context(), r.PathValue("id"), identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/properties/{id}
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePropertyRequest
	if err := decodeJSON(r, "updateProperty", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.properties.UpdateProperty(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListRooms handles GET /api/properties/{id}/rooms
func (h *PropertyHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.properties.ListRooms(r.Context(), r.PathValue("id"), identity(r), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// CreateRoom handles POST /api/properties/{id}/rooms
func (h *PropertyHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.RoomRequest
	if err := decodeJSON(r, "createRoom", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.properties.CreateRoom(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// UpdateRoom handles PUT /api/rooms/{id}
func (h *PropertyHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.RoomRequest
	if err := decodeJSON(r, "updateRoom", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.properties.UpdateRoom(r.Context(), r.PathValue("id"), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
