package handler

import "net/http"

// Handlers groups every HTTP handler the API serves. Feed and Metrics may be
// nil.
type Handlers struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	Properties *PropertyHandler
	Tenants    *TenantHandler
	Tickets    *TicketHandler
	Dashboards *DashboardHandler
	Feed       *TicketFeedHandler
	Metrics    http.Handler
}

// NewRouter registers the API routes on a fresh mux
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/change-password", h.Auth.ChangePassword)
	mux.HandleFunc("GET /api/me", h.Auth.Me)
	mux.HandleFunc("POST /api/profiles", h.Auth.CreateProfile)

	mux.HandleFunc("GET /api/dashboard", h.Dashboards.Dashboard)
	mux.HandleFunc("GET /api/inventory", h.Dashboards.Inventory)

	mux.HandleFunc("GET /api/properties", h.Properties.List)
	mux.HandleFunc("POST /api/properties", h.Properties.Create)
	mux.HandleFunc("GET /api/properties/{id}", h.Properties.Get)
	mux.HandleFunc("PUT /api/properties/{id}", h.Properties.Update)
	mux.HandleFunc("GET /api/properties/{id}/rooms", h.Properties.ListRooms)
	mux.HandleFunc("POST /api/properties/{id}/rooms", h.Properties.CreateRoom)
	mux.HandleFunc("PUT /api/rooms/{id}", h.Properties.UpdateRoom)
	mux.HandleFunc("GET /api/rooms/{id}/tickets", h.Tickets.ListForRoom)

	mux.HandleFunc("GET /api/tenants", h.Tenants.List)
	mux.HandleFunc("POST /api/tenants", h.Tenants.Create)
	mux.HandleFunc("POST /api/tenants/{id}/move-out", h.Tenants.MoveOut)
	mux.HandleFunc("GET /api/tenancy", h.Tenants.MyTenancy)

	mux.HandleFunc("GET /api/tickets", h.Tickets.List)
	mux.HandleFunc("POST /api/tickets", h.Tickets.Create)
	mux.HandleFunc("PATCH /api/tickets/{id}/status", h.Tickets.UpdateStatus)
	mux.HandleFunc("PATCH /api/tickets/{id}/vendor", h.Tickets.AssignVendor)

	if h.Feed != nil {
		mux.Handle("GET /ws/tickets", h.Feed)
	}
	return mux
}
