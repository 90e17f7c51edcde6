package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/service"
)

// FeedMessage is one frame sent to a ticket feed client
type FeedMessage struct {
	Type    string                 `json:"type"`
	RoomID  string                 `json:"room_id,omitempty"`
	Tickets []*domain.TicketDetail `json:"tickets,omitempty"`
	Event   *feed.Event            `json:"event,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// feedCommand is sent by the client to follow another room
type feedCommand struct {
	RoomID string `json:"room_id"`
}

// TicketFeedHandler streams ticket changes over a websocket
type TicketFeedHandler struct {
	tickets        *service.TicketService
	hub            *feed.Hub
	enabled        func() bool
	allowedOrigins []string
	logger         *slog.Logger
}

// NewTicketFeedHandler creates a new ticket feed handler. enabled is checked
// per request so the flag can be flipped without a restart.
func NewTicketFeedHandler(tickets *service.TicketService, hub *feed.Hub, enabled func() bool, allowedOrigins []string, logger *slog.Logger) *TicketFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketFeedHandler{
		tickets:        tickets,
		hub:            hub,
		enabled:        enabled,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *TicketFeedHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// load resolves the scope and its ticket snapshot
func (h *TicketFeedHandler) load(ctx context.Context, id *domain.Identity, roomID string) (string, []*domain.TicketDetail, error) {
	scope, err := h.tickets.WatchScope(ctx, id, roomID)
	if err != nil {
		return "", nil, err
	}
	var tickets []*domain.TicketDetail
	if scope == "" {
		tickets, err = h.tickets.ListTickets(ctx, id, filter.Criteria{})
	} else {
		tickets, err = h.tickets.ListTicketsForRoom(ctx, scope, id)
	}
	return scope, tickets, err
}

// feedConn serialises writes; gorilla allows one concurrent writer.
type feedConn struct {
	ws    *websocket.Conn
	mu    sync.Mutex
	scope string
}

func (c *feedConn) send(m FeedMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(m)
}

func (c *feedConn) setScope(s string) {
	c.mu.Lock()
	c.scope = s
	c.mu.Unlock()
}

func (c *feedConn) follows(e feed.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope == "" || (e.Ticket != nil && e.Ticket.RoomID == c.scope)
}

// ServeHTTP handles GET /ws/tickets?room_id=
func (h *TicketFeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.enabled != nil && !h.enabled() {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "ticket feed is disabled", Kind: "not_found"})
		return
	}

	id := identity(r)
	// authorize before upgrading so failures keep their HTTP status
	scope, snapshot, err := h.load(r.Context(), id, r.URL.Query().Get("room_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	conn := &feedConn{ws: ws, scope: scope}
	events, unsubscribe := h.hub.Subscribe(nil, 64)
	defer unsubscribe()

	if err := conn.send(FeedMessage{Type: "snapshot", RoomID: scope, Tickets: snapshot}); err != nil {
		return
	}

	var guard feed.Guard
	defer guard.Stop()
	go h.readCommands(ctx, stop, conn, &guard, id)

	// Heartbeat ping to keep connection alive
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.mu.Lock()
			err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			conn.mu.Unlock()
			if err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if !conn.follows(e) {
				continue
			}
			if err := conn.send(FeedMessage{Type: "event", Event: &e}); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("profile_id", id.ProfileID))
				}
				return
			}
		}
	}
}

// readCommands handles room switches. Each switch starts a new guard
// generation; a snapshot is applied only if no later switch superseded it,
// and a failed refresh keeps the current view.
func (h *TicketFeedHandler) readCommands(ctx context.Context, stop context.CancelFunc, conn *feedConn, guard *feed.Guard, id *domain.Identity) {
	defer stop()
	for {
		var cmd feedCommand
		if err := conn.ws.ReadJSON(&cmd); err != nil {
			return
		}

		fetchCtx, gen := guard.Begin(ctx)
		go func(roomID string) {
			scope, tickets, err := h.load(fetchCtx, id, roomID)
			guard.Apply(gen, func() {
				if err != nil {
					h.logger.Warn("ticket feed refresh failed",
						slog.String("profile_id", id.ProfileID),
						slog.String("error", err.Error()),
					)
					_ = conn.send(FeedMessage{Type: "error", RoomID: roomID, Error: err.Error()})
					return
				}
				conn.setScope(scope)
				_ = conn.send(FeedMessage{Type: "snapshot", RoomID: scope, Tickets: tickets})
			})
		}(cmd.RoomID)
	}
}
