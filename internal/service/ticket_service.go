package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/observability/metrics"
	"github.com/yourorg/propertyhub/internal/observability/tracing"
	"github.com/yourorg/propertyhub/internal/security"
)

// TicketService handles the maintenance ticket lifecycle
type TicketService struct {
	repos  Repositories
	hub    *feed.Hub
	authz  *security.Authorizer
	logger *slog.Logger
}

// NewTicketService creates a new ticket service. hub may be nil.
func NewTicketService(repos Repositories, hub *feed.Hub, authz *security.Authorizer, logger *slog.Logger) *TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{repos: repos, hub: hub, authz: authz, logger: logger}
}

func (s *TicketService) publish(e feed.Event) {
	if s.hub != nil {
		s.hub.Publish(e)
	}
}

// authorizeRoom lets admins through and checks tenants against their own
// active tenancy.
func (s *TicketService) authorizeRoom(ctx context.Context, op string, id *domain.Identity, roomID string) error {
	tenancy, err := tenancyOf(ctx, s.repos.Tenants, id)
	if err != nil {
		return err
	}
	return s.authz.AuthorizeRoom(op, id, roomID, tenancy)
}

// CreateMaintenanceTicket reports an issue against a room. The ticket's
// property is always taken from the room.
func (s *TicketService) CreateMaintenanceTicket(ctx context.Context, req domain.CreateTicketRequest, id *domain.Identity) (_ *domain.MaintenanceTicket, err error) {
	const op = "createMaintenanceTicket"
	ctx, span := tracing.Start(ctx, op, attribute.String("room_id", req.RoomID))
	defer func() { tracing.End(span, err) }()

	if err := s.authz.Authorize(op, id, security.CapTicketCreate, security.CapTicketCreateOwn); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	room, err := s.repos.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	if err := s.authorizeRoom(ctx, op, id, room.ID); err != nil {
		return nil, err
	}

	ticket := &domain.MaintenanceTicket{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.TicketOpen,
		RoomID:      room.ID,
		PropertyID:  room.PropertyID,
		ReportedBy:  id.ProfileID,
	}
	start = time.Now()
	if err := s.repos.Tickets.Create(ctx, ticket); err != nil {
		return nil, gateway(op, start, err)
	}
	metrics.ObserveTicketCreated(string(id.Role))
	s.publish(feed.Event{Type: feed.TicketCreated, Ticket: ticket})

	s.logger.Info("maintenance ticket created",
		slog.String("ticket_id", ticket.ID),
		slog.String("room_id", ticket.RoomID),
		slog.String("reported_by", ticket.ReportedBy),
	)
	return ticket, nil
}

// UpdateTicketStatus moves a ticket to req.Status. Any transition is allowed;
// asking for the current status returns the ticket without a write.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, ticketID string, req domain.UpdateTicketStatusRequest, id *domain.Identity) (_ *domain.MaintenanceTicket, err error) {
	const op = "updateTicketStatus"
	ctx, span := tracing.Start(ctx, op,
		attribute.String("ticket_id", ticketID),
		attribute.String("status", string(req.Status)),
	)
	defer func() { tracing.End(span, err) }()

	if err := s.authz.Authorize(op, id, security.CapTicketStatus); err != nil {
		return nil, err
	}
	if !domain.ValidID(ticketID) {
		return nil, domain.Validation(op, "ticket id is not valid")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	current, err := s.repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	if current.Status == req.Status {
		return current, nil
	}

	start = time.Now()
	updated, changed, err := s.repos.Tickets.UpdateStatus(ctx, ticketID, req.Status)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	if changed {
		metrics.ObserveTicketTransition(string(current.Status), string(updated.Status))
		s.publish(feed.Event{Type: feed.StatusChanged, Ticket: updated, From: current.Status})
		s.logger.Info("ticket status changed",
			slog.String("ticket_id", updated.ID),
			slog.String("from", string(current.Status)),
			slog.String("to", string(updated.Status)),
		)
	}
	return updated, nil
}

// AssignVendor sets the vendor on a ticket; an empty vendor clears it.
func (s *TicketService) AssignVendor(ctx context.Context, ticketID string, req domain.AssignVendorRequest, id *domain.Identity) (*domain.MaintenanceTicket, error) {
	const op = "assignVendor"
	if err := s.authz.Authorize(op, id, security.CapTicketVendor); err != nil {
		return nil, err
	}
	if !domain.ValidID(ticketID) {
		return nil, domain.Validation(op, "ticket id is not valid")
	}

	start := time.Now()
	ticket, err := s.repos.Tickets.UpdateVendor(ctx, ticketID, strings.TrimSpace(req.Vendor))
	if err != nil {
		return nil, gateway(op, start, err)
	}
	s.publish(feed.Event{Type: feed.VendorAssigned, Ticket: ticket})
	return ticket, nil
}

// ListTicketsForRoom returns a room's tickets newest first. Tenants may only
// list their own room.
func (s *TicketService) ListTicketsForRoom(ctx context.Context, roomID string, id *domain.Identity) ([]*domain.TicketDetail, error) {
	const op = "listTicketsForRoom"
	if err := s.authz.Authorize(op, id, security.CapTicketReadAll, security.CapTicketReadOwn); err != nil {
		return nil, err
	}
	if !domain.ValidID(roomID) {
		return nil, domain.Validation(op, "room id is not valid")
	}

	start := time.Now()
	room, err := s.repos.Rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	if err := s.authorizeRoom(ctx, op, id, room.ID); err != nil {
		return nil, err
	}

	start = time.Now()
	tickets, err := s.repos.Tickets.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return tickets, nil
}

// ListTickets returns the tickets visible to the caller: all of them for
// admins, the own room's for tenants.
func (s *TicketService) ListTickets(ctx context.Context, id *domain.Identity, c filter.Criteria) ([]*domain.TicketDetail, error) {
	const op = "listTickets"
	if err := s.authz.Authorize(op, id, security.CapTicketReadAll, security.CapTicketReadOwn); err != nil {
		return nil, err
	}

	var (
		tickets []*domain.TicketDetail
		err     error
		start   = time.Now()
	)
	if security.ResolveCapabilities(id.Role).Allows(security.CapTicketReadAll) {
		tickets, err = s.repos.Tickets.ListDetails(ctx)
	} else {
		tenancy, terr := tenancyOf(ctx, s.repos.Tenants, id)
		if terr != nil {
			return nil, terr
		}
		if tenancy == nil || tenancy.RoomID == nil {
			return []*domain.TicketDetail{}, nil
		}
		start = time.Now()
		tickets, err = s.repos.Tickets.ListByRoom(ctx, *tenancy.RoomID)
	}
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return filter.Tickets(tickets, c), nil
}

// WatchScope resolves the room a live ticket view may follow. Admins may
// follow any room, or every room with an empty roomID; tenants always follow
// their own room.
func (s *TicketService) WatchScope(ctx context.Context, id *domain.Identity, roomID string) (string, error) {
	const op = "watchTickets"
	if err := s.authz.Authorize(op, id, security.CapTicketReadAll, security.CapTicketReadOwn); err != nil {
		return "", err
	}
	if roomID != "" && !domain.ValidID(roomID) {
		return "", domain.Validation(op, "room id is not valid")
	}
	if security.ResolveCapabilities(id.Role).Allows(security.CapTicketReadAll) {
		return roomID, nil
	}

	tenancy, err := tenancyOf(ctx, s.repos.Tenants, id)
	if err != nil {
		return "", err
	}
	if tenancy == nil || tenancy.RoomID == nil {
		return "", domain.NotAuthorized(op, "no active tenancy")
	}
	if roomID != "" && roomID != *tenancy.RoomID {
		return "", s.authz.AuthorizeRoom(op, id, roomID, tenancy)
	}
	return *tenancy.RoomID, nil
}
