package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/filter"
)

func TestTicketPropertyComesFromRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.property(t, "Maple", "Oslo")
	b := f.property(t, "Birch", "Bergen")
	room := f.room(t, a.ID, "101", domain.RoomSingle, 700)

	ticket, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{
		Title:      "Leaking tap",
		RoomID:     room.ID,
		PropertyID: b.ID,
	}, adminID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, ticket.PropertyID)
	assert.Equal(t, domain.TicketOpen, ticket.Status)
	assert.Equal(t, adminID.ProfileID, ticket.ReportedBy)
}

func TestTenantReportsOnlyOwnRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	own := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	foreign := f.room(t, p.ID, "102", domain.RoomSingle, 700)
	f.assign(t, own.ID, tenantUser.ProfileID)

	_, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "Noise", RoomID: foreign.ID}, tenantUser)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	list, err := f.repos.Tickets.ListDetails(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ticket, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "Heater", RoomID: own.ID}, tenantUser)
	require.NoError(t, err)
	assert.Equal(t, tenantUser.ProfileID, ticket.ReportedBy)
}

func TestTenantWithoutTenancyCannotReport(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)

	_, err := f.tickets.CreateMaintenanceTicket(context.Background(), domain.CreateTicketRequest{Title: "x", RoomID: room.ID}, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestAuthorityCannotReport(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)

	_, err := f.tickets.CreateMaintenanceTicket(context.Background(), domain.CreateTicketRequest{Title: "x", RoomID: room.ID}, authorityID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreateTicketUnknownRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.CreateMaintenanceTicket(context.Background(),
		domain.CreateTicketRequest{Title: "x", RoomID: "c0000000-0000-4000-8000-000000000009"}, adminID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "room not found", err.Error())
}

// countingTickets counts status writes reaching the gateway
type countingTickets struct {
	domain.TicketRepository
	writes int
}

func (c *countingTickets) UpdateStatus(ctx context.Context, id string, s domain.TicketStatus) (*domain.MaintenanceTicket, bool, error) {
	c.writes++
	return c.TicketRepository.UpdateStatus(ctx, id, s)
}

func TestUpdateTicketStatusIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	ticket, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "Leak", RoomID: room.ID}, adminID)
	require.NoError(t, err)

	counter := &countingTickets{TicketRepository: f.repos.Tickets}
	repos := f.repos
	repos.Tickets = counter
	events, cancel := f.hub.Subscribe(feed.RoomFilter(room.ID), 8)
	defer cancel()
	svc := NewTicketService(repos, f.hub, f.tickets.authz, nil)

	req := domain.UpdateTicketStatusRequest{Status: domain.TicketInProgress}
	first, err := svc.UpdateTicketStatus(ctx, ticket.ID, req, adminID)
	require.NoError(t, err)
	second, err := svc.UpdateTicketStatus(ctx, ticket.ID, req, adminID)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketInProgress, first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, counter.writes)
	require.Len(t, events, 1)
	e := <-events
	assert.Equal(t, feed.StatusChanged, e.Type)
	assert.Equal(t, domain.TicketOpen, e.From)
}

func TestUpdateTicketStatusAnyToAny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	ticket, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "Leak", RoomID: room.ID}, adminID)
	require.NoError(t, err)

	for _, s := range []domain.TicketStatus{domain.TicketResolved, domain.TicketOpen, domain.TicketInProgress, domain.TicketResolved} {
		got, err := f.tickets.UpdateTicketStatus(ctx, ticket.ID, domain.UpdateTicketStatusRequest{Status: s}, adminID)
		require.NoError(t, err)
		assert.Equal(t, s, got.Status)
	}
}

func TestUpdateTicketStatusErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := "c0000000-0000-4000-8000-000000000009"

	_, err := f.tickets.UpdateTicketStatus(ctx, missing, domain.UpdateTicketStatusRequest{Status: "closed"}, adminID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.tickets.UpdateTicketStatus(ctx, missing, domain.UpdateTicketStatusRequest{Status: domain.TicketResolved}, adminID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.tickets.UpdateTicketStatus(ctx, missing, domain.UpdateTicketStatusRequest{Status: domain.TicketResolved}, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestAssignVendor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	ticket, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "Leak", RoomID: room.ID}, adminID)
	require.NoError(t, err)

	got, err := f.tickets.AssignVendor(ctx, ticket.ID, domain.AssignVendorRequest{Vendor: " Acme Plumbing "}, adminID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", got.AssignedVendor)

	got, err = f.tickets.AssignVendor(ctx, ticket.ID, domain.AssignVendorRequest{}, adminID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedVendor)
}

func TestListTicketsForRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	own := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	other := f.room(t, p.ID, "102", domain.RoomSingle, 700)
	f.assign(t, own.ID, tenantUser.ProfileID)

	for _, title := range []string{"first", "second"} {
		_, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: title, RoomID: own.ID}, adminID)
		require.NoError(t, err)
	}
	_, err := f.tickets.CreateMaintenanceTicket(ctx, domain.CreateTicketRequest{Title: "elsewhere", RoomID: other.ID}, adminID)
	require.NoError(t, err)

	list, err := f.tickets.ListTicketsForRoom(ctx, own.ID, tenantUser)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	_, err = f.tickets.ListTicketsForRoom(ctx, other.ID, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.tickets.ListTicketsForRoom(ctx, own.ID, authorityID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	all, err := f.tickets.ListTickets(ctx, adminID, filter.Criteria{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.tickets.ListTickets(ctx, tenantUser, filter.Criteria{Search: "SECOND"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "second", mine[0].Title)
}
