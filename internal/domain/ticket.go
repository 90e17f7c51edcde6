package domain

import (
	"context"
	"time"
)

// TicketStatus is the state of a maintenance ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved:
		return true
	}
	return false
}

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{TicketOpen, TicketInProgress, TicketResolved}

// MaintenanceTicket is an issue reported against a room. PropertyID is always
// copied from the room.
type MaintenanceTicket struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TicketStatus `json:"status"`
	AssignedVendor string       `json:"assigned_vendor,omitempty"`
	RoomID         string       `json:"room_id"`
	PropertyID     string       `json:"property_id"`
	ReportedBy     string       `json:"reported_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TicketDetail is a ticket with room number and property name expanded.
type TicketDetail struct {
	MaintenanceTicket
	RoomNumber   string `json:"room_number"`
	PropertyName string `json:"property_name"`
}

// TicketRepository defines data access for maintenance tickets. List methods
// return newest first.
type TicketRepository interface {
	Create(ctx context.Context, ticket *MaintenanceTicket) error
	GetByID(ctx context.Context, id string) (*MaintenanceTicket, error)
	// UpdateStatus writes only when the stored status differs; changed is
	// false when nothing was written.
	UpdateStatus(ctx context.Context, id string, status TicketStatus) (ticket *MaintenanceTicket, changed bool, err error)
	UpdateVendor(ctx context.Context, id, vendor string) (*MaintenanceTicket, error)
	ListByRoom(ctx context.Context, roomID string) ([]*TicketDetail, error)
	ListDetails(ctx context.Context) ([]*TicketDetail, error)
}
