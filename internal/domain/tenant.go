package domain

import (
	"context"
	"time"
)

// Tenant is a person currently or formerly assigned to a room.
type Tenant struct {
	ID                   string     `json:"id"`
	FullName             string     `json:"full_name"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	TenantType           string     `json:"tenant_type,omitempty"`
	IdentificationNumber string     `json:"identification_number,omitempty"`
	RoomID               *string    `json:"room_id,omitempty"`
	MoveInDate           *time.Time `json:"move_in_date,omitempty"`
	MoveOutDate          *time.Time `json:"move_out_date,omitempty"`
	IsActive             bool       `json:"is_active"`
	ProfileID            *string    `json:"profile_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// InRoom reports whether the tenant is active in roomID.
func (t *Tenant) InRoom(roomID string) bool {
	return t != nil && t.IsActive && t.RoomID != nil && *t.RoomID == roomID
}

// TenantDetail is a tenant with its room and property expanded.
type TenantDetail struct {
	Tenant
	Room         *Room  `json:"room,omitempty"`
	RoomNumber   string `json:"room_number,omitempty"`
	PropertyID   string `json:"property_id,omitempty"`
	PropertyName string `json:"property_name,omitempty"`
}

// TenantRepository defines read access for tenants. Writes that affect
// occupancy go through OccupancyStore.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetActiveByProfile(ctx context.Context, profileID string) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
	// ListDetails returns tenants newest first with room and property expanded.
	ListDetails(ctx context.Context) ([]*TenantDetail, error)
}

// OccupancyStore performs the multi-row writes that keep Room.IsOccupied and
// Tenant.IsActive consistent. Each call is all-or-nothing.
type OccupancyStore interface {
	// AssignRoom marks *tenant.RoomID occupied, only if it is currently
	// unoccupied, and inserts tenant as active. Returns ErrRoomUnavailable
	// when the room is taken and ErrNotFound when it does not exist.
	AssignRoom(ctx context.Context, tenant *Tenant) error
	// ReleaseRoom deactivates the tenant, stamps the move-out date and clears
	// the room's occupancy when no other active tenant remains.
	ReleaseRoom(ctx context.Context, tenantID string, moveOut time.Time) (*Tenant, error)
	// SyncOccupancy sets a room's flag to whether it has an active tenant,
	// read at write time, and returns the stored value.
	SyncOccupancy(ctx context.Context, roomID string) (bool, error)
}
