package domain

import (
	"context"
	"time"
)

// RoomType classifies a room.
type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomDouble RoomType = "double"
	RoomFamily RoomType = "family"
)

// Valid reports whether t is one of the known room types.
func (t RoomType) Valid() bool {
	switch t {
	case RoomSingle, RoomDouble, RoomFamily:
		return true
	}
	return false
}

// Property is a building managed by an admin.
type Property struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Room belongs to exactly one property. IsOccupied is only ever written by
// tenant assignment and move-out.
type Room struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	RoomNumber string    `json:"room_number"`
	RoomType   RoomType  `json:"room_type"`
	Price      float64   `json:"price"`
	IsOccupied bool      `json:"is_occupied"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PropertyListing is a property with its rooms embedded, ordered by room number.
type PropertyListing struct {
	Property
	Rooms []*Room `json:"rooms"`
}

// PropertyRepository defines data access for properties
type PropertyRepository interface {
	Create(ctx context.Context, property *Property) error
	Update(ctx context.Context, property *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	// ListWithRooms returns every property newest first, rooms embedded.
	ListWithRooms(ctx context.Context) ([]*PropertyListing, error)
}

// RoomRepository defines data access for rooms. Update never touches
// is_occupied or property_id.
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListByProperty(ctx context.Context, propertyID string) ([]*Room, error)
	List(ctx context.Context) ([]*Room, error)
}
