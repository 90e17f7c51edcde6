package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreatePropertyRequest is the admin form for a new property.
type CreatePropertyRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (r CreatePropertyRequest) Validate() error {
	const op = "createProperty"
	if strings.TrimSpace(r.Name) == "" {
		return Validation(op, "name is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return Validation(op, "location is required")
	}
	return nil
}

// UpdatePropertyRequest replaces the editable property fields.
type UpdatePropertyRequest CreatePropertyRequest

func (r UpdatePropertyRequest) Validate() error {
	return CreatePropertyRequest(r).Validate()
}

// RoomRequest is the admin form for creating or editing a room. It has no
// occupancy field on purpose: occupancy is owned by tenant assignment.
type RoomRequest struct {
	RoomNumber string   `json:"room_number"`
	RoomType   RoomType `json:"room_type"`
	Price      float64  `json:"price"`
}

func (r RoomRequest) Validate() error {
	const op = "room"
	if strings.TrimSpace(r.RoomNumber) == "" {
		return Validation(op, "room_number is required")
	}
	if !r.RoomType.Valid() {
		return Validation(op, "room_type must be one of single, double, family")
	}
	if r.Price < 0 {
		return Validation(op, "price must not be negative")
	}
	return nil
}

// CreateTenantRequest is the admin form that assigns a new tenant to a room.
type CreateTenantRequest struct {
	FullName             string `json:"full_name"`
	DateOfBirth          string `json:"date_of_birth"`
	TenantType           string `json:"tenant_type"`
	IdentificationNumber string `json:"identification_number"`
	RoomID               string `json:"room_id"`
	MoveInDate           string `json:"move_in_date"`
	ProfileID            string `json:"profile_id"`
}

func (r CreateTenantRequest) Validate() error {
	const op = "createTenant"
	if strings.TrimSpace(r.FullName) == "" {
		return Validation(op, "full_name is required")
	}
	if r.RoomID == "" {
		return Validation(op, "room_id is required")
	}
	if _, err := uuid.Parse(r.RoomID); err != nil {
		return Validation(op, "room_id is not a valid id")
	}
	if r.ProfileID != "" {
		if _, err := uuid.Parse(r.ProfileID); err != nil {
			return Validation(op, "profile_id is not a valid id")
		}
	}
	dob, err := parseDate(r.DateOfBirth)
	if err != nil {
		return Validation(op, "date_of_birth must be formatted as YYYY-MM-DD")
	}
	if dob != nil && dob.After(time.Now()) {
		return Validation(op, "date_of_birth is in the future")
	}
	if _, err := parseDate(r.MoveInDate); err != nil {
		return Validation(op, "move_in_date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// Tenant builds the active tenant row. Call Validate first; moveInDefault is
// used when no move-in date was supplied.
func (r CreateTenantRequest) Tenant(moveInDefault time.Time) *Tenant {
	roomID := r.RoomID
	t := &Tenant{
		FullName:             strings.TrimSpace(r.FullName),
		TenantType:           strings.TrimSpace(r.TenantType),
		IdentificationNumber: strings.TrimSpace(r.IdentificationNumber),
		RoomID:               &roomID,
		IsActive:             true,
	}
	t.DateOfBirth, _ = parseDate(r.DateOfBirth)
	t.MoveInDate, _ = parseDate(r.MoveInDate)
	if t.MoveInDate == nil {
		d := truncateDay(moveInDefault)
		t.MoveInDate = &d
	}
	if r.ProfileID != "" {
		pid := r.ProfileID
		t.ProfileID = &pid
	}
	return t
}

// MoveOutRequest ends a tenancy. An empty date means today.
type MoveOutRequest struct {
	MoveOutDate string `json:"move_out_date"`
}

func (r MoveOutRequest) Validate() error {
	if _, err := parseDate(r.MoveOutDate); err != nil {
		return Validation("moveOutTenant", "move_out_date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// Date returns the move-out date, or today when none was given.
func (r MoveOutRequest) Date(now time.Time) time.Time {
	if d, _ := parseDate(r.MoveOutDate); d != nil {
		return *d
	}
	return truncateDay(now)
}

// CreateTicketRequest reports a maintenance issue. PropertyID is accepted on
// the wire but ignored; the property is always taken from the room.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RoomID      string `json:"room_id"`
	PropertyID  string `json:"property_id,omitempty"`
}

func (r CreateTicketRequest) Validate() error {
	const op = "createMaintenanceTicket"
	if strings.TrimSpace(r.Title) == "" {
		return Validation(op, "title is required")
	}
	if r.RoomID == "" {
		return Validation(op, "room_id is required")
	}
	if _, err := uuid.Parse(r.RoomID); err != nil {
		return Validation(op, "room_id is not a valid id")
	}
	return nil
}

// UpdateTicketStatusRequest moves a ticket to another status.
type UpdateTicketStatusRequest struct {
	Status TicketStatus `json:"status"`
}

func (r UpdateTicketStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return Validation("updateTicketStatus", "status must be one of open, in_progress, resolved")
	}
	return nil
}

// AssignVendorRequest sets or clears the vendor on a ticket.
type AssignVendorRequest struct {
	Vendor string `json:"assigned_vendor"`
}

// CreateProfileRequest provisions a user account.
type CreateProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Password string `json:"password"`
}

func (r CreateProfileRequest) Validate() error {
	const op = "createProfile"
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return Validation(op, "email is not valid")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return Validation(op, "full_name is required")
	}
	if !r.Role.Valid() {
		return Validation(op, "role must be one of admin, tenant, public_authority")
	}
	if len(r.Password) < 8 {
		return Validation(op, "password must be at least 8 characters")
	}
	return nil
}

// ValidID reports whether id looks like a gateway-generated identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
