// Package memory is the in-process storage driver. It implements every
// repository interface plus domain.OccupancyStore with the same semantics as
// the Postgres driver, serialised by one mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/propertyhub/internal/domain"
)

// Store holds all entities.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	profiles   map[string]*domain.Profile
	properties map[string]*domain.Property
	rooms      map[string]*domain.Room
	tenants    map[string]*domain.Tenant
	tickets    map[string]*domain.MaintenanceTicket
	// insertion order, oldest first
	propertyOrder []string
	tenantOrder   []string
	ticketOrder   []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		profiles:   make(map[string]*domain.Profile),
		properties: make(map[string]*domain.Property),
		rooms:      make(map[string]*domain.Room),
		tenants:    make(map[string]*domain.Tenant),
		tickets:    make(map[string]*domain.MaintenanceTicket),
	}
}

// Profiles returns the profile repository view
func (s *Store) Profiles() *Profiles { return &Profiles{s} }

// Properties returns the property repository view
func (s *Store) Properties() *Properties { return &Properties{s} }

// Rooms returns the room repository view
func (s *Store) Rooms() *Rooms { return &Rooms{s} }

// Tenants returns the tenant repository and occupancy store view
func (s *Store) Tenants() *Tenants { return &Tenants{s} }

// Tickets returns the ticket repository view
func (s *Store) Tickets() *Tickets { return &Tickets{s} }

// Profiles implements domain.ProfileRepository
type Profiles struct{ s *Store }

func (r *Profiles) Create(_ context.Context, p *domain.Profile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return domain.Validation("createProfile", "a profile with email %s already exists", p.Email)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	cp := *p
	s.profiles[p.ID] = &cp
	return nil
}

func (r *Profiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.NotFound("getProfile", "profile")
	}
	cp := *p
	return &cp, nil
}

func (r *Profiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.NotFound("getProfileByEmail", "profile")
}

func (r *Profiles) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.NotFound("updatePassword", "profile")
	}
	p.PasswordHash = passwordHash
	p.UpdatedAt = s.now()
	return nil
}

func (r *Profiles) List(_ context.Context) ([]*domain.Profile, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Properties implements domain.PropertyRepository
type Properties struct{ s *Store }

func (r *Properties) Create(_ context.Context, p *domain.Property) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	cp := *p
	s.properties[p.ID] = &cp
	s.propertyOrder = append(s.propertyOrder, p.ID)
	return nil
}

func (r *Properties) Update(_ context.Context, p *domain.Property) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.properties[p.ID]
	if !ok {
		return domain.NotFound("updateProperty", "property")
	}
	stored.Name, stored.Location, stored.Description = p.Name, p.Location, p.Description
	stored.UpdatedAt = s.now()
	*p = *stored
	return nil
}

func (r *Properties) GetByID(_ context.Context, id string) (*domain.Property, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, domain.NotFound("getProperty", "property")
	}
	cp := *p
	return &cp, nil
}

func (r *Properties) ListWithRooms(_ context.Context) ([]*domain.PropertyListing, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.PropertyListing, 0, len(s.propertyOrder))
	for i := len(s.propertyOrder) - 1; i >= 0; i-- {
		p := s.properties[s.propertyOrder[i]]
		out = append(out, &domain.PropertyListing{Property: *p, Rooms: s.roomsOf(p.ID)})
	}
	return out, nil
}

// roomsOf must be called with mu held
func (s *Store) roomsOf(propertyID string) []*domain.Room {
	rooms := []*domain.Room{}
	for _, room := range s.rooms {
		if room.PropertyID == propertyID {
			cp := *room
			rooms = append(rooms, &cp)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms
}

// Rooms implements domain.RoomRepository
type Rooms struct{ s *Store }

func (r *Rooms) Create(_ context.Context, room *domain.Room) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[room.PropertyID]; !ok {
		return domain.NotFound("createRoom", "property")
	}
	if s.roomNumberTaken(room.PropertyID, room.RoomNumber, "") {
		return domain.Validation("createRoom", "room %s already exists in this property", room.RoomNumber)
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	room.IsOccupied = false
	room.CreatedAt, room.UpdatedAt = s.now(), s.now()
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (r *Rooms) Update(_ context.Context, room *domain.Room) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return domain.NotFound("updateRoom", "room")
	}
	if s.roomNumberTaken(stored.PropertyID, room.RoomNumber, room.ID) {
		return domain.Validation("updateRoom", "room %s already exists in this property", room.RoomNumber)
	}
	stored.RoomNumber, stored.RoomType, stored.Price = room.RoomNumber, room.RoomType, room.Price
	stored.UpdatedAt = s.now()
	*room = *stored
	return nil
}

// roomNumberTaken must be called with mu held
func (s *Store) roomNumberTaken(propertyID, number, exceptID string) bool {
	for _, room := range s.rooms {
		if room.PropertyID == propertyID && room.RoomNumber == number && room.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *Rooms) GetByID(_ context.Context, id string) (*domain.Room, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.NotFound("getRoom", "room")
	}
	cp := *room
	return &cp, nil
}

func (r *Rooms) ListByProperty(_ context.Context, propertyID string) ([]*domain.Room, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomsOf(propertyID), nil
}

func (r *Rooms) List(_ context.Context) ([]*domain.Room, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		cp := *room
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].RoomNumber < out[j].RoomNumber
	})
	return out, nil
}

// Tenants implements domain.TenantRepository and domain.OccupancyStore
type Tenants struct{ s *Store }

func (r *Tenants) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.NotFound("getTenant", "tenant")
	}
	return copyTenant(t), nil
}

func (r *Tenants) GetActiveByProfile(_ context.Context, profileID string) (*domain.Tenant, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.tenantOrder) - 1; i >= 0; i-- {
		t := s.tenants[s.tenantOrder[i]]
		if t.IsActive && t.ProfileID != nil && *t.ProfileID == profileID {
			return copyTenant(t), nil
		}
	}
	return nil, domain.NotFound("getTenancy", "tenancy")
}

func (r *Tenants) ListActive(_ context.Context) ([]*domain.Tenant, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*domain.Tenant{}
	for i := len(s.tenantOrder) - 1; i >= 0; i-- {
		if t := s.tenants[s.tenantOrder[i]]; t.IsActive {
			out = append(out, copyTenant(t))
		}
	}
	return out, nil
}

func (r *Tenants) ListDetails(_ context.Context) ([]*domain.TenantDetail, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.TenantDetail, 0, len(s.tenantOrder))
	for i := len(s.tenantOrder) - 1; i >= 0; i-- {
		t := s.tenants[s.tenantOrder[i]]
		d := &domain.TenantDetail{Tenant: *copyTenant(t)}
		if t.RoomID != nil {
			if room, ok := s.rooms[*t.RoomID]; ok {
				d.RoomNumber = room.RoomNumber
				d.PropertyID = room.PropertyID
				if p, ok := s.properties[room.PropertyID]; ok {
					d.PropertyName = p.Name
				}
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// AssignRoom claims the room and inserts the tenant under one lock.
func (r *Tenants) AssignRoom(_ context.Context, t *domain.Tenant) error {
	if t.RoomID == nil || *t.RoomID == "" {
		return domain.Validation("assignRoom", "room_id is required")
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[*t.RoomID]
	if !ok {
		return domain.NotFound("assignRoom", "room")
	}
	if room.IsOccupied || s.activeIn(room.ID) {
		return domain.RoomUnavailable("assignRoom", room.ID)
	}
	room.IsOccupied = true
	room.UpdatedAt = s.now()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.IsActive = true
	t.CreatedAt, t.UpdatedAt = s.now(), s.now()
	s.tenants[t.ID] = copyTenant(t)
	s.tenantOrder = append(s.tenantOrder, t.ID)
	return nil
}

func (r *Tenants) ReleaseRoom(_ context.Context, tenantID string, moveOut time.Time) (*domain.Tenant, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, domain.NotFound("releaseRoom", "tenant")
	}
	if !t.IsActive {
		return nil, domain.Validation("releaseRoom", "tenant has already moved out")
	}
	t.IsActive = false
	t.MoveOutDate = &moveOut
	t.UpdatedAt = s.now()
	if t.RoomID != nil && !s.activeIn(*t.RoomID) {
		if room, ok := s.rooms[*t.RoomID]; ok {
			room.IsOccupied = false
			room.UpdatedAt = s.now()
		}
	}
	return copyTenant(t), nil
}

func (r *Tenants) SyncOccupancy(_ context.Context, roomID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false, domain.NotFound("syncOccupancy", "room")
	}
	room.IsOccupied = s.activeIn(roomID)
	room.UpdatedAt = s.now()
	return room.IsOccupied, nil
}

// ForceOccupied overwrites a room's flag without looking at its tenants.
// It exists to seed drifted data the way a manual SQL edit would.
func (s *Store) ForceOccupied(roomID string, occupied bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.NotFound("forceOccupied", "room")
	}
	room.IsOccupied = occupied
	room.UpdatedAt = s.now()
	return nil
}

// activeIn must be called with mu held
func (s *Store) activeIn(roomID string) bool {
	for _, t := range s.tenants {
		if t.InRoom(roomID) {
			return true
		}
	}
	return false
}

func copyTenant(t *domain.Tenant) *domain.Tenant {
	cp := *t
	if t.RoomID != nil {
		v := *t.RoomID
		cp.RoomID = &v
	}
	if t.ProfileID != nil {
		v := *t.ProfileID
		cp.ProfileID = &v
	}
	return &cp
}

// Tickets implements domain.TicketRepository
type Tickets struct{ s *Store }

func (r *Tickets) Create(_ context.Context, t *domain.MaintenanceTicket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[t.RoomID]
	if !ok || room.PropertyID != t.PropertyID {
		// mirrors the composite foreign key
		return domain.NotFound("createTicket", "room")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.TicketOpen
	}
	t.CreatedAt, t.UpdatedAt = s.now(), s.now()
	cp := *t
	s.tickets[t.ID] = &cp
	s.ticketOrder = append(s.ticketOrder, t.ID)
	return nil
}

func (r *Tickets) GetByID(_ context.Context, id string) (*domain.MaintenanceTicket, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.NotFound("getTicket", "ticket")
	}
	cp := *t
	return &cp, nil
}

func (r *Tickets) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.MaintenanceTicket, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, false, domain.NotFound("updateTicketStatus", "ticket")
	}
	if t.Status == status {
		cp := *t
		return &cp, false, nil
	}
	t.Status = status
	t.UpdatedAt = s.now()
	cp := *t
	return &cp, true, nil
}

func (r *Tickets) UpdateVendor(_ context.Context, id, vendor string) (*domain.MaintenanceTicket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.NotFound("assignVendor", "ticket")
	}
	t.AssignedVendor = vendor
	t.UpdatedAt = s.now()
	cp := *t
	return &cp, nil
}

func (r *Tickets) ListByRoom(_ context.Context, roomID string) ([]*domain.TicketDetail, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticketDetails(func(t *domain.MaintenanceTicket) bool { return t.RoomID == roomID }), nil
}

func (r *Tickets) ListDetails(_ context.Context) ([]*domain.TicketDetail, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticketDetails(func(*domain.MaintenanceTicket) bool { return true }), nil
}

// ticketDetails must be called with mu held
func (s *Store) ticketDetails(keep func(*domain.MaintenanceTicket) bool) []*domain.TicketDetail {
	out := []*domain.TicketDetail{}
	for i := len(s.ticketOrder) - 1; i >= 0; i-- {
		t := s.tickets[s.ticketOrder[i]]
		if !keep(t) {
			continue
		}
		d := &domain.TicketDetail{MaintenanceTicket: *t}
		if room, ok := s.rooms[t.RoomID]; ok {
			d.RoomNumber = room.RoomNumber
		}
		if p, ok := s.properties[t.PropertyID]; ok {
			d.PropertyName = p.Name
		}
		out = append(out, d)
	}
	return out
}
