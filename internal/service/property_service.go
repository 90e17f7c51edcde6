package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/security"
)

// PropertyService handles property and room administration
type PropertyService struct {
	repos  Repositories
	cache  domain.InventoryCache
	authz  *security.Authorizer
	logger *slog.Logger
}

// NewPropertyService creates a new property service. cache may be nil.
func NewPropertyService(repos Repositories, cache domain.InventoryCache, authz *security.Authorizer, logger *slog.Logger) *PropertyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyService{repos: repos, cache: cache, authz: authz, logger: logger}
}

// CreateProperty adds a property owned by the caller
func (s *PropertyService) CreateProperty(ctx context.Context, req domain.CreatePropertyRequest, id *domain.Identity) (*domain.Property, error) {
	const op = "createProperty"
	if err := s.authz.Authorize(op, id, security.CapPropertyCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &domain.Property{
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   id.ProfileID,
	}
	start := time.Now()
	if err := s.repos.Properties.Create(ctx, p); err != nil {
		return nil, gateway(op, start, err)
	}
	invalidate(ctx, s.cache)
	s.logger.Info("property created", slog.String("property_id", p.ID), slog.String("by", id.ProfileID))
	return p, nil
}

// UpdateProperty rewrites a property's name, location and description
func (s *PropertyService) UpdateProperty(ctx context.Context, propertyID string, req domain.UpdatePropertyRequest, id *domain.Identity) (*domain.Property, error) {
	const op = "updateProperty"
	if err := s.authz.Authorize(op, id, security.CapPropertyUpdate); err != nil {
		return nil, err
	}
	if !domain.ValidID(propertyID) {
		return nil, domain.Validation(op, "property id is not valid")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &domain.Property{
		ID:          propertyID,
		Name:        strings.TrimSpace(req.Name),
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
	}
	start := time.Now()
	if err := s.repos.Properties.Update(ctx, p); err != nil {
		return nil, gateway(op, start, err)
	}
	invalidate(ctx, s.cache)
	return p, nil
}

// GetProperty returns one property with its rooms
func (s *PropertyService) GetProperty(ctx context.Context, propertyID string, id *domain.Identity) (*domain.PropertyListing, error) {
	const op = "getProperty"
	if err := s.authz.Authorize(op, id, security.CapPropertyRead); err != nil {
		return nil, err
	}
	if !domain.ValidID(propertyID) {
		return nil, domain.Validation(op, "property id is not valid")
	}

	start := time.Now()
	p, err := s.repos.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	rooms, err := s.repos.Rooms.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return &domain.PropertyListing{Property: *p, Rooms: rooms}, nil
}

// ListProperties returns every property newest first, filtered by c
func (s *PropertyService) ListProperties(ctx context.Context, id *domain.Identity, c filter.Criteria) ([]*domain.PropertyListing, error) {
	const op = "listProperties"
	if err := s.authz.Authorize(op, id, security.CapPropertyRead); err != nil {
		return nil, err
	}
	start := time.Now()
	listings, err := s.repos.Properties.ListWithRooms(ctx)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return filter.Properties(listings, c), nil
}

// CreateRoom adds a vacant room to a property
func (s *PropertyService) CreateRoom(ctx context.Context, propertyID string, req domain.RoomRequest, id *domain.Identity) (*domain.Room, error) {
	const op = "createRoom"
	if err := s.authz.Authorize(op, id, security.CapRoomCreate); err != nil {
		return nil, err
	}
	if !domain.ValidID(propertyID) {
		return nil, domain.Validation(op, "property id is not valid")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	if _, err := s.repos.Properties.GetByID(ctx, propertyID); err != nil {
		return nil, gateway(op, start, err)
	}
	room := &domain.Room{
		PropertyID: propertyID,
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		RoomType:   req.RoomType,
		Price:      req.Price,
	}
	start = time.Now()
	if err := s.repos.Rooms.Create(ctx, room); err != nil {
		return nil, gateway(op, start, err)
	}
	invalidate(ctx, s.cache)
	return room, nil
}

// UpdateRoom edits room_number, room_type and price. Occupancy is not
// editable here.
func (s *PropertyService) UpdateRoom(ctx context.Context, roomID string, req domain.RoomRequest, id *domain.Identity) (*domain.Room, error) {
	const op = "updateRoom"
	if err := s.authz.Authorize(op, id, security.CapRoomUpdate); err != nil {
		return nil, err
	}
	if !domain.ValidID(roomID) {
		return nil, domain.Validation(op, "room id is not valid")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	room := &domain.Room{
		ID:         roomID,
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		RoomType:   req.RoomType,
		Price:      req.Price,
	}
	start := time.Now()
	if err := s.repos.Rooms.Update(ctx, room); err != nil {
		return nil, gateway(op, start, err)
	}
	invalidate(ctx, s.cache)
	return room, nil
}

// ListRooms returns a property's rooms ordered by room number, filtered by c
func (s *PropertyService) ListRooms(ctx context.Context, propertyID string, id *domain.Identity, c filter.Criteria) ([]*domain.Room, error) {
	const op = "listRooms"
	if err := s.authz.Authorize(op, id, security.CapPropertyRead); err != nil {
		return nil, err
	}
	if !domain.ValidID(propertyID) {
		return nil, domain.Validation(op, "property id is not valid")
	}

	start := time.Now()
	if _, err := s.repos.Properties.GetByID(ctx, propertyID); err != nil {
		return nil, gateway(op, start, err)
	}
	rooms, err := s.repos.Rooms.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return filter.Rooms(rooms, c), nil
}
