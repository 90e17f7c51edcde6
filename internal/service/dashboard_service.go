package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/security"
)

const (
	inventoryCacheKey = InventoryCachePrefix + "listings"
	recentTicketLimit = 10
)

// RoomSummary is the room shape shown to public authorities
type RoomSummary struct {
	ID         string          `json:"id"`
	RoomNumber string          `json:"room_number"`
	RoomType   domain.RoomType `json:"room_type"`
	Price      float64         `json:"price"`
	IsOccupied bool            `json:"is_occupied"`
}

// PropertyInventory is the aggregate, person-free view of one property
type PropertyInventory struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Location      string        `json:"location"`
	Description   string        `json:"description,omitempty"`
	TotalRooms    int           `json:"total_rooms"`
	OccupiedRooms int           `json:"occupied_rooms"`
	VacantRooms   int           `json:"vacant_rooms"`
	MinPrice      float64       `json:"min_price"`
	MaxPrice      float64       `json:"max_price"`
	AvgPrice      float64       `json:"avg_price"`
	Rooms         []RoomSummary `json:"rooms"`
}

// InventorySummary totals a set of properties
type InventorySummary struct {
	TotalProperties int     `json:"total_properties"`
	TotalRooms      int     `json:"total_rooms"`
	OccupiedRooms   int     `json:"occupied_rooms"`
	VacantRooms     int     `json:"vacant_rooms"`
	OccupancyRate   float64 `json:"occupancy_rate"`
}

// TicketCounts counts tickets per status
type TicketCounts struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// AdminDashboard is the full management view
type AdminDashboard struct {
	Summary       InventorySummary          `json:"summary"`
	ActiveTenants int                       `json:"active_tenants"`
	Tickets       TicketCounts              `json:"tickets"`
	Properties    []*domain.PropertyListing `json:"properties"`
	RecentTickets []*domain.TicketDetail    `json:"recent_tickets"`
}

// TenantDashboard is a tenant's own tenancy and the tickets of its room
type TenantDashboard struct {
	Tenancy *domain.TenantDetail   `json:"tenancy"`
	Tickets []*domain.TicketDetail `json:"tickets"`
}

// AuthorityDashboard is the read-only inventory oversight view
type AuthorityDashboard struct {
	Summary    InventorySummary    `json:"summary"`
	Properties []PropertyInventory `json:"properties"`
}

// Dashboard carries exactly one role view
type Dashboard struct {
	Role      domain.Role         `json:"role"`
	Admin     *AdminDashboard     `json:"admin,omitempty"`
	Tenant    *TenantDashboard    `json:"tenant,omitempty"`
	Authority *AuthorityDashboard `json:"authority,omitempty"`
}

// DashboardService composes role-scoped views
type DashboardService struct {
	repos     Repositories
	occupancy *OccupancyService
	tickets   *TicketService
	cache     domain.InventoryCache
	cacheTTL  time.Duration
	authz     *security.Authorizer
	logger    *slog.Logger
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(
	repos Repositories,
	occupancy *OccupancyService,
	tickets *TicketService,
	cache domain.InventoryCache,
	cacheTTL time.Duration,
	authz *security.Authorizer,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		repos:     repos,
		occupancy: occupancy,
		tickets:   tickets,
		cache:     cache,
		cacheTTL:  cacheTTL,
		authz:     authz,
		logger:    logger,
	}
}

// Compose returns the one dashboard the caller's capability set selects.
func (s *DashboardService) Compose(ctx context.Context, id *domain.Identity) (*Dashboard, error) {
	const op = "dashboard"
	if id == nil {
		return nil, domain.NotAuthorized(op, "sign-in required")
	}
	caps := security.ResolveCapabilities(id.Role)

	switch {
	case caps.Allows(security.CapDashboardAdmin):
		d, err := s.admin(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: id.Role, Admin: d}, nil
	case caps.Allows(security.CapDashboardTenant):
		d, err := s.tenant(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: id.Role, Tenant: d}, nil
	case caps.Allows(security.CapDashboardOversee):
		props, err := s.Inventory(ctx, id, filter.Criteria{})
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: id.Role, Authority: &AuthorityDashboard{
			Summary:    summarizeInventory(props),
			Properties: props,
		}}, nil
	}
	return nil, domain.NotAuthorized(op, "role %s has no dashboard", id.Role)
}

func (s *DashboardService) admin(ctx context.Context, id *domain.Identity) (*AdminDashboard, error) {
	const op = "adminDashboard"
	listings, err := s.listings(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListTickets(ctx, id, filter.Criteria{})
	if err != nil {
		return nil, err
	}
	start := time.Now()
	active, err := s.repos.Tenants.ListActive(ctx)
	if err != nil {
		return nil, gateway(op, start, err)
	}

	d := &AdminDashboard{
		Summary:       summarizeInventory(projectInventory(listings)),
		ActiveTenants: len(active),
		Properties:    listings,
		RecentTickets: tickets,
	}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketOpen:
			d.Tickets.Open++
		case domain.TicketInProgress:
			d.Tickets.InProgress++
		case domain.TicketResolved:
			d.Tickets.Resolved++
		}
	}
	if len(d.RecentTickets) > recentTicketLimit {
		d.RecentTickets = d.RecentTickets[:recentTicketLimit]
	}
	return d, nil
}

func (s *DashboardService) tenant(ctx context.Context, id *domain.Identity) (*TenantDashboard, error) {
	d := &TenantDashboard{Tickets: []*domain.TicketDetail{}}
	tenancy, err := s.occupancy.MyTenancy(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return d, nil
		}
		return nil, err
	}
	d.Tenancy = tenancy
	tickets, err := s.tickets.ListTickets(ctx, id, filter.Criteria{})
	if err != nil {
		return nil, err
	}
	d.Tickets = tickets
	return d, nil
}

// Inventory returns the person-free property inventory, filtered by c.
func (s *DashboardService) Inventory(ctx context.Context, id *domain.Identity, c filter.Criteria) ([]PropertyInventory, error) {
	if err := s.authz.Authorize("inventory", id, security.CapInventoryRead); err != nil {
		return nil, err
	}
	listings, err := s.listings(ctx)
	if err != nil {
		return nil, err
	}
	return projectInventory(filter.Properties(listings, c)), nil
}

// listings reads properties with rooms through the inventory cache. A cache
// that fails to decode or store is logged and bypassed.
func (s *DashboardService) listings(ctx context.Context) ([]*domain.PropertyListing, error) {
	var key string
	if s.cache != nil {
		// read before the fetch: an invalidation during the fetch moves
		// readers to a new key and the snapshot below lands on the old one
		if gen, ok := s.cache.Generation(ctx); ok {
			key = listingsKey(gen)
		}
	}
	if key != "" {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached []*domain.PropertyListing
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding undecodable inventory cache entry")
		}
	}

	start := time.Now()
	listings, err := s.repos.Properties.ListWithRooms(ctx)
	if err != nil {
		return nil, gateway("listInventory", start, err)
	}

	if key != "" && s.cacheTTL > 0 {
		if raw, err := json.Marshal(listings); err == nil {
			s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return listings, nil
}

func listingsKey(gen uint64) string {
	return inventoryCacheKey + ":" + strconv.FormatUint(gen, 10)
}

func projectInventory(listings []*domain.PropertyListing) []PropertyInventory {
	out := make([]PropertyInventory, 0, len(listings))
	for _, l := range listings {
		inv := PropertyInventory{
			ID:          l.ID,
			Name:        l.Name,
			Location:    l.Location,
			Description: l.Description,
			TotalRooms:  len(l.Rooms),
			Rooms:       make([]RoomSummary, 0, len(l.Rooms)),
		}
		var sum float64
		for i, r := range l.Rooms {
			inv.Rooms = append(inv.Rooms, RoomSummary{
				ID:         r.ID,
				RoomNumber: r.RoomNumber,
				RoomType:   r.RoomType,
				Price:      r.Price,
				IsOccupied: r.IsOccupied,
			})
			if r.IsOccupied {
				inv.OccupiedRooms++
			}
			if i == 0 || r.Price < inv.MinPrice {
				inv.MinPrice = r.Price
			}
			if r.Price > inv.MaxPrice {
				inv.MaxPrice = r.Price
			}
			sum += r.Price
		}
		inv.VacantRooms = inv.TotalRooms - inv.OccupiedRooms
		if inv.TotalRooms > 0 {
			inv.AvgPrice = sum / float64(inv.TotalRooms)
		}
		out = append(out, inv)
	}
	return out
}

func summarizeInventory(props []PropertyInventory) InventorySummary {
	s := InventorySummary{TotalProperties: len(props)}
	for _, p := range props {
		s.TotalRooms += p.TotalRooms
		s.OccupiedRooms += p.OccupiedRooms
	}
	s.VacantRooms = s.TotalRooms - s.OccupiedRooms
	if s.TotalRooms > 0 {
		s.OccupancyRate = float64(s.OccupiedRooms) / float64(s.TotalRooms)
	}
	return s
}
