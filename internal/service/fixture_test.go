package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/repository"
	"github.com/yourorg/propertyhub/internal/repository/memory"
	"github.com/yourorg/propertyhub/internal/security"
)

var (
	adminID     = &domain.Identity{ProfileID: "a0000000-0000-4000-8000-000000000001", Email: "admin@example.com", Role: domain.RoleAdmin}
	tenantUser  = &domain.Identity{ProfileID: "a0000000-0000-4000-8000-000000000002", Email: "tenant@example.com", Role: domain.RoleTenant}
	authorityID = &domain.Identity{ProfileID: "a0000000-0000-4000-8000-000000000003", Email: "gov@example.com", Role: domain.RolePublicAuthority}
)

type fixture struct {
	store      *memory.Store
	repos      Repositories
	cache      *repository.MemoryInventoryCache
	hub        *feed.Hub
	occupancy  *OccupancyService
	tickets    *TicketService
	properties *PropertyService
	dashboards *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := Repositories{
		Profiles:   store.Profiles(),
		Properties: store.Properties(),
		Rooms:      store.Rooms(),
		Tenants:    store.Tenants(),
		Occupancy:  store.Tenants(),
		Tickets:    store.Tickets(),
	}
	authz := security.NewAuthorizer(nil)
	cache := repository.NewMemoryInventoryCache()
	hub := feed.NewHub(nil)

	f := &fixture{store: store, repos: repos, cache: cache, hub: hub}
	f.occupancy = NewOccupancyService(repos, cache, authz, nil)
	f.tickets = NewTicketService(repos, hub, authz, nil)
	f.properties = NewPropertyService(repos, cache, authz, nil)
	f.dashboards = NewDashboardService(repos, f.occupancy, f.tickets, cache, time.Minute, authz, nil)
	return f
}

func (f *fixture) property(t *testing.T, name, location string) *domain.Property {
	t.Helper()
	p, err := f.properties.CreateProperty(context.Background(),
		domain.CreatePropertyRequest{Name: name, Location: location}, adminID)
	require.NoError(t, err)
	return p
}

func (f *fixture) room(t *testing.T, propertyID, number string, rt domain.RoomType, price float64) *domain.Room {
	t.Helper()
	r, err := f.properties.CreateRoom(context.Background(), propertyID,
		domain.RoomRequest{RoomNumber: number, RoomType: rt, Price: price}, adminID)
	require.NoError(t, err)
	return r
}

// assign places a tenant linked to profileID in room.
func (f *fixture) assign(t *testing.T, roomID, profileID string) *domain.TenantDetail {
	t.Helper()
	d, err := f.occupancy.CreateTenant(context.Background(), domain.CreateTenantRequest{
		FullName:             "Kari Nordmann",
		IdentificationNumber: "ID-123",
		DateOfBirth:          "1990-04-01",
		RoomID:               roomID,
		ProfileID:            profileID,
	}, adminID)
	require.NoError(t, err)
	return d
}

// assertOccupancyInvariant checks that every room's flag matches its active tenants.
func (f *fixture) assertOccupancyInvariant(t *testing.T) {
	t.Helper()
	drift, err := f.occupancy.VerifyOccupancy(context.Background())
	require.NoError(t, err)
	require.Empty(t, drift)
}
