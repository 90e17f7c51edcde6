package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
)

func TestCreateTenantOccupiesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)

	d := f.assign(t, room.ID, tenantUser.ProfileID)
	assert.True(t, d.IsActive)
	require.NotNil(t, d.Room)
	assert.True(t, d.Room.IsOccupied)
	assert.Equal(t, "Maple", d.PropertyName)
	require.NotNil(t, d.MoveInDate, "move-in defaults to today")

	stored, err := f.repos.Rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOccupied)
	f.assertOccupancyInvariant(t)
}

func TestCreateTenantOccupiedRoomLeavesNoTenantRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	f.assign(t, room.ID, "")

	_, err := f.occupancy.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "Second", RoomID: room.ID}, adminID)
	require.ErrorIs(t, err, domain.ErrRoomUnavailable)

	tenants, err := f.repos.Tenants.ListDetails(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	f.assertOccupancyInvariant(t)
}

func TestCreateTenantLostRaceIsRoomUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)

	// another writer claims the room between the read-check and the write
	racer := &racingRooms{RoomRepository: f.repos.Rooms, before: func() {
		id := room.ID
		require.NoError(t, f.store.Tenants().AssignRoom(ctx, &domain.Tenant{FullName: "Racer", RoomID: &id}))
	}}
	repos := f.repos
	repos.Rooms = racer
	svc := NewOccupancyService(repos, nil, f.occupancy.authz, nil)

	_, err := svc.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "Late", RoomID: room.ID}, adminID)
	require.ErrorIs(t, err, domain.ErrRoomUnavailable)

	active, err := f.repos.Tenants.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Racer", active[0].FullName)
}

type racingRooms struct {
	domain.RoomRepository
	before func()
}

func (r *racingRooms) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	room, err := r.RoomRepository.GetByID(ctx, id)
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return room, err
}

func TestCreateTenantValidationAndAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.occupancy.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "X", RoomID: "c0000000-0000-4000-8000-000000000009"}, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.occupancy.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "", RoomID: "c0000000-0000-4000-8000-000000000009"}, adminID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.occupancy.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "X", RoomID: "c0000000-0000-4000-8000-000000000009"}, adminID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.occupancy.CreateTenant(ctx, domain.CreateTenantRequest{FullName: "X", RoomID: "c0000000-0000-4000-8000-000000000009"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestMoveOutFreesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	d := f.assign(t, room.ID, "")

	tenant, err := f.occupancy.MoveOutTenant(ctx, d.ID, domain.MoveOutRequest{MoveOutDate: "2026-06-30"}, adminID)
	require.NoError(t, err)
	assert.False(t, tenant.IsActive)
	require.NotNil(t, tenant.MoveOutDate)
	assert.Equal(t, "2026-06-30", tenant.MoveOutDate.Format(domain.DateLayout))

	stored, err := f.repos.Rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOccupied)
	f.assertOccupancyInvariant(t)

	_, err = f.occupancy.MoveOutTenant(ctx, d.ID, domain.MoveOutRequest{}, adminID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// the freed room can be let again
	f.assign(t, room.ID, "")
	f.assertOccupancyInvariant(t)
}

func TestMoveOutInvalidatesInventoryCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	d := f.assign(t, room.ID, "")

	inv, err := f.dashboards.Inventory(ctx, authorityID, filter.Criteria{})
	require.NoError(t, err)
	require.Equal(t, 1, inv[0].OccupiedRooms)

	_, err = f.occupancy.MoveOutTenant(ctx, d.ID, domain.MoveOutRequest{}, adminID)
	require.NoError(t, err)

	inv, err = f.dashboards.Inventory(ctx, authorityID, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 0, inv[0].OccupiedRooms)
}

func TestMyTenancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)

	_, err := f.occupancy.MyTenancy(ctx, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.assign(t, room.ID, tenantUser.ProfileID)
	d, err := f.occupancy.MyTenancy(ctx, tenantUser)
	require.NoError(t, err)
	assert.Equal(t, "101", d.RoomNumber)

	_, err = f.occupancy.MyTenancy(ctx, adminID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestListTenantsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	f.assign(t, f.room(t, p.ID, "101", domain.RoomSingle, 700).ID, "")
	f.assign(t, f.room(t, p.ID, "102", domain.RoomSingle, 700).ID, "")

	list, err := f.occupancy.ListTenants(ctx, adminID, filter.Criteria{Search: "102"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "102", list[0].RoomNumber)

	_, err = f.occupancy.ListTenants(ctx, authorityID, filter.Criteria{})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestVerifyAndReconcileOccupancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	stale := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	orphan := f.room(t, p.ID, "102", domain.RoomSingle, 700)
	f.assign(t, orphan.ID, "")

	// legacy data: flag set without tenant, and tenant without flag
	require.NoError(t, f.store.ForceOccupied(stale.ID, true))
	require.NoError(t, f.store.ForceOccupied(orphan.ID, false))

	drift, err := f.occupancy.VerifyOccupancy(ctx)
	require.NoError(t, err)
	assert.Len(t, drift, 2)

	fixed, err := f.occupancy.ReconcileOccupancy(ctx)
	require.NoError(t, err)
	assert.Len(t, fixed, 2)
	f.assertOccupancyInvariant(t)
}

func TestReconcileOccupancyRecountsAtWriteTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	first := f.assign(t, room.ID, "")

	// A moves out after the rooms are read, B moves in after the tenants are
	// read: the scan sees the room flagged with no tenant.
	repos := f.repos
	repos.Rooms = &listHookRooms{RoomRepository: f.repos.Rooms, after: func() {
		_, err := f.occupancy.MoveOutTenant(ctx, first.ID, domain.MoveOutRequest{}, adminID)
		require.NoError(t, err)
	}}
	repos.Tenants = &listHookTenants{TenantRepository: f.repos.Tenants, after: func() {
		f.assign(t, room.ID, "")
	}}
	svc := NewOccupancyService(repos, f.cache, f.occupancy.authz, nil)

	fixed, err := svc.ReconcileOccupancy(ctx)
	require.NoError(t, err)
	assert.Empty(t, fixed)

	got, err := f.repos.Rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOccupied)
	f.assertOccupancyInvariant(t)
}

type listHookRooms struct {
	domain.RoomRepository
	after func()
}

func (r *listHookRooms) List(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := r.RoomRepository.List(ctx)
	if r.after != nil {
		r.after()
		r.after = nil
	}
	return rooms, err
}

type listHookTenants struct {
	domain.TenantRepository
	after func()
}

func (r *listHookTenants) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	active, err := r.TenantRepository.ListActive(ctx)
	if r.after != nil {
		r.after()
		r.after = nil
	}
	return active, err
}

func TestPropertyLookupFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Maple", "Oslo")
	room := f.room(t, p.ID, "101", domain.RoomSingle, 700)
	f.assign(t, room.ID, tenantUser.ProfileID)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	repos := f.repos
	repos.Properties = &failingProperties{PropertyRepository: f.repos.Properties, err: errors.New("connection reset")}
	svc := NewOccupancyService(repos, nil, f.occupancy.authz, logger)

	d, err := svc.MyTenancy(ctx, tenantUser)
	require.NoError(t, err)
	assert.Equal(t, "101", d.RoomNumber)
	assert.Empty(t, d.PropertyName)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"error":"connection reset"`)
	assert.Contains(t, buf.String(), p.ID)
}

type failingProperties struct {
	domain.PropertyRepository
	err error
}

func (r *failingProperties) GetByID(context.Context, string) (*domain.Property, error) {
	return nil, r.err
}
