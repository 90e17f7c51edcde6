package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/filter"
	"github.com/yourorg/propertyhub/internal/observability/metrics"
	"github.com/yourorg/propertyhub/internal/observability/tracing"
	"github.com/yourorg/propertyhub/internal/security"
)

// OccupancyService owns tenant assignment and move-out, the only writers of
// Room.IsOccupied.
type OccupancyService struct {
	repos  Repositories
	cache  domain.InventoryCache
	authz  *security.Authorizer
	logger *slog.Logger
	now    func() time.Time
}

// NewOccupancyService creates a new occupancy service. cache may be nil.
func NewOccupancyService(repos Repositories, cache domain.InventoryCache, authz *security.Authorizer, logger *slog.Logger) *OccupancyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancyService{repos: repos, cache: cache, authz: authz, logger: logger, now: time.Now}
}

// CreateTenant assigns a new active tenant to a vacant room.
func (s *OccupancyService) CreateTenant(ctx context.Context, req domain.CreateTenantRequest, id *domain.Identity) (_ *domain.TenantDetail, err error) {
	const op = "createTenant"
	ctx, span := tracing.Start(ctx, op, attribute.String("room_id", req.RoomID))
	defer func() { tracing.End(span, err) }()

	if err := s.authz.Authorize(op, id, security.CapTenantCreate); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	room, err := s.repos.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	if room.IsOccupied {
		metrics.ObserveAssignment("unavailable")
		return nil, domain.RoomUnavailable(op, room.ID)
	}

	tenant := req.Tenant(s.now())
	start = time.Now()
	if err := s.repos.Occupancy.AssignRoom(ctx, tenant); err != nil {
		if errors.Is(err, domain.ErrRoomUnavailable) {
			metrics.ObserveAssignment("unavailable")
		} else {
			metrics.ObserveAssignment("error")
		}
		return nil, gateway(op, start, err)
	}
	metrics.ObserveAssignment("ok")
	invalidate(ctx, s.cache)

	room.IsOccupied = true
	detail := &domain.TenantDetail{
		Tenant:     *tenant,
		Room:       room,
		RoomNumber: room.RoomNumber,
		PropertyID: room.PropertyID,
	}
	detail.PropertyName = s.propertyName(ctx, room.PropertyID)

	s.logger.Info("tenant assigned",
		slog.String("tenant_id", tenant.ID),
		slog.String("room_id", room.ID),
		slog.String("by", id.ProfileID),
	)
	return detail, nil
}

// MoveOutTenant ends an active tenancy and frees the room.
func (s *OccupancyService) MoveOutTenant(ctx context.Context, tenantID string, req domain.MoveOutRequest, id *domain.Identity) (_ *domain.Tenant, err error) {
	const op = "moveOutTenant"
	ctx, span := tracing.Start(ctx, op, attribute.String("tenant_id", tenantID))
	defer func() { tracing.End(span, err) }()

	if err := s.authz.Authorize(op, id, security.CapTenantMoveOut); err != nil {
		return nil, err
	}
	if !domain.ValidID(tenantID) {
		return nil, domain.Validation(op, "tenant id is not valid")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	tenant, err := s.repos.Occupancy.ReleaseRoom(ctx, tenantID, req.Date(s.now()))
	if err != nil {
		metrics.ObserveMoveOut("error")
		return nil, gateway(op, start, err)
	}
	metrics.ObserveMoveOut("ok")
	invalidate(ctx, s.cache)

	s.logger.Info("tenant moved out",
		slog.String("tenant_id", tenant.ID),
		slog.String("by", id.ProfileID),
	)
	return tenant, nil
}

// ListTenants returns every tenant, newest first, filtered by c.
func (s *OccupancyService) ListTenants(ctx context.Context, id *domain.Identity, c filter.Criteria) ([]*domain.TenantDetail, error) {
	const op = "listTenants"
	if err := s.authz.Authorize(op, id, security.CapTenantRead); err != nil {
		return nil, err
	}
	start := time.Now()
	tenants, err := s.repos.Tenants.ListDetails(ctx)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return filter.Tenants(tenants, c), nil
}

// MyTenancy returns the caller's own active tenancy with its room.
func (s *OccupancyService) MyTenancy(ctx context.Context, id *domain.Identity) (*domain.TenantDetail, error) {
	const op = "myTenancy"
	if err := s.authz.Authorize(op, id, security.CapTenancyReadOwn); err != nil {
		return nil, err
	}
	tenancy, err := tenancyOf(ctx, s.repos.Tenants, id)
	if err != nil {
		return nil, err
	}
	if tenancy == nil {
		return nil, domain.NotFound(op, "tenancy")
	}
	return s.detail(ctx, tenancy)
}

func (s *OccupancyService) detail(ctx context.Context, t *domain.Tenant) (*domain.TenantDetail, error) {
	d := &domain.TenantDetail{Tenant: *t}
	if t.RoomID == nil {
		return d, nil
	}
	start := time.Now()
	room, err := s.repos.Rooms.GetByID(ctx, *t.RoomID)
	if err != nil {
		return nil, gateway("getRoom", start, err)
	}
	d.Room, d.RoomNumber, d.PropertyID = room, room.RoomNumber, room.PropertyID
	d.PropertyName = s.propertyName(ctx, room.PropertyID)
	return d, nil
}

// propertyName is best effort: a tenancy is still returned without it.
func (s *OccupancyService) propertyName(ctx context.Context, propertyID string) string {
	p, err := s.repos.Properties.GetByID(ctx, propertyID)
	if err != nil {
		s.logger.Warn("property lookup failed",
			slog.String("property_id", propertyID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return p.Name
}

// OccupancyDrift is a room whose flag disagrees with its active tenants.
type OccupancyDrift struct {
	RoomID        string `json:"room_id"`
	PropertyID    string `json:"property_id"`
	RoomNumber    string `json:"room_number"`
	IsOccupied    bool   `json:"is_occupied"`
	ActiveTenants int    `json:"active_tenants"`
}

// Consistent reports whether the flag matches the tenants.
func (d OccupancyDrift) Consistent() bool {
	return d.IsOccupied == (d.ActiveTenants > 0) && d.ActiveTenants <= 1
}

// VerifyOccupancy lists every room that breaks the occupancy invariant.
func (s *OccupancyService) VerifyOccupancy(ctx context.Context) ([]OccupancyDrift, error) {
	const op = "verifyOccupancy"
	start := time.Now()
	rooms, err := s.repos.Rooms.List(ctx)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	active, err := s.repos.Tenants.ListActive(ctx)
	if err != nil {
		return nil, gateway(op, start, err)
	}

	counts := make(map[string]int, len(active))
	for _, t := range active {
		if t.RoomID != nil {
			counts[*t.RoomID]++
		}
	}

	drift := []OccupancyDrift{}
	for _, r := range rooms {
		d := OccupancyDrift{
			RoomID:        r.ID,
			PropertyID:    r.PropertyID,
			RoomNumber:    r.RoomNumber,
			IsOccupied:    r.IsOccupied,
			ActiveTenants: counts[r.ID],
		}
		if !d.Consistent() {
			drift = append(drift, d)
		}
	}
	metrics.SetOccupancyDrift(len(drift))
	return drift, nil
}

// ReconcileOccupancy recomputes the flag of every drifting room from its
// active tenants at write time. Rooms with more than one active tenant need a
// manual move-out and are only reported.
func (s *OccupancyService) ReconcileOccupancy(ctx context.Context) ([]OccupancyDrift, error) {
	const op = "reconcileOccupancy"
	drift, err := s.VerifyOccupancy(ctx)
	if err != nil {
		return nil, err
	}

	fixed := []OccupancyDrift{}
	remaining := 0
	for _, d := range drift {
		if d.ActiveTenants > 1 {
			remaining++
			s.logger.Warn("room has several active tenants",
				slog.String("room_id", d.RoomID),
				slog.Int("active_tenants", d.ActiveTenants),
			)
		}
		start := time.Now()
		occupied, err := s.repos.Occupancy.SyncOccupancy(ctx, d.RoomID)
		if err != nil {
			return fixed, gateway(op, start, err)
		}
		if occupied == d.IsOccupied {
			// flag unchanged: a concurrent write settled it, or the room is shared
			continue
		}
		s.logger.Info("occupancy repaired",
			slog.String("room_id", d.RoomID),
			slog.Bool("is_occupied", occupied),
		)
		fixed = append(fixed, d)
	}
	if len(fixed) > 0 {
		invalidate(ctx, s.cache)
	}
	metrics.SetOccupancyDrift(remaining)
	return fixed, nil
}
