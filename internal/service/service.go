package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/observability/metrics"
)

// InventoryCachePrefix scopes every inventory cache key; writes that change
// properties, rooms or occupancy invalidate the whole prefix.
const InventoryCachePrefix = "inventory:"

// Repositories bundles the persistence gateway for the services
type Repositories struct {
	Profiles   domain.ProfileRepository
	Properties domain.PropertyRepository
	Rooms      domain.RoomRepository
	Tenants    domain.TenantRepository
	Occupancy  domain.OccupancyStore
	Tickets    domain.TicketRepository
}

// gateway times one persistence call and classifies its error.
func gateway(op string, start time.Time, err error) error {
	metrics.ObserveGateway(op, err, time.Since(start))
	return domain.Gateway(op, err)
}

// tenancyOf returns the caller's active tenancy, or nil when there is none.
func tenancyOf(ctx context.Context, tenants domain.TenantRepository, id *domain.Identity) (*domain.Tenant, error) {
	if id == nil || id.Role != domain.RoleTenant {
		return nil, nil
	}
	start := time.Now()
	t, err := tenants.GetActiveByProfile(ctx, id.ProfileID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, gateway("getTenancy", start, err)
	}
	return t, nil
}

func invalidate(ctx context.Context, cache domain.InventoryCache) {
	if cache != nil {
		cache.Invalidate(ctx, InventoryCachePrefix)
	}
}
