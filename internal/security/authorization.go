package security

import (
	"log/slog"
	"slices"

	"github.com/yourorg/propertyhub/internal/domain"
)

// Capability is an operation a role may invoke
type Capability string

const (
	CapPropertyCreate   Capability = "property:create"
	CapPropertyUpdate   Capability = "property:update"
	CapPropertyRead     Capability = "property:read"
	CapRoomCreate       Capability = "room:create"
	CapRoomUpdate       Capability = "room:update"
	CapTenantCreate     Capability = "tenant:create"
	CapTenantRead       Capability = "tenant:read"
	CapTenantMoveOut    Capability = "tenant:move_out"
	CapTenancyReadOwn   Capability = "tenancy:read_own"
	CapTicketCreate     Capability = "ticket:create"
	CapTicketCreateOwn  Capability = "ticket:create_own"
	CapTicketReadAll    Capability = "ticket:read_all"
	CapTicketReadOwn    Capability = "ticket:read_own"
	CapTicketStatus     Capability = "ticket:update_status"
	CapTicketVendor     Capability = "ticket:assign_vendor"
	CapProfileCreate    Capability = "profile:create"
	CapInventoryRead    Capability = "inventory:read"
	CapDashboardAdmin   Capability = "dashboard:admin"
	CapDashboardTenant  Capability = "dashboard:tenant"
	CapDashboardOversee Capability = "dashboard:authority"
)

// roleCapabilities maps every role to its capability set. The sets are
// mutually exclusive in their dashboard capability.
var roleCapabilities = map[domain.Role][]Capability{
	domain.RoleAdmin: {
		CapPropertyCreate,
		CapPropertyUpdate,
		CapPropertyRead,
		CapRoomCreate,
		CapRoomUpdate,
		CapTenantCreate,
		CapTenantRead,
		CapTenantMoveOut,
		CapTicketCreate,
		CapTicketReadAll,
		CapTicketStatus,
		CapTicketVendor,
		CapProfileCreate,
		CapInventoryRead,
		CapDashboardAdmin,
	},
	domain.RoleTenant: {
		CapTenancyReadOwn,
		CapTicketCreateOwn,
		CapTicketReadOwn,
		CapDashboardTenant,
	},
	domain.RolePublicAuthority: {
		CapInventoryRead,
		CapDashboardOversee,
	},
}

// CapabilitySet is the set of operations resolved for one role
type CapabilitySet struct {
	Role         domain.Role
	Capabilities []Capability
}

// Allows reports whether the set contains c
func (s CapabilitySet) Allows(c Capability) bool {
	return slices.Contains(s.Capabilities, c)
}

// ResolveCapabilities is the single place that turns a role into its
// capability set. Unknown roles resolve to the empty set.
func ResolveCapabilities(role domain.Role) CapabilitySet {
	caps := roleCapabilities[role]
	return CapabilitySet{Role: role, Capabilities: slices.Clone(caps)}
}

// Authorizer checks identities against capability sets
type Authorizer struct {
	logger *slog.Logger
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{logger: logger}
}

// Authorize returns a NotAuthorized error unless the identity's role allows
// at least one of caps
func (a *Authorizer) Authorize(op string, id *domain.Identity, caps ...Capability) error {
	if id == nil {
		return domain.NotAuthorized(op, "sign-in required")
	}
	set := ResolveCapabilities(id.Role)
	for _, c := range caps {
		if set.Allows(c) {
			return nil
		}
	}
	a.logger.Warn("permission denied",
		slog.String("operation", op),
		slog.String("profile_id", id.ProfileID),
		slog.String("role", string(id.Role)),
	)
	return domain.NotAuthorized(op, "role %s cannot perform %s", id.Role, op)
}

// AuthorizeRoom checks that the identity may act on roomID. Admins act on
// any room; tenants only on the room of their own active tenancy.
func (a *Authorizer) AuthorizeRoom(op string, id *domain.Identity, roomID string, tenancy *domain.Tenant) error {
	if id == nil {
		return domain.NotAuthorized(op, "sign-in required")
	}
	if id.Role == domain.RoleAdmin {
		return nil
	}
	if id.Role == domain.RoleTenant && tenancy.InRoom(roomID) {
		return nil
	}
	a.logger.Warn("room access denied",
		slog.String("operation", op),
		slog.String("profile_id", id.ProfileID),
		slog.String("room_id", roomID),
	)
	return domain.NotAuthorized(op, "you are not assigned to this room")
}
