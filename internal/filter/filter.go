package filter

import (
	"strings"

	"github.com/yourorg/propertyhub/internal/domain"
)

// Predicate decides whether an item is kept.
type Predicate[T any] func(T) bool

// Apply keeps the items matching every predicate, in input order.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		keep := true
		for _, p := range preds {
			if !p(it) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

// Tickets filters tickets by text (title, description, room number) and status.
func Tickets(items []*domain.TicketDetail, c Criteria) []*domain.TicketDetail {
	return Apply(items,
		func(t *domain.TicketDetail) bool {
			return containsFold(c.Search, t.Title, t.Description, t.RoomNumber)
		},
		func(t *domain.TicketDetail) bool {
			return c.Status == "" || t.Status == c.Status
		},
	)
}

// Tenants filters tenants by text (full name, room number).
func Tenants(items []*domain.TenantDetail, c Criteria) []*domain.TenantDetail {
	return Apply(items, func(t *domain.TenantDetail) bool {
		return containsFold(c.Search, t.FullName, t.RoomNumber)
	})
}

// Rooms filters rooms by room number, type, price and availability.
func Rooms(items []*domain.Room, c Criteria) []*domain.Room {
	return Apply(items,
		func(r *domain.Room) bool { return containsFold(c.Search, r.RoomNumber) },
		roomMatches(c),
	)
}

// Properties filters listings by text (name, location), location and room
// criteria. Room criteria match existentially: a property is kept when at
// least one of its rooms satisfies them. The nested room list is not touched.
func Properties(items []*domain.PropertyListing, c Criteria) []*domain.PropertyListing {
	match := roomMatches(c)
	return Apply(items,
		func(p *domain.PropertyListing) bool {
			return containsFold(c.Search, p.Name, p.Location)
		},
		func(p *domain.PropertyListing) bool {
			return c.Location == "" || strings.EqualFold(p.Location, c.Location)
		},
		func(p *domain.PropertyListing) bool {
			if !c.hasRoomCriteria() {
				return true
			}
			for _, r := range p.Rooms {
				if match(r) {
					return true
				}
			}
			return false
		},
	)
}

func roomMatches(c Criteria) Predicate[*domain.Room] {
	return func(r *domain.Room) bool {
		if c.RoomType != "" && r.RoomType != c.RoomType {
			return false
		}
		if !c.Price.Contains(r.Price) {
			return false
		}
		switch c.Availability {
		case AvailabilityAvailable:
			return !r.IsOccupied
		case AvailabilityOccupied:
			return r.IsOccupied
		}
		return true
	}
}
