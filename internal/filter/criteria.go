// Package filter narrows already-scoped collections with search and
// multi-criteria predicates. Every filter is stable: matching items keep
// their input order.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/propertyhub/internal/domain"
)

// Availability restricts rooms by occupancy.
type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilityOccupied  Availability = "occupied"
)

// PriceRange is an inclusive price interval. A nil bound is open.
type PriceRange struct {
	Min *float64
	Max *float64
}

// IsZero reports whether the range places no restriction.
func (p PriceRange) IsZero() bool { return p.Min == nil && p.Max == nil }

// Contains reports whether price lies in the range.
func (p PriceRange) Contains(price float64) bool {
	if p.Min != nil && price < *p.Min {
		return false
	}
	if p.Max != nil && price > *p.Max {
		return false
	}
	return true
}

// ParsePriceRange accepts "all", "<min>-<max>" and "<min>-". Anything else,
// including an empty string, yields the unrestricted range.
func ParsePriceRange(s string) PriceRange {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return PriceRange{}
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return PriceRange{}
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil || lower < 0 {
		return PriceRange{}
	}
	hi = strings.TrimSpace(hi)
	if hi == "" {
		return PriceRange{Min: &lower}
	}
	upper, err := strconv.ParseFloat(hi, 64)
	if err != nil || upper < lower {
		return PriceRange{}
	}
	return PriceRange{Min: &lower, Max: &upper}
}

// Criteria is the full set of recognized predicates. Zero values mean
// "no restriction".
type Criteria struct {
	Search       string
	Status       domain.TicketStatus
	Location     string
	RoomType     domain.RoomType
	Price        PriceRange
	Availability Availability
}

// ParseCriteria reads criteria from query parameters. Unrecognized or empty
// values are dropped.
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{
		Search:   strings.TrimSpace(q.Get("search")),
		Location: strings.TrimSpace(q.Get("location")),
		Price:    ParsePriceRange(q.Get("priceRange")),
	}
	if c.Location == "all" {
		c.Location = ""
	}
	if s := domain.TicketStatus(q.Get("status")); s.Valid() {
		c.Status = s
	}
	if t := domain.RoomType(q.Get("roomType")); t.Valid() {
		c.RoomType = t
	}
	switch a := Availability(q.Get("availability")); a {
	case AvailabilityAvailable, AvailabilityOccupied:
		c.Availability = a
	}
	return c
}

// hasRoomCriteria reports whether any room-level predicate is set.
func (c Criteria) hasRoomCriteria() bool {
	return c.RoomType != "" || !c.Price.IsZero() || c.Availability != ""
}

func containsFold(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
