// Package feed fans ticket events out to live views and guards those views
// against applying stale fetch results.
package feed

import (
	"log/slog"
	"sync"

	"github.com/yourorg/propertyhub/internal/domain"
)

// EventType names what happened to a ticket
type EventType string

const (
	TicketCreated  EventType = "ticket.created"
	StatusChanged  EventType = "ticket.status_changed"
	VendorAssigned EventType = "ticket.vendor_assigned"
)

// Event is one ticket change
type Event struct {
	Type   EventType                 `json:"type"`
	Ticket *domain.MaintenanceTicket `json:"ticket"`
	From   domain.TicketStatus       `json:"from,omitempty"`
}

// Filter selects the events a subscriber receives
type Filter func(Event) bool

// RoomFilter passes events for a single room; an empty roomID passes all.
func RoomFilter(roomID string) Filter {
	return func(e Event) bool {
		return roomID == "" || (e.Ticket != nil && e.Ticket.RoomID == roomID)
	}
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub delivers published events to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[int]*subscriber), logger: logger}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(filter Filter, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	if filter == nil {
		filter = RoomFilter("")
	}
	sub := &subscriber{ch: make(chan Event, buffer), filter: filter}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish sends e to every matching subscriber
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, sub := range h.subs {
		if !sub.filter(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.logger.Warn("feed subscriber lagging, event dropped",
				slog.Int("subscriber", id),
				slog.String("type", string(e.Type)),
			)
		}
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
