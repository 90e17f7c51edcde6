package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propertyhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	gatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propertyhub_gateway_operation_duration_seconds",
		Help:    "Duration of persistence gateway operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	tenantAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_tenant_assignments_total",
		Help: "Tenant room assignments by result",
	}, []string{"result"})

	moveOuts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_tenant_move_outs_total",
		Help: "Tenant move-outs by result",
	}, []string{"result"})

	ticketsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_tickets_created_total",
		Help: "Maintenance tickets created by reporter role",
	}, []string{"role"})

	ticketTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_ticket_transitions_total",
		Help: "Maintenance ticket status transitions",
	}, []string{"from", "to"})

	occupancyDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "propertyhub_occupancy_drift_rooms",
		Help: "Rooms whose occupancy flag disagrees with active tenants at last check",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propertyhub_cache_lookups_total",
		Help: "Inventory cache lookups by backend and result",
	}, []string{"backend", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveGateway records the duration of one gateway call.
func ObserveGateway(operation string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// ObserveAssignment counts a createTenant outcome: ok, unavailable, error.
func ObserveAssignment(result string) {
	tenantAssignments.WithLabelValues(result).Inc()
}

// ObserveMoveOut counts a move-out outcome.
func ObserveMoveOut(result string) {
	moveOuts.WithLabelValues(result).Inc()
}

// ObserveTicketCreated counts a new ticket by the reporter's role.
func ObserveTicketCreated(role string) {
	ticketsCreated.WithLabelValues(role).Inc()
}

// ObserveTicketTransition counts a status change that was written.
func ObserveTicketTransition(from, to string) {
	ticketTransitions.WithLabelValues(from, to).Inc()
}

// SetOccupancyDrift records the number of inconsistent rooms found.
func SetOccupancyDrift(count int) {
	if count < 0 {
		count = 0
	}
	occupancyDrift.Set(float64(count))
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(backend, result).Inc()
}
