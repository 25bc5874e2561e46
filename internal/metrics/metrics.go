// Package metrics exposes booking core counters on the default Prometheus registry.
package metrics

import (
	"errors"
	"time"

	"github.com/kirinyoku/eventhub/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_tickets_reserved_total",
			Help: "Tickets taken from inventory by successful reservations",
		},
	)

	ticketsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_tickets_released_total",
			Help: "Tickets returned to inventory by cancellations",
		},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_booking_transitions_total",
			Help: "Booking and payment transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	reserveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventhub_reserve_duration_seconds",
			Help:    "Latency of the reserve unit of work",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome folds an error into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrAvailabilityConflict):
		return "sold_out"
	case errors.Is(err, domain.ErrOrderLimitExceeded):
		return "order_limit"
	case errors.Is(err, domain.ErrUnknownTicketType):
		return "unknown_type"
	case errors.Is(err, domain.ErrEventNotBookable):
		return "not_bookable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, domain.ErrPaymentPrecondition):
		return "unpaid"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}

func ObserveReserve(started time.Time, tickets int, err error) {
	reservations.WithLabelValues(Outcome(err)).Inc()
	reserveDuration.Observe(time.Since(started).Seconds())
	if err == nil {
		ticketsReserved.Add(float64(tickets))
	}
}

func TicketsReleased(n int) {
	ticketsReleased.Add(float64(n))
}

func ObserveTransition(action string, err error) {
	transitions.WithLabelValues(action, Outcome(err)).Inc()
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
