// Package metrics registers the studio's Prometheus collectors with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booz"

// ReservationsTotal counts committed reservations.
// Labels: payment (package, single, sample, credit) and package_ref.
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Total number of reservations committed.",
	},
	[]string{"payment", "package_ref"},
)

// ReservationFailuresTotal counts rejected reserve calls by reason (e.g. "class_full").
var ReservationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_failures_total",
		Help:      "Total number of reserve calls rejected, by reason.",
	},
	[]string{"reason"},
)

var CancellationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cancellations_total",
		Help:      "Total number of reservations cancelled, by package_ref.",
	},
	[]string{"package_ref"},
)

// RevenueTotal accumulates money charged by reservations, in whole currency units.
var RevenueTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revenue_units_total",
		Help:      "Money charged by reservations and package purchases.",
	},
	[]string{"package_ref"},
)

var RefundsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_units_total",
		Help:      "Money credited back by cancellations.",
	},
)

// IdempotencyTotal counts idempotency-key lookups. Label result: hit or miss.
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_checks_total",
		Help:      "Idempotency-Key lookups on reserve, by result.",
	},
	[]string{"result"},
)

// RequestDuration measures HTTP handling time by route template.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
