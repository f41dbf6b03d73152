package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyhub_booking_attempts_total",
			Help: "Booking confirmation attempts by outcome",
		},
		[]string{"outcome"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studyhub_db_tx_seconds",
			Help:    "Duration of store transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyhub_outbox_lag_seconds",
			Help: "Age of the oldest unpublished change event",
		},
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyhub_publish_retries_total",
			Help: "Total change-feed publish retries",
		},
	)

	StatusRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyhub_status_refreshes_total",
			Help: "Seat status snapshot recomputations",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyhub_rate_limit_exceeded_total",
			Help: "Requests dropped by the rate limiter",
		},
	)
)
