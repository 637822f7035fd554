// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_signups_total",
			Help: "Total number of successful signups per activity",
		},
		[]string{"activity"},
	)

	UnregistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_unregistrations_total",
			Help: "Total number of successful unregistrations per activity",
		},
		[]string{"activity"},
	)

	OperationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_operation_failures_total",
			Help: "Total number of rejected registry operations",
		},
		[]string{"operation", "error_code"},
	)

	SignupsOverCapacity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_signups_over_capacity_total",
			Help: "Signups accepted while the activity was already at or above max_participants",
		},
		[]string{"activity"},
	)

	AvailableSpots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "activity_available_spots",
			Help: "max_participants minus current participants, per activity",
		},
		[]string{"activity"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_notification_failures_total",
			Help: "Total number of events a notifier failed to deliver",
		},
		[]string{"notifier"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
