// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	TransitionInserted    = "inserted"
	TransitionReactivated = "reactivated"
	TransitionRevoked     = "revoked"
)

var (
	AssignmentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exception_assignment_transitions_total",
			Help: "Total number of assignment rows moved by assign and revoke",
		},
		[]string{"transition"},
	)

	LifecycleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exception_lifecycle_failures_total",
			Help: "Total number of assign/revoke batches that were rolled back",
		},
		[]string{"operation"},
	)

	AssignBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exception_lifecycle_batch_size",
			Help:    "Distribution of employee codes per assign/revoke request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"operation"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
