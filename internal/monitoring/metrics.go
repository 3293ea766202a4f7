package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_tasks_started_total",
			Help: "Task attempts started",
		},
		[]string{"task"},
	)

	TasksClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_tasks_claimed_total",
			Help: "Task rewards successfully claimed",
		},
		[]string{"task"},
	)

	ClaimsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_claims_rejected_total",
			Help: "Task claims refused, by reason",
		},
		[]string{"reason"},
	)

	RewardsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_rewards_credited_sum",
			Help: "Sum of credited amounts, by source",
		},
		[]string{"source"},
	)

	PayoutRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_payout_requests_total",
			Help: "Payout request transitions",
		},
		[]string{"status"},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskreward_persistence_failures_total",
			Help: "Snapshot writes that failed and were rolled back",
		},
	)

	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskreward_snapshot_write_seconds",
			Help:    "Time spent writing a state snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskreward_http_requests_total",
			Help: "Dashboard HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskreward_http_response_time_seconds",
			Help:    "Dashboard response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
