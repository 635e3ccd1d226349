package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ApplicantsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applicants_scored_total",
			Help: "Applicants scored, by strategy and decision",
		},
		[]string{"strategy", "decision"},
	)

	ApprovalProbability = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "applicant_approval_probability",
			Help:    "Distribution of approval probabilities",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		},
		[]string{"strategy"},
	)

	SchemaDivergences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_schema_divergences_total",
			Help: "Mismatches between applicant attributes and the model feature schema",
		},
		[]string{"kind", "name"},
	)

	RecordStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_store_operations_total",
			Help: "Record store calls, by backend, operation and outcome",
		},
		[]string{"backend", "operation", "status"},
	)

	RecordStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "record_store_operation_duration_seconds",
			Help: "Duration of record store calls in seconds",
		},
		[]string{"backend", "operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by route and status code",
		},
		[]string{"route", "code"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)
