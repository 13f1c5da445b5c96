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

	GatewayCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Provider requests served from the fingerprint cache",
		},
		[]string{"service"},
	)

	GatewayCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Provider requests that required an upstream call",
		},
		[]string{"service"},
	)

	GatewayCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_errors_total",
			Help: "Cache store failures swallowed by the gateway",
		},
		[]string{"service", "op"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Upstream provider calls by outcome",
		},
		[]string{"service", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Latency of upstream provider calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	CacheSweepRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sweep_removed_total",
			Help: "Expired cache entries reclaimed by the sweeper",
		},
		[]string{"backend"},
	)

	ScoreGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_score_generations_total",
			Help: "Readiness score generations by status",
		},
		[]string{"status"},
	)

	ScoreSignalFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_signal_fallbacks_total",
			Help: "Sub-scores replaced by the neutral default after a failure",
		},
		[]string{"signal"},
	)

	AWSRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aws_requests_total",
			Help: "SES and SNS calls by service and status",
		},
		[]string{"service", "status"},
	)
)
