package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Custom histogram buckets for response times ranging from milliseconds to 30+ seconds.
	// No 60s bucket: histogram_quantile interpolates badly on it with low sample counts.
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method", "http_route"},
	)

	// Store Metrics (document store operations)
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_client_connections",
			Help: "Connections held by the document store pool",
		},
		[]string{"state"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Object Storage Metrics (resume archive)
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Per-mentor lock metrics
	LockAcquireDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentorship_lock_acquire_duration_seconds",
			Help:    "Time spent waiting for a per-mentor lock",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "status"},
	)

	// Business Metrics
	RequestsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_requests_submitted_total",
			Help: "Total number of mentorship requests submitted",
		},
		[]string{"status"},
	)

	RequestsResponded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_requests_responded_total",
			Help: "Total number of responses to mentorship requests",
		},
		[]string{"decision", "status"},
	)

	CapacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorship_capacity_rejections_total",
			Help: "Total number of acceptances refused because the mentor had no headroom",
		},
	)

	MentorshipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_transitions_total",
			Help: "Total number of mentorship status transitions",
		},
		[]string{"to_status", "status"},
	)

	Reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_reconciliations_total",
			Help: "Total number of pair reconciliations by outcome",
		},
		[]string{"outcome"}, // "noop", "repaired", "conflict", "error"
	)

	CapacityRecomputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_capacity_recomputations_total",
			Help: "Total number of capacity counter recomputations by outcome",
		},
		[]string{"outcome"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_session_transitions_total",
			Help: "Total number of session lifecycle transitions",
		},
		[]string{"to_status", "status"},
	)

	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_payment_transitions_total",
			Help: "Total number of session payment transitions",
		},
		[]string{"to_status", "status"},
	)

	RatingsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_ratings_recorded_total",
			Help: "Total number of ratings folded into mentor reputation",
		},
		[]string{"stars"},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_registrations_total",
			Help: "Total registration attempts",
		},
		[]string{"role", "status"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_login_attempts_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"role", "outcome"}, // "success", "failure", "locked"
	)

	AccountLockouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_account_lockouts_total",
			Help: "Total number of accounts locked after repeated failures",
		},
		[]string{"role"},
	)

	ResumeAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_resume_analyses_total",
			Help: "Total number of resume analyses",
		},
		[]string{"status"},
	)

	RoadmapGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_roadmap_generations_total",
			Help: "Total number of learning roadmap generations",
		},
		[]string{"status"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorship_notifications_dispatched_total",
			Help: "Total number of post-commit notifications dispatched",
		},
		[]string{"event", "status"},
	)

	// Infrastructure Metrics
	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
