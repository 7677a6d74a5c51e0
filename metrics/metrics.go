package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contesthub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contesthub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contesthub_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// RateLimiterRejections counts rejected requests due to rate limiting
	RateLimiterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contesthub_rate_limiter_rejections_total",
			Help: "Total number of requests rejected by rate limiter",
		},
		[]string{"limiter"},
	)

	// DatabaseOperationDuration measures database operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contesthub_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// RegistrationsTotal counts registrations created, by path (direct or payment)
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contesthub_registrations_total",
			Help: "Total number of contest registrations created",
		},
		[]string{"source"},
	)

	// PaymentConfirmations counts payment confirmation outcomes
	PaymentConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contesthub_payment_confirmations_total",
			Help: "Payment confirmations by outcome",
		},
		[]string{"outcome"}, // "credited", "duplicate", "unpaid", "error"
	)

	// CheckoutSessions counts checkout sessions opened with the payment provider
	CheckoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contesthub_checkout_sessions_total",
			Help: "Checkout sessions created by provider",
		},
		[]string{"provider"},
	)

	// ParticipantAdjustments counts contests whose participant counter was repaired by the reconciler
	ParticipantAdjustments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contesthub_participant_adjustments_total",
			Help: "Participant counters corrected from registration records",
		},
	)

	// RealtimeClients tracks open websocket subscribers
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contesthub_realtime_clients",
			Help: "Number of connected websocket clients",
		},
	)

	// MemoryStats tracks memory usage stats
	MemoryStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contesthub_memory_stats_bytes",
			Help: "Memory statistics in bytes",
		},
		[]string{"type"},
	)

	// GoroutineCount tracks the number of goroutines
	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contesthub_goroutine_count",
			Help: "Number of goroutines",
		},
	)

	// CacheHits counts the number of cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contesthub_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses counts the number of cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contesthub_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// SystemCPUUsage tracks CPU usage percentage
	SystemCPUUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contesthub_system_cpu_usage_percent",
			Help: "CPU usage percentage by core",
		},
		[]string{"core"},
	)

	// SystemLoadAverage tracks system load averages
	SystemLoadAverage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contesthub_system_load_average",
			Help: "System load average",
		},
		[]string{"period"}, // "1min", "5min", "15min"
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, table string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, table).Observe(duration)
}
