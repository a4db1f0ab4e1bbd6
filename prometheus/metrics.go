package prometheus

import (
	"time"

	"procurement-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Record operation metrics, labeled by entity (supplier, invoice,
	// payment, purchase_order) and operation (create, get, list, ...)
	RecordOperationsCounter prometheus.CounterVec

	// Matcher metrics
	SuggestQueriesCounter    prometheus.Counter
	DuplicateWarningsCounter prometheus.Counter

	// Ledger gauges, refreshed by the debounced stats refresher
	SuppliersGauge          prometheus.Gauge
	OutstandingBalanceGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Record operation metrics
	RecordOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of record operations",
		},
		[]string{"entity", "operation"},
	)

	// Matcher metrics
	SuggestQueriesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_suggest_queries_total",
			Help: "Total number of supplier suggestion queries",
		},
	)

	DuplicateWarningsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_duplicate_warnings_total",
			Help: "Total number of duplicate-supplier warnings surfaced",
		},
	)

	// Ledger gauges
	SuppliersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_suppliers",
			Help: "Number of suppliers on record",
		},
	)

	OutstandingBalanceGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_outstanding_balance",
			Help: "Aggregate outstanding balance across all suppliers",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOperation increments the counter for record operations
func RecordOperation(entity, operation string) {
	RecordOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// UpdateSupplierCount updates the supplier gauge
func UpdateSupplierCount(count int) {
	SuppliersGauge.Set(float64(count))
}

// UpdateOutstandingBalance updates the aggregate outstanding balance gauge
func UpdateOutstandingBalance(balance float64) {
	OutstandingBalanceGauge.Set(balance)
}
