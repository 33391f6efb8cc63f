// Package metrics provides Prometheus metrics for the vanguard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers upstream calls from a few ms up to the request timeout.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Gateway
	gatewayRequests *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	throttleWaits   prometheus.Counter
	throttleWaitMs  prometheus.Histogram

	// Reference tables
	tableSize         *prometheus.GaugeVec
	tableLoadDuration *prometheus.HistogramVec
	tableLoadFailures *prometheus.CounterVec

	// Normalization
	itemsNormalized *prometheus.CounterVec
	itemsDropped    *prometheus.CounterVec

	// Aggregation
	reportsFetched   prometheus.Counter
	reportsFailed    prometheus.Counter
	reportsFiltered  *prometheus.CounterVec
	summariesEmitted prometheus.Counter

	// Executor
	executorQueueSize prometheus.Gauge
	executorWorkers   prometheus.Gauge
	taskLatency       prometheus.Histogram

	// Accounts
	accountsStored prometheus.Gauge

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseMs      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vanguard",
		subsystem:        "core",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.gatewayRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gateway_requests_total",
		Help:      "Upstream requests by label and outcome (ok, upstream_error, transport_error)",
	}, []string{"label", "outcome"})

	m.gatewayLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gateway_latency_milliseconds",
		Help:      "Upstream request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"label"})

	m.throttleWaits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "throttle_waits_total",
		Help:      "Number of requests that had to wait for the throttle window",
	})

	m.throttleWaitMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "throttle_wait_milliseconds",
		Help:      "Time spent blocked by the throttle",
		Buckets:   m.histogramBuckets,
	})

	m.tableSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reference_table_entries",
		Help:      "Number of entries per loaded reference table",
	}, []string{"table"})

	m.tableLoadDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reference_table_load_milliseconds",
		Help:      "Reference table download and parse time",
		Buckets:   m.histogramBuckets,
	}, []string{"table"})

	m.tableLoadFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reference_table_load_failures_total",
		Help:      "Reference table loads that failed",
	}, []string{"table"})

	m.itemsNormalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_normalized_total",
		Help:      "Items emitted by the item normalizer per location",
	}, []string{"location"})

	m.itemsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_dropped_total",
		Help:      "Items dropped by the item normalizer per reason",
	}, []string{"reason"})

	m.reportsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activity_reports_fetched_total",
		Help:      "Detail reports fetched successfully",
	})

	m.reportsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activity_reports_failed_total",
		Help:      "Detail report fetches that failed and were dropped",
	})

	m.reportsFiltered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activity_reports_filtered_total",
		Help:      "Detail reports discarded by the summary filters per reason",
	}, []string{"reason"})

	m.summariesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "activity_summaries_total",
		Help:      "Activity summaries emitted",
	})

	m.executorQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "executor_queue_size",
		Help:      "Tasks waiting in the fan-out executor queue",
	})

	m.executorWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "executor_workers",
		Help:      "Workers in the fan-out executor",
	})

	m.taskLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "executor_task_milliseconds",
		Help:      "Time spent running one executor task",
		Buckets:   m.histogramBuckets,
	})

	m.accountsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "accounts_stored",
		Help:      "Linked accounts held by the account store",
	})

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Heap bytes allocated",
	})

	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})

	m.gcPauseMs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_avg_milliseconds",
		Help:      "Average GC pause",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint and error type",
	}, []string{"endpoint", "error_type"})
}

// GetRegistry returns the registry holding the service metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordGatewayRequest counts one upstream request.
func RecordGatewayRequest(label, outcome string) {
	globalManager.gatewayRequests.WithLabelValues(label, outcome).Inc()
}

// RecordGatewayLatency records upstream latency.
func RecordGatewayLatency(label string, ms float64) {
	globalManager.gatewayLatency.WithLabelValues(label).Observe(ms)
}

// RecordThrottleWait records one blocking wait in the throttle.
func RecordThrottleWait(ms float64) {
	globalManager.throttleWaits.Inc()
	globalManager.throttleWaitMs.Observe(ms)
}

// UpdateReferenceTableSize sets the entry count for a table.
func UpdateReferenceTableSize(table string, n int) {
	globalManager.tableSize.WithLabelValues(table).Set(float64(n))
}

// RecordReferenceTableLoad records the load duration of a table.
func RecordReferenceTableLoad(table string, ms float64, ok bool) {
	globalManager.tableLoadDuration.WithLabelValues(table).Observe(ms)
	if !ok {
		globalManager.tableLoadFailures.WithLabelValues(table).Inc()
	}
}

// RecordItemsNormalized counts items emitted for a location.
func RecordItemsNormalized(location string, n int) {
	globalManager.itemsNormalized.WithLabelValues(location).Add(float64(n))
}

// RecordItemDropped counts one item dropped by the normalizer.
func RecordItemDropped(reason string) {
	globalManager.itemsDropped.WithLabelValues(reason).Inc()
}

// RecordReportFetched counts one successful detail report fetch.
func RecordReportFetched() {
	globalManager.reportsFetched.Inc()
}

// RecordReportFailed counts one failed detail report fetch.
func RecordReportFailed() {
	globalManager.reportsFailed.Inc()
}

// RecordReportFiltered counts one report discarded by a filter.
func RecordReportFiltered(reason string) {
	globalManager.reportsFiltered.WithLabelValues(reason).Inc()
}

// RecordSummariesEmitted counts emitted activity summaries.
func RecordSummariesEmitted(n int) {
	globalManager.summariesEmitted.Add(float64(n))
}

// UpdateExecutorQueueSize sets the executor backlog.
func UpdateExecutorQueueSize(n int) {
	globalManager.executorQueueSize.Set(float64(n))
}

// UpdateExecutorWorkers sets the executor worker count.
func UpdateExecutorWorkers(n int) {
	globalManager.executorWorkers.Set(float64(n))
}

// RecordTaskLatency records how long one executor task ran.
func RecordTaskLatency(ms float64) {
	globalManager.taskLatency.Observe(ms)
}

// UpdateAccountsStored sets the stored account count.
func UpdateAccountsStored(n int) {
	globalManager.accountsStored.Set(float64(n))
}

// UpdateSystemMemoryUsage sets allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutineCount.Set(float64(n))
}

// UpdateSystemGCPause sets the average GC pause.
func UpdateSystemGCPause(ms float64) {
	globalManager.gcPauseMs.Set(ms)
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordHTTPError counts one HTTP error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}
