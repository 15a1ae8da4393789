// Package metrics provides Prometheus metrics for the rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics: what actually drives the system.
	announcementsReceived prometheus.Counter
	announcementsSkipped  *prometheus.CounterVec
	daysProcessed         prometheus.Counter
	participantsRated     prometheus.Counter
	resolutionGaps        prometheus.Counter
	persistenceErrors     prometheus.Counter
	ratingDelta           prometheus.Histogram
	pipelineDuration      prometheus.Histogram

	// Population health.
	playersTracked  prometheus.Gauge
	playersInactive prometheus.Gauge

	// Ingress queue.
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository timings.
	repositoryWriteLatency prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram
}

// Global manager on a custom registry, so the default Go collectors stay out.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "guessrank",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.announcementsReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "announcements_received_total",
		Help:      "Total announcements accepted for processing",
	})
	m.announcementsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "announcements_skipped_total",
		Help:      "Announcements skipped before rating, by reason",
	}, []string{"reason"})
	m.daysProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "days_processed_total",
		Help:      "Game days fully rated and closed with a daily summary",
	})
	m.participantsRated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_rated_total",
		Help:      "Participants whose rating was adjusted",
	})
	m.resolutionGaps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_gaps_total",
		Help:      "Result rows dropped because identity resolution failed",
	})
	m.persistenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Pipeline runs aborted by a repository write failure",
	})
	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta",
		Help:      "Absolute per-player rating change per rated day",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
	})
	m.pipelineDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_ms",
		Help:      "End-to-end pipeline run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Players known to the repository",
	})
	m.playersInactive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_inactive",
		Help:      "Players currently flagged inactive",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Announcements waiting in the ingress queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Configured ingress queue capacity",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueues_total",
		Help:      "Announcements enqueued",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "dequeues_total",
		Help:      "Announcements handed to the runner",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_errors_total",
		Help:      "Enqueue attempts rejected (closed or full)",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.repositoryWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "repository",
		Name:      "write_latency_ms",
		Help:      "Repository write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "repository",
		Name:      "query_latency_ms",
		Help:      "Repository query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level recorders against the global manager.

func RecordAnnouncementReceived() {
	globalManager.announcementsReceived.Inc()
}

func RecordAnnouncementSkipped(reason string) {
	globalManager.announcementsSkipped.WithLabelValues(reason).Inc()
}

func RecordDayProcessed() {
	globalManager.daysProcessed.Inc()
}

func RecordParticipantsRated(n int) {
	globalManager.participantsRated.Add(float64(n))
}

func RecordResolutionGap() {
	globalManager.resolutionGaps.Inc()
}

func RecordPersistenceError() {
	globalManager.persistenceErrors.Inc()
}

func RecordRatingDelta(absDelta float64) {
	globalManager.ratingDelta.Observe(absDelta)
}

func RecordPipelineDuration(ms float64) {
	globalManager.pipelineDuration.Observe(ms)
}

func UpdatePlayersTracked(n int) {
	globalManager.playersTracked.Set(float64(n))
}

func UpdatePlayersInactive(n int) {
	globalManager.playersInactive.Set(float64(n))
}

func UpdateQueueSize(n int) {
	globalManager.queueSize.Set(float64(n))
}

func UpdateQueueCapacity(n int) {
	globalManager.queueCapacity.Set(float64(n))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func RecordRepositoryWriteLatency(ms float64) {
	globalManager.repositoryWriteLatency.Observe(ms)
}

func RecordRepositoryQueryLatency(ms float64) {
	globalManager.repositoryQueryLatency.Observe(ms)
}

// GetRegistry exposes the custom registry for the /healthz handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
