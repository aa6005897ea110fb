// Package metrics provides Prometheus metrics for the Moodscape orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the orchestrator.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Decision pipeline
	decisionRounds    prometheus.Counter
	decisionFallbacks prometheus.Counter
	oracleLatency     prometheus.Histogram
	overridesApplied  prometheus.Counter

	// Debouncer
	voiceEvents     prometheus.Counter
	voiceCoalesced  prometheus.Counter
	pendingTimers   prometheus.Gauge

	// Aggregation and registries
	mergeRecomputes prometheus.Counter
	activeEntries   prometheus.Gauge
	activeUsers     prometheus.Gauge
	decisionVersion prometheus.Gauge

	// Outbound surfaces
	wsClients      prometheus.Gauge
	wsDropped      prometheus.Counter
	publishErrors  prometheus.Counter
	deviceCommands prometheus.Counter
	deviceErrors   prometheus.Counter

	// Lifecycle
	resets prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "moodscape",
		subsystem:        "orchestrator",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

	m.decisionRounds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_rounds_total",
		Help:      "Total number of completed decision rounds (success or fallback)",
	})

	m.decisionFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_fallbacks_total",
		Help:      "Total number of decision rounds resolved with the fallback environment",
	})

	m.oracleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_latency_milliseconds",
		Help:      "Histogram of mood-to-environment inference latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.overridesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "climate_overrides_total",
		Help:      "Total number of rounds where explicit climate wording forced an extreme",
	})

	m.voiceEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "voice_events_total",
		Help:      "Total number of inbound voice events",
	})

	m.voiceCoalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "voice_events_coalesced_total",
		Help:      "Total number of voice events coalesced away by the debouncer",
	})

	m.pendingTimers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debounce_pending_timers",
		Help:      "Current number of pending per-user debounce timers",
	})

	m.mergeRecomputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "merge_recomputes_total",
		Help:      "Total number of shared-environment recomputations",
	})

	m.activeEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_active_entries",
		Help:      "Current number of preference entries inside the active window",
	})

	m.activeUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_users",
		Help:      "Current number of registered participants",
	})

	m.decisionVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_version",
		Help:      "Monotonic version of the current shared decision state",
	})

	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Current number of connected display clients",
	})

	m.wsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_frames_dropped_total",
		Help:      "Total number of frames dropped for slow display clients",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "publish_errors_total",
		Help:      "Total number of outward publish failures (logged and dropped)",
	})

	m.deviceCommands = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "device_commands_total",
		Help:      "Total number of fire-and-forget device commands sent",
	})

	m.deviceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "device_command_errors_total",
		Help:      "Total number of device command publish failures",
	})

	m.resets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resets_total",
		Help:      "Total number of global resets coordinated",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method, and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers operating on the global manager.

func RecordDecisionRound() {
	globalManager.decisionRounds.Inc()
}

func RecordDecisionFallback() {
	globalManager.decisionFallbacks.Inc()
}

func RecordOracleLatency(latencyMs float64) {
	globalManager.oracleLatency.Observe(latencyMs)
}

func RecordClimateOverride() {
	globalManager.overridesApplied.Inc()
}

func RecordVoiceEvent() {
	globalManager.voiceEvents.Inc()
}

func RecordVoiceCoalesced() {
	globalManager.voiceCoalesced.Inc()
}

func UpdatePendingTimers(count int) {
	globalManager.pendingTimers.Set(float64(count))
}

func RecordMergeRecompute() {
	globalManager.mergeRecomputes.Inc()
}

func UpdateActiveEntries(count int) {
	globalManager.activeEntries.Set(float64(count))
}

func UpdateActiveUsers(count int) {
	globalManager.activeUsers.Set(float64(count))
}

func UpdateDecisionVersion(version uint64) {
	globalManager.decisionVersion.Set(float64(version))
}

func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

func RecordWSFrameDropped() {
	globalManager.wsDropped.Inc()
}

func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

func RecordDeviceCommand() {
	globalManager.deviceCommands.Inc()
}

func RecordDeviceCommandError() {
	globalManager.deviceErrors.Inc()
}

func RecordReset() {
	globalManager.resets.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry serving /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
