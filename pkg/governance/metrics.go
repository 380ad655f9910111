package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the governance engine.
type Metrics struct {
	admissionChecks *prometheus.CounterVec
	denials         *prometheus.CounterVec
	blocksCreated   *prometheus.CounterVec
	activeBlocks    prometheus.Gauge
	quotaUsage      *prometheus.GaugeVec
	queueDepth      prometheus.Gauge
	checkDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with Prometheus collectors.
// Collectors register on the default registry, so create at most one
// instance per process.
func NewMetrics() *Metrics {
	return &Metrics{
		admissionChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_governance_admission_checks_total",
				Help: "Total number of admission checks performed",
			},
			[]string{"operation", "result"},
		),

		denials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_governance_denials_total",
				Help: "Total number of denied admissions by reason",
			},
			[]string{"operation", "reason"},
		),

		blocksCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_governance_blocks_created_total",
				Help: "Total number of abuse blocks created",
			},
			[]string{"operation"},
		),

		activeBlocks: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentinel_governance_active_blocks",
				Help: "Current number of active abuse blocks",
			},
		),

		quotaUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentinel_governance_quota_usage_ratio",
				Help: "Current shared quota usage as a fraction (0.0-1.0)",
			},
			[]string{"resource"},
		),

		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentinel_governance_queue_depth",
				Help: "Current number of deferred operations waiting",
			},
		),

		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_governance_check_duration_seconds",
				Help:    "Duration of admission checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"operation"},
		),
	}
}

// RecordCheck records an admission check outcome.
func (m *Metrics) RecordCheck(operation string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.admissionChecks.WithLabelValues(operation, result).Inc()
}

// RecordDenial records a denial with its reason.
func (m *Metrics) RecordDenial(operation string, reason Reason) {
	m.denials.WithLabelValues(operation, string(reason)).Inc()
}

// RecordBlockCreated records an abuse block creation.
func (m *Metrics) RecordBlockCreated(operation string) {
	m.blocksCreated.WithLabelValues(operation).Inc()
}

// UpdateActiveBlocks updates the active block count gauge.
func (m *Metrics) UpdateActiveBlocks(count int) {
	m.activeBlocks.Set(float64(count))
}

// UpdateQuotaUsage updates a shared resource's usage fraction.
func (m *Metrics) UpdateQuotaUsage(resource string, fraction float64) {
	m.quotaUsage.WithLabelValues(resource).Set(fraction)
}

// UpdateQueueDepth updates the deferred-queue depth gauge.
func (m *Metrics) UpdateQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// RecordCheckDuration records the duration of one admission check.
func (m *Metrics) RecordCheckDuration(operation string, seconds float64) {
	m.checkDuration.WithLabelValues(operation).Observe(seconds)
}
