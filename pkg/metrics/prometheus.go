package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations  *prometheus.CounterVec
	alertsFired  *prometheus.CounterVec
	suppressions *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	metricValues *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcpulse_evaluations_total",
				Help: "Total rule evaluations and resulting alerts per cycle",
			},
			[]string{"result"},
		),
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcpulse_alerts_fired_total",
				Help: "Total alerts fired by severity",
			},
			[]string{"severity"},
		),
		suppressions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcpulse_suppressions_total",
				Help: "Alerts suppressed by cooldown per rule",
			},
			[]string{"rule"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		metricValues: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "btcpulse_metric_value",
				Help: "Last resolved value for a market metric",
			},
			[]string{"metric"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "btcpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records the size of one evaluation pass.
func (r *Recorder) RecordEvaluation(rules, alerts int) {
	r.evaluations.WithLabelValues("evaluated").Add(float64(rules))
	r.evaluations.WithLabelValues("fired").Add(float64(alerts))
}

// RecordAlertFired records one fired alert.
func (r *Recorder) RecordAlertFired(severity string) {
	r.alertsFired.WithLabelValues(severity).Inc()
}

// RecordSuppression records one cooldown suppression.
func (r *Recorder) RecordSuppression(ruleID string) {
	r.suppressions.WithLabelValues(ruleID).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordMetricValue records the last resolved value for a metric.
func (r *Recorder) RecordMetricValue(name string, value float64) {
	r.metricValues.WithLabelValues(name).Set(value)
}
