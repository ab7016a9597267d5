package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samplesTotal   *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	broadcasts     *prometheus.CounterVec
	urgency        *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		samplesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aquawatch_samples_total",
				Help: "Total number of sensor samples processed",
			},
			[]string{"pond"},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aquawatch_do_fallbacks_total",
				Help: "Total number of samples where DO was estimated by the KNN fallback",
			},
			[]string{"pond"},
		),
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aquawatch_decisions_total",
				Help: "Total number of decisions by primary action",
			},
			[]string{"action"},
		),
		broadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aquawatch_broadcast_messages_total",
				Help: "Websocket broadcast deliveries by outcome",
			},
			[]string{"outcome"},
		),
		urgency: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aquawatch_pond_urgency",
				Help: "Last computed urgency score for a pond",
			},
			[]string{"pond"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aquawatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aquawatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSample records one processed sample for a pond.
func (r *Recorder) RecordSample(pond string) {
	r.samplesTotal.WithLabelValues(pond).Inc()
}

// RecordFallback records a DO fallback estimation for a pond.
func (r *Recorder) RecordFallback(pond string) {
	r.fallbacksTotal.WithLabelValues(pond).Inc()
}

// RecordDecision records a decision by its primary action.
func (r *Recorder) RecordDecision(action string) {
	r.decisionsTotal.WithLabelValues(action).Inc()
}

// RecordBroadcast records websocket delivery counts for one broadcast.
func (r *Recorder) RecordBroadcast(delivered, failed int) {
	r.broadcasts.WithLabelValues("delivered").Add(float64(delivered))
	r.broadcasts.WithLabelValues("failed").Add(float64(failed))
}

// RecordUrgency records the last urgency score for a pond.
func (r *Recorder) RecordUrgency(pond string, score float64) {
	r.urgency.WithLabelValues(pond).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
