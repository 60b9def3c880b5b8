package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/weather-normalise-service/internal/domain"
)

const namespace = "weather_normalise"

// Transport labels.
const (
	TransportHTTP  = "http"
	TransportKafka = "kafka"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Normalisation outcomes, shared by every transport.
	ObservationsNormalised *prometheus.CounterVec // labels: transport
	ObservationsRejected   *prometheus.CounterVec // labels: transport, field, reason
	NormaliseDuration      prometheus.Histogram

	// HTTP transport.
	HTTPRequests        *prometheus.CounterVec   // labels: route, code
	HTTPRequestDuration *prometheus.HistogramVec // labels: route

	// Kafka pipeline.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	PipelineEnabled         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	BreakerState            prometheus.Gauge // 0 closed, 1 half-open, 2 open
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsNormalised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_normalised_total",
			Help:      "Observations successfully converted to canonical units.",
		}, []string{"transport"}),
		ObservationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_rejected_total",
			Help:      "Observations rejected, by offending field and reason.",
		}, []string{"transport", "field", "reason"}),
		NormaliseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "normalise_duration_seconds",
			Help:      "Time spent decoding and normalising one observation.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total messages skipped because they could not be normalised.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		PipelineEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_enabled",
			Help:      "1 when the Kafka pipeline is configured, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_breaker_state",
			Help:      "Sink circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsNormalised,
		m.ObservationsRejected,
		m.NormaliseDuration,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.PipelineEnabled,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.BreakerState,
	}
}

// RecordRejection counts err against each field it names. Errors that are not
// domain failures are counted under field "payload" with reason "malformed".
func (m *Metrics) RecordRejection(transport string, err error) {
	var (
		verrs   domain.ValidationErrors
		unitErr *domain.UnsupportedUnitError
	)
	switch {
	case errors.As(err, &verrs):
		for _, v := range verrs {
			m.ObservationsRejected.WithLabelValues(transport, v.Field, v.Reason).Inc()
		}
	case errors.As(err, &unitErr):
		m.ObservationsRejected.WithLabelValues(transport, unitErr.Quantity+"_unit", "unsupported").Inc()
	default:
		m.ObservationsRejected.WithLabelValues(transport, "payload", "malformed").Inc()
	}
}
