package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// interpretation pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Interpretation metrics.
	Interpretations *prometheus.CounterVec // labels: source={parser-strong,soft-merge,memory,error}
	Confidence      prometheus.Histogram

	// Memory store metrics.
	MemoryRetrievals *prometheus.CounterVec // labels: result={hit,miss}
	MemoryWrites     prometheus.Counter
	MemoryEntries    prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "messages_produced_total",
			Help:      "Total interpretations written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "transform_errors_total",
			Help:      "Total interpretation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notam_interp",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notam_interp",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notam_interp",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Interpretations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "interpretations_total",
			Help:      "Completed interpretations by result source.",
		}, []string{"source"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notam_interp",
			Name:      "confidence_score",
			Help:      "Deterministic extractor confidence per interpretation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 0.85, 0.9, 0.95, 1},
		}),
		MemoryRetrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "memory_retrievals_total",
			Help:      "Similarity-based memory retrievals by result.",
		}, []string{"result"}),
		MemoryWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_interp",
			Name:      "memory_writes_total",
			Help:      "High-confidence interpretations written back to memory.",
		}),
		MemoryEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notam_interp",
			Name:      "memory_entries",
			Help:      "Entries currently held in the memory store.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Interpretations,
		m.Confidence,
		m.MemoryRetrievals,
		m.MemoryWrites,
		m.MemoryEntries,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "notam_interp", Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "notam_interp", Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "notam_interp", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "notam_interp", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "notam_interp", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "notam_interp", Name: "batch_processing_duration_seconds"}),
		Interpretations:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "notam_interp", Name: "interpretations_total"}, []string{"source"}),
		Confidence:              prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "notam_interp", Name: "confidence_score"}),
		MemoryRetrievals:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "notam_interp", Name: "memory_retrievals_total"}, []string{"result"}),
		MemoryWrites:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "notam_interp", Name: "memory_writes_total"}),
		MemoryEntries:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "notam_interp", Name: "memory_entries"}),
	}
}
