package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	seriesAligned *prometheus.CounterVec
	columnsBuilt  prometheus.Counter
	runDuration   prometheus.Histogram
	errorsTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		seriesAligned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforge_series_aligned_total",
				Help: "Series aligned onto the canonical index, by series name",
			},
			[]string{"series"},
		),
		columnsBuilt: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fxforge_columns_built_total",
				Help: "Feature columns produced across runs",
			},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fxforge_run_duration_seconds",
				Help:    "Duration of full pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordSeriesAligned records one aligned series.
func (r *Recorder) RecordSeriesAligned(name string) {
	r.seriesAligned.WithLabelValues(name).Inc()
}

// RecordColumnsBuilt records the column count of a run.
func (r *Recorder) RecordColumnsBuilt(n int) {
	r.columnsBuilt.Add(float64(n))
}

// RecordRunDuration records a full run's wall time in seconds.
func (r *Recorder) RecordRunDuration(seconds float64) {
	r.runDuration.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
