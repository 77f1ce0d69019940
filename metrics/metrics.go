// Package metrics counts what a training run did. Each run owns a registry
// that is dumped once to a Prometheus textfile when the run ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"evalgen/partition"
)

const namespace = "evalgen"

// Recorder holds the run's collectors. It is safe for concurrent use.
type Recorder struct {
	reg *prometheus.Registry

	// SamplesTotal counts dataset rows by split (train, test).
	SamplesTotal *prometheus.CounterVec
	// SkippedTotal counts malformed dataset rows.
	SkippedTotal prometheus.Counter
	// PrunedTotal counts empty piecewise partitions by color.
	PrunedTotal *prometheus.CounterVec
	// DroppedTotal counts zero-variance features over all partitions.
	DroppedTotal prometheus.Counter
	// FittedTotal counts fitted models by kind.
	FittedTotal *prometheus.CounterVec
	// FitSeconds measures fit duration by kind.
	FitSeconds *prometheus.HistogramVec
	// ArtifactsTotal counts files committed to the output directory.
	ArtifactsTotal prometheus.Counter
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		SamplesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_loaded_total",
			Help:      "Dataset rows loaded, by split.",
		}, []string{"split"}),
		SkippedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Malformed dataset rows skipped.",
		}),
		PrunedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_pruned_total",
			Help:      "Piecewise partitions without training rows.",
		}, []string{"color"}),
		DroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_dropped_total",
			Help:      "Zero-variance features dropped from partitions.",
		}),
		FittedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_fitted_total",
			Help:      "Models fitted, by kind.",
		}, []string{"kind"}),
		FitSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Model fit duration in seconds, by kind.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"kind"}),
		ArtifactsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Files written to the output directory.",
		}),
	}
}

// Registry exposes the run's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Loaded(train, test, skipped int) {
	r.SamplesTotal.WithLabelValues("train").Add(float64(train))
	r.SamplesTotal.WithLabelValues("test").Add(float64(test))
	r.SkippedTotal.Add(float64(skipped))
}

func (r *Recorder) PartitionPruned(c partition.Color) {
	r.PrunedTotal.WithLabelValues(c.String()).Inc()
}

func (r *Recorder) FeaturesDropped(n int) { r.DroppedTotal.Add(float64(n)) }

func (r *Recorder) ModelFitted(kind string, d time.Duration) {
	r.FittedTotal.WithLabelValues(kind).Inc()
	r.FitSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

func (r *Recorder) Written(n int) { r.ArtifactsTotal.Add(float64(n)) }

// WriteTextfile dumps every collector in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
