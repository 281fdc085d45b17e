// package metrics exposes Prometheus instrumentation for batch runs and the local HTTP front
package metrics

import (
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

// Batch Prometheus metrics.
var (
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setlist",
			Name:      "batches_total",
			Help:      "Finished batches by kind and status",
		},
		[]string{"kind", "status"}, // complete / partial / failed / cancelled
	)

	BatchesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setlist",
			Name:      "batches_rejected_total",
			Help:      "Batches that failed validation before any remote call",
		},
		[]string{"kind"},
	)

	BatchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setlist",
			Name:      "batch_items_total",
			Help:      "Processed batch items by result",
		},
		[]string{"kind", "result"}, // "succeeded" / "failed"
	)

	SongsAddedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setlist",
			Name:      "songs_added_total",
			Help:      "Songs or tracks added to playlists",
		},
		[]string{"kind"},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "setlist",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of finished batches",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	ProgressEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setlist",
			Name:      "progress_events_total",
			Help:      "Progress events emitted by running batches",
		},
		[]string{"kind"},
	)

	BatchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "setlist",
			Name:      "batches_in_flight",
			Help:      "Batches currently dispatching items",
		},
	)
)

func init() {
	prometheus.MustRegister(BatchesTotal)
	prometheus.MustRegister(BatchesRejectedTotal)
	prometheus.MustRegister(BatchItemsTotal)
	prometheus.MustRegister(SongsAddedTotal)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(ProgressEventsTotal)
	prometheus.MustRegister(BatchesInFlight)
}

// Observe records a finalized summary.
func Observe(s *tasks.BatchSummary) {
	if s == nil {
		return
	}
	kind := s.Kind.String()

	BatchesTotal.WithLabelValues(kind, string(s.Status())).Inc()
	BatchItemsTotal.WithLabelValues(kind, "succeeded").Add(float64(s.SucceededItems))
	BatchItemsTotal.WithLabelValues(kind, "failed").Add(float64(s.FailedItems()))
	SongsAddedTotal.WithLabelValues(kind).Add(float64(s.AddedTotal))

	if !s.StartedAt.IsZero() && !s.CompletedAt.IsZero() {
		BatchDuration.WithLabelValues(kind).Observe(s.CompletedAt.Sub(s.StartedAt).Seconds())
	}
}

// TrackState is an engine state hook that maintains the in-flight gauge and rejection counter.
func TrackState(job tasks.BatchJob, s tasks.State) {
	switch s {
	case tasks.StateRunning:
		BatchesInFlight.Inc()
	case tasks.StateCompleted, tasks.StateCancelled:
		BatchesInFlight.Dec()
	case tasks.StateAborted:
		BatchesRejectedTotal.WithLabelValues(job.Kind.String()).Inc()
	}
}

// Reporter is a [tasks.ProgressReporter] that counts progress events per batch kind.
//
// Combine it with a display reporter through [tasks.MultiReporter].
type Reporter struct{}

var _ tasks.ProgressReporter = Reporter{}

func (Reporter) Report(e tasks.ProgressEvent) {
	ProgressEventsTotal.WithLabelValues(e.Kind.String()).Inc()
}
