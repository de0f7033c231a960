// Package metrics exposes Prometheus instrumentation for the lifecycle
// engines and the purge scheduler.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"workdeck/internal/core/entity"
)

// Metrics implements the Stats surfaces of the cascade service and the
// purge sweeper. Register once per process.
type Metrics struct {
	cascadeOps      *prometheus.CounterVec
	cascadeAffected *prometheus.CounterVec
	cascadeDuration *prometheus.HistogramVec

	sweeps        *prometheus.CounterVec
	sweepPurged   prometheus.Counter
	sweepDuration prometheus.Histogram
	kindPurged    *prometheus.CounterVec
	blobFailures  prometheus.Counter
}

// New builds and registers the collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cascadeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "cascade",
			Name:      "operations_total",
			Help:      "Cascade operations by op, kind and outcome.",
		}, []string{"op", "kind", "success"}),
		cascadeAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "cascade",
			Name:      "records_affected_total",
			Help:      "Records marked or restored by successful cascades.",
		}, []string{"op", "kind"}),
		cascadeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workdeck",
			Subsystem: "cascade",
			Name:      "duration_seconds",
			Help:      "Wall time of one cascade call, transaction included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "purge",
			Name:      "sweeps_total",
			Help:      "Purge sweeps by outcome.",
		}, []string{"success"}),
		sweepPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "purge",
			Name:      "records_purged_total",
			Help:      "Rows permanently erased by sweeps.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "workdeck",
			Subsystem: "purge",
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one sweep pass.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300},
		}),
		kindPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "purge",
			Name:      "records_purged_by_kind_total",
			Help:      "Rows permanently erased per kind.",
		}, []string{"kind"}),
		blobFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "purge",
			Name:      "blob_release_failures_total",
			Help:      "Attachment blobs that could not be released before erasure.",
		}),
	}

	reg.MustRegister(
		m.cascadeOps, m.cascadeAffected, m.cascadeDuration,
		m.sweeps, m.sweepPurged, m.sweepDuration, m.kindPurged, m.blobFailures,
	)
	return m
}

// CascadeDone implements the cascade service's Stats surface.
func (m *Metrics) CascadeDone(op string, kind entity.Kind, success bool, affected int, d time.Duration) {
	m.cascadeOps.WithLabelValues(op, string(kind), strconv.FormatBool(success)).Inc()
	if success && affected > 0 {
		m.cascadeAffected.WithLabelValues(op, string(kind)).Add(float64(affected))
	}
	m.cascadeDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SweepDone implements the purge sweeper's Stats surface.
func (m *Metrics) SweepDone(success bool, purged int64, d time.Duration) {
	m.sweeps.WithLabelValues(strconv.FormatBool(success)).Inc()
	if purged > 0 {
		m.sweepPurged.Add(float64(purged))
	}
	m.sweepDuration.Observe(d.Seconds())
}

// KindPurged counts rows erased for one kind in one sweep.
func (m *Metrics) KindPurged(kind entity.Kind, n int64) {
	m.kindPurged.WithLabelValues(string(kind)).Add(float64(n))
}

// BlobReleaseFailed counts one failed attachment blob release.
func (m *Metrics) BlobReleaseFailed() {
	m.blobFailures.Inc()
}
