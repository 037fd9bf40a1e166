package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	runsTotal *prometheus.CounterVec

	mergedTotal   prometheus.Counter
	skippedTotal  prometheus.Counter
	createdTotal  prometheus.Counter
	archivedTotal prometheus.Counter
	droppedTotal  prometheus.Counter
	erroredTotal  prometheus.Counter

	runDuration prometheus.Histogram
	runActive   prometheus.Gauge
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_runs_total",
			Help:      "Total number of reconciliation runs by final status.",
		}, []string{"status"}),
		mergedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_merged_total",
			Help:      "Total number of roster entries changed by merges.",
		}),
		skippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_skipped_total",
			Help:      "Total number of field writes withheld by overrides.",
		}),
		createdTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_created_total",
			Help:      "Total number of roster entries auto-created from upstream.",
		}),
		archivedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_archived_total",
			Help:      "Total number of roster entries archived as gone upstream.",
		}),
		droppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_dropped_total",
			Help:      "Total number of upstream rows dropped for missing identity.",
		}),
		erroredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "sync_errored_total",
			Help:      "Total number of records that failed to persist during a run.",
		}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "presence",
			Name:      "sync_run_duration_seconds",
			Help:      "Duration distribution of reconciliation runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		runActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "presence",
			Name:      "sync_run_active",
			Help:      "Whether a reconciliation run is currently active (1/0).",
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
