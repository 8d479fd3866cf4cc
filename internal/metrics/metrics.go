// Package metrics declares the Prometheus collectors shared across areo.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation
var (
	// ReconcilePasses counts reconciler passes over the engine layer stack.
	ReconcilePasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "areo_reconcile_passes_total",
			Help: "Total reconciliation passes",
		},
	)

	// LiveLayers is the number of non-permanent layers installed by the last pass.
	LiveLayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "areo_live_layers",
			Help: "Imagery layers installed by the last reconciliation pass",
		},
	)
)

// Tile fetching
var (
	// TileFetches counts tile fetches by outcome (hit, stale, miss, error).
	TileFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "areo_tile_fetches_total",
			Help: "Tile fetches by cache outcome",
		},
		[]string{"outcome"},
	)

	// TileFetchDuration tracks upstream tile request latency in seconds.
	TileFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "areo_tile_fetch_duration_seconds",
			Help:    "Upstream tile request duration in seconds",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Tile daemon
var (
	// TilesServed counts tile responses by layer and status code class.
	TilesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "areo_tiles_served_total",
			Help: "Tiles served by the proxy daemon by layer and status",
		},
		[]string{"layer", "status"},
	)
)
