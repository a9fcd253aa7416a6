// Package metrics holds the process-wide Prometheus collectors. The API role
// exposes them at /metrics; the refresher only increments cycle counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxproxy_http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"route", "status"})

	// HTTPDuration tracks request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fxproxy_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// RefreshCycles counts refresher outcomes.
	RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxproxy_refresh_cycles_total",
		Help: "Refresh cycles, by outcome.",
	}, []string{"outcome"})

	// RatesPublished is the size of the last published rate table.
	RatesPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxproxy_rates_published",
		Help: "Rates written to the store by the last successful cycle.",
	})

	// SnapshotSyncs counts snapshot sync attempts on the API role.
	SnapshotSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxproxy_snapshot_syncs_total",
		Help: "Snapshot sync attempts, by outcome.",
	}, []string{"outcome"})

	// SnapshotLastSync is the unix time of the last successful snapshot swap.
	SnapshotLastSync = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxproxy_snapshot_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful snapshot sync.",
	})

	// SnapshotRates is the size of the in-process snapshot.
	SnapshotRates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxproxy_snapshot_rates",
		Help: "Rates held in the in-process snapshot.",
	})
)
