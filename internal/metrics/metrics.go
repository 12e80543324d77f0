package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaervarsel_upstream_calls_total",
			Help: "Total upstream API calls by service and outcome",
		},
		[]string{"service", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaervarsel_upstream_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaervarsel_refreshes_total",
			Help: "Forecast refreshes by outcome (published, stale, failed)",
		},
		[]string{"outcome"},
	)

	NowcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vaervarsel_nowcast_failures_total",
			Help: "Nowcast fetches that failed without failing the refresh",
		},
	)

	GeocodeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaervarsel_geocode_cache_lookups_total",
			Help: "Reverse geocode cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	SnapshotFetchedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vaervarsel_snapshot_fetched_timestamp_seconds",
			Help: "Unix time of the currently published forecast snapshot",
		},
	)
)
