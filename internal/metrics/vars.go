package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ESIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbscan_esi_requests_total",
		Help: "ESI requests by operation and outcome (ok, transport, status)",
	}, []string{"op", "outcome"})

	ESILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbscan_esi_request_seconds",
		Help:    "ESI request latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_order_pages_fetched_total",
		Help: "Order book pages merged into a loaded book",
	})

	PagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_order_pages_failed_total",
		Help: "Order book pages dropped after a transport failure",
	})

	PagesAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_order_pages_abandoned_total",
		Help: "Order book pages not awaited because the scan was cancelled",
	})

	HistoryLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbscan_history_lookups_total",
		Help: "Per-item history lookups by source (cache, remote, failed)",
	}, []string{"source"})

	Cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbscan_cycles_total",
		Help: "Scan cycles by strategy and outcome (found, empty, cancelled)",
	}, []string{"strategy", "outcome"})

	Opportunities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbscan_cycle_opportunities",
		Help: "Opportunities produced by the last cycle of a strategy",
	}, []string{"strategy"})

	CycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbscan_cycle_seconds",
		Help:    "Wall time of one scan cycle",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"strategy"})
)

func init() {
	prometheus.MustRegister(
		ESIRequests,
		ESILatency,
		PagesFetched,
		PagesFailed,
		PagesAbandoned,
		HistoryLookups,
		Cycles,
		Opportunities,
		CycleDuration,
	)
}
