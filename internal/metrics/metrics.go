// Package metrics exposes Prometheus instrumentation for the trigger
// pipeline: tick timing, feed health, and execution outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_ticks_total",
		Help: "Number of completed evaluation ticks.",
	})

	TicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_ticks_skipped_total",
		Help: "Ticks skipped because the previous tick was still running.",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trigger_tick_duration_seconds",
		Help:    "Wall time of one evaluation tick.",
		Buckets: prometheus.DefBuckets,
	})

	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_feed_requests_total",
		Help: "Upstream market-summary fetches by result.",
	}, []string{"result"})

	FeedCacheServes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_feed_cache_serves_total",
		Help: "Fetches answered from the quote cache without a network call.",
	})

	OrdersEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_orders_evaluated_total",
		Help: "Per-order evaluations performed.",
	})

	OrdersTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_orders_triggered_total",
		Help: "Orders whose trigger condition fired.",
	})

	Executions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_executions_total",
		Help: "Executor invocations by result.",
	}, []string{"executor", "result"})

	Observers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trigger_ws_observers",
		Help: "Currently connected notification observers.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_events_dropped_total",
		Help: "Events dropped because an observer was not ready.",
	})
)

// StartMetricsServer serves /metrics on addr in a background goroutine.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
