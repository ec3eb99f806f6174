package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records outcomes of debounced cart pushes to the backend.
type CartSyncMetrics struct {
	duration *prometheus.HistogramVec
	fired    prometheus.Counter
	stale    prometheus.Counter
	failed   prometheus.Counter
}

// NewCartSyncMetrics registers the cart sync metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_sync_duration_seconds",
		Help:    "Duration of cart sync requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	fired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_fired_total",
		Help: "Debounce windows that elapsed and triggered a sync.",
	})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_stale_dropped_total",
		Help: "Sync completions discarded because a newer version had fired.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_failed_total",
		Help: "Sync requests that returned an error.",
	})
	reg.MustRegister(duration, fired, stale, failed)
	return &CartSyncMetrics{
		duration: duration,
		fired:    fired,
		stale:    stale,
		failed:   failed,
	}
}

// ObserveDuration records how long a sync attempt took.
func (c *CartSyncMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncFired increments the fired-sync counter.
func (c *CartSyncMetrics) IncFired() {
	if c == nil || c.fired == nil {
		return
	}
	c.fired.Inc()
}

// IncStaleDropped increments the stale-completion counter.
func (c *CartSyncMetrics) IncStaleDropped() {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Inc()
}

// IncFailed increments the failed-sync counter.
func (c *CartSyncMetrics) IncFailed() {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.Inc()
}
