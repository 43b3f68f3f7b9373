package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and persistence activity.
type CartMetrics struct {
	actions      *prometheus.CounterVec
	flushLatency prometheus.Histogram
	checkouts    *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder, which keeps tests quiet.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_actions_total",
		Help: "Cart reducer actions applied, by action type.",
	}, []string{"action"})
	flushLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_persist_flush_seconds",
		Help:    "Latency of debounced cart persistence writes.",
		Buckets: prometheus.DefBuckets,
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(actions, flushLatency, checkouts)
	return &CartMetrics{
		actions:      actions,
		flushLatency: flushLatency,
		checkouts:    checkouts,
	}
}

// IncAction counts one reducer action.
func (c *CartMetrics) IncAction(action string) {
	if c == nil || c.actions == nil {
		return
	}
	c.actions.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveFlush records one persistence write duration.
func (c *CartMetrics) ObserveFlush(duration time.Duration) {
	if c == nil || c.flushLatency == nil {
		return
	}
	c.flushLatency.Observe(duration.Seconds())
}

// IncCheckout counts one checkout submission outcome.
func (c *CartMetrics) IncCheckout(outcome string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
