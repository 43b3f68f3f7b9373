package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JanitorMetrics records the periodic cleanup cycles.
type JanitorMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewJanitorMetrics registers the janitor metrics. A nil registerer yields a
// no-op recorder.
func NewJanitorMetrics(reg prometheus.Registerer) *JanitorMetrics {
	if reg == nil {
		return &JanitorMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "janitor_runs_total",
		Help: "Janitor job executions by job and result.",
	}, []string{"job", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "janitor_run_seconds",
		Help:    "Duration of janitor job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(runs, duration)
	return &JanitorMetrics{runs: runs, duration: duration}
}

func (j *JanitorMetrics) IncSuccess(job string) {
	if j == nil || j.runs == nil {
		return
	}
	j.runs.WithLabelValues(normalizeLabel(job), "success").Inc()
}

func (j *JanitorMetrics) IncFailure(job string) {
	if j == nil || j.runs == nil {
		return
	}
	j.runs.WithLabelValues(normalizeLabel(job), "failure").Inc()
}

func (j *JanitorMetrics) ObserveDuration(job string, d time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}
