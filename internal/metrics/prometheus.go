package metrics

import (
	"cafe-calorie/internal/planner"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are the Prometheus instruments for the planner.
type Collectors struct {
	Runs        *prometheus.CounterVec
	Evaluations prometheus.Histogram
	Duration    prometheus.Histogram
	Truncated   prometheus.Counter
}

// NewCollectors creates the collectors and registers them with reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_runs_total",
			Help: "Meal plans generated, by the search tier that produced them.",
		}, []string{"tier"}),
		Evaluations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_search_evaluations",
			Help:    "Combinations scored per plan.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_run_duration_seconds",
			Help:    "Time spent generating a plan.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		Truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_search_truncated_total",
			Help: "Searches stopped by the evaluation cap.",
		}),
	}
	reg.MustRegister(c.Runs, c.Evaluations, c.Duration, c.Truncated)
	return c
}

// Observe records m.
func (c *Collectors) Observe(m RunMetric) {
	tier := m.Tier
	if tier == "" {
		tier = planner.TierEmpty
	}
	c.Runs.WithLabelValues(string(tier)).Inc()
	c.Evaluations.Observe(float64(m.Evaluations))
	c.Duration.Observe(m.Latency.Seconds())
	if m.Truncated {
		c.Truncated.Inc()
	}
}
