package saving

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the saving pipeline. A nil registerer yields working,
// unregistered collectors, which keeps tests free of global registry clashes.
type Metrics struct {
	QueueDepth    prometheus.Gauge
	Jobs          *prometheus.CounterVec
	AgentFailures *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "alfred_saving_queue_depth",
			Help: "Snapshot jobs currently queued.",
		}),
		Jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alfred_saving_jobs_total",
			Help: "Processed snapshot jobs by outcome.",
		}, []string{"outcome"}),
		AgentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alfred_saving_agent_failures_total",
			Help: "Storage agent write failures by agent.",
		}, []string{"agent"}),
	}
}

// Outcome labels for the Jobs counter.
const (
	outcomeCommitted = "committed"
	outcomeStale     = "stale"
	outcomeSkipped   = "skipped" // no agent activated at this level
	outcomeRescued   = "rescued" // failure agent had to step in
	outcomeLost      = "lost"    // every tier failed
)
