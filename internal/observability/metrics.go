package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus counters/histograms the loop and tool
// dispatcher update as a run progresses.
type Metrics struct {
	TurnsTotal       prometheus.Counter
	ToolCallsTotal   *prometheus.CounterVec
	ToolErrorsTotal  *prometheus.CounterVec
	ToolDuration     *prometheus.HistogramVec
	CompactionsTotal prometheus.Counter
	TerminationsTotal *prometheus.CounterVec
}

// NewMetrics registers a fresh set of collectors against reg. Passing a
// dedicated registry (rather than the global default) keeps repeated
// test construction from panicking on duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeagent_turns_total",
			Help: "Total number of agent loop turns executed.",
		}),
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeagent_tool_calls_total",
			Help: "Total tool invocations by tool name.",
		}, []string{"tool"}),
		ToolErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeagent_tool_errors_total",
			Help: "Total tool invocations that returned an error, by tool name and error code.",
		}, []string{"tool", "code"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codeagent_tool_duration_seconds",
			Help:    "Tool invocation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		CompactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codeagent_compactions_total",
			Help: "Total number of context compaction passes triggered.",
		}),
		TerminationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeagent_terminations_total",
			Help: "Total loop terminations by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.TurnsTotal, m.ToolCallsTotal, m.ToolErrorsTotal, m.ToolDuration, m.CompactionsTotal, m.TerminationsTotal)
	return m
}
