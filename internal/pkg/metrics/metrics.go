// Package metrics exposes Prometheus collectors for flow runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	flowRuns     *prometheus.CounterVec
	flowDuration *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	indexed      *prometheus.CounterVec
}

// New registers collectors on a private registry so several instances can coexist in tests
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		flowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flows",
			Name:      "runs_total",
			Help:      "Flow invocations by flow and outcome.",
		}, []string{"flow", "outcome"}),
		flowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flows",
			Name:      "run_duration_seconds",
			Help:      "Flow run latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"flow"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flows",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		indexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flows",
			Name:      "indexed_documents_total",
			Help:      "Documents appended to a vector index.",
		}, []string{"index"}),
	}
	reg.MustRegister(m.flowRuns, m.flowDuration, m.toolCalls, m.indexed)

	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFlow records one flow run
func (m *Metrics) ObserveFlow(flow string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.flowRuns.WithLabelValues(flow, outcome(err)).Inc()
	m.flowDuration.WithLabelValues(flow).Observe(time.Since(started).Seconds())
}

// ObserveTool records one tool call
func (m *Metrics) ObserveTool(tool string, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

// AddIndexed counts documents written to an index
func (m *Metrics) AddIndexed(index string, n int) {
	if m == nil {
		return
	}
	m.indexed.WithLabelValues(index).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
