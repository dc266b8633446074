package stats

import (
	"context"
	"net/http"
	"strings"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status delle esecuzioni e delle invocazioni dei tool
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// Metrics espone metriche in formato Prometheus su un registry dedicato
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns    *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	toolInvocations *prometheus.CounterVec
	tokensProcessed *prometheus.CounterVec
	runsInFlight    prometheus.Gauge
}

// NewMetrics crea le metriche; namespace vuoto usa "goleapsocial"
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "goleapsocial"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.pipelineRuns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by final status",
		},
		[]string{"status"},
	)

	m.taskDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of completed tasks in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"task"},
	)

	m.toolInvocations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Total number of tool invocations by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	m.tokensProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_processed_total",
			Help:      "Total number of LLM tokens processed",
		},
		[]string{"type"},
	)

	m.runsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing",
		},
	)

	return m
}

// Registry restituisce il registry Prometheus
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler restituisce l'handler HTTP per /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnEvent aggiorna le metriche dagli eventi della pipeline
func (m *Metrics) OnEvent(e chaining.Event) {
	switch e.Type {
	case chaining.EventPipelineStarted:
		m.runsInFlight.Inc()
	case chaining.EventTaskCompleted:
		m.taskDuration.WithLabelValues(e.Task).Observe(e.Duration.Seconds())
	case chaining.EventPipelineCompleted:
		m.runsInFlight.Dec()
		m.pipelineRuns.WithLabelValues(StatusSuccess).Inc()
	case chaining.EventPipelineFailed:
		m.runsInFlight.Dec()
		m.pipelineRuns.WithLabelValues(StatusFailed).Inc()
	}
}

// RecordRejected conta le esecuzioni rifiutate prima di costruire la pipeline
func (m *Metrics) RecordRejected() {
	m.pipelineRuns.WithLabelValues(StatusRejected).Inc()
}

// RecordUsage accumula i token consumati da un'esecuzione
func (m *Metrics) RecordUsage(u providers.Usage) {
	m.tokensProcessed.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	m.tokensProcessed.WithLabelValues("completion").Add(float64(u.CompletionTokens))
}

// ToolMiddleware conta le invocazioni dei tool classificandone l'esito dal testo
func (m *Metrics) ToolMiddleware() tools.Middleware {
	return func(t tools.Tool) tools.Tool {
		next := t.Fn
		name := t.Name
		t.Fn = func(ctx context.Context, input string) string {
			out := next(ctx, input)
			m.toolInvocations.WithLabelValues(name, toolStatus(out)).Inc()
			return out
		}
		return t
	}
}

func toolStatus(out string) string {
	switch {
	case strings.HasPrefix(out, tools.SearchErrorPrefix), strings.HasPrefix(out, tools.PostErrorPrefix):
		return StatusError
	case strings.HasPrefix(out, tools.MockSearchPrefix):
		return StatusDegraded
	default:
		return StatusSuccess
	}
}
