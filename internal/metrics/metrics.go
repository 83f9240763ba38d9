// Package metrics exposes Prometheus collectors for model calls, fallback,
// assignment validation and content extraction. A nil *Collector is valid
// and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moose"

// Collector owns a private registry so tests and the server never share
// global state.
type Collector struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	fallbackAdvances *prometheus.CounterVec
	organizeAttempts *prometheus.CounterVec
	extractions      *prometheus.CounterVec
	pipelineRuns     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Model requests by provider, model and outcome kind.",
		}, []string{"provider", "model", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Model request latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		fallbackAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_advances_total",
			Help:      "Free-tier candidate advances by failure kind.",
		}, []string{"provider", "kind"}),
		organizeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "organize_attempts_total",
			Help:      "Assignment attempts by result.",
		}, []string{"result"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Tab extractions by category.",
		}, []string{"category"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Enriched pipeline runs by final phase.",
		}, []string{"phase"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		c.providerRequests,
		c.providerLatency,
		c.fallbackAdvances,
		c.organizeAttempts,
		c.extractions,
		c.pipelineRuns,
	)
	return c
}

// ObserveRequest records one model call. outcome is "ok" or an error kind.
func (c *Collector) ObserveRequest(provider, model, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.providerRequests.WithLabelValues(provider, model, outcome).Inc()
	c.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (c *Collector) FallbackAdvance(provider, kind string) {
	if c == nil {
		return
	}
	c.fallbackAdvances.WithLabelValues(provider, kind).Inc()
}

// OrganizeAttempt records an assignment attempt as "valid", "invalid" or "error".
func (c *Collector) OrganizeAttempt(result string) {
	if c == nil {
		return
	}
	c.organizeAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) Extraction(category string) {
	if c == nil {
		return
	}
	c.extractions.WithLabelValues(category).Inc()
}

func (c *Collector) PipelineRun(phase string) {
	if c == nil {
		return
	}
	c.pipelineRuns.WithLabelValues(phase).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
