// Package observability holds the Prometheus metrics collector for the
// concept graph service.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph mutation metrics
	Mutations  *prometheus.CounterVec
	Rejections *prometheus.CounterVec
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	// Lexicon metrics
	LexiconLookups *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Total number of graph mutation attempts",
		},
		[]string{"operation", "status"},
	)

	rejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutation_rejections_total",
			Help:      "Total number of rejected graph mutations by reason",
		},
		[]string{"reason"},
	)

	graphNodes := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Current number of concepts in the graph",
		},
	)

	graphEdges := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Current number of relations in the graph",
		},
	)

	lexiconLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lexicon_lookups_total",
			Help:      "Total number of lexicon oracle lookups",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		mutations,
		rejections,
		graphNodes,
		graphEdges,
		lexiconLookups,
	)

	globalCollector = &Collector{
		registry:       registry,
		HTTPRequests:   httpRequests,
		HTTPDuration:   httpDuration,
		Mutations:      mutations,
		Rejections:     rejections,
		GraphNodes:     graphNodes,
		GraphEdges:     graphEdges,
		LexiconLookups: lexiconLookups,
	}
	return globalCollector
}

// Registry returns the prometheus registry backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordMutation records one mutation attempt and its outcome.
func (c *Collector) RecordMutation(operation string, err error, reason string) {
	status := "accepted"
	if err != nil {
		status = "rejected"
		c.Rejections.WithLabelValues(reason).Inc()
	}
	c.Mutations.WithLabelValues(operation, status).Inc()
}

// SetGraphSize updates the node and edge gauges.
func (c *Collector) SetGraphSize(nodes, edges int) {
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}
