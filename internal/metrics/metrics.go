// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "claims"

// Upload results.
const (
	ResultAccepted  = "accepted"
	ResultRejected  = "rejected"
	ResultMalformed = "malformed"
)

// Collectors groups the service metrics. A nil *Collectors is valid and
// records nothing, so packages can be used without a registry.
type Collectors struct {
	uploads        *prometheus.CounterVec
	uploadRows     prometheus.Histogram
	queries        *prometheus.CounterVec
	exports        *prometheus.CounterVec
	activeSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a fresh registry, which
// also carries the Go runtime and process collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Collectors {
	c := &Collectors{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by outcome.",
		}, []string{"result"}),
		uploadRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_rows",
			Help:      "Rows per accepted upload.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Dashboard queries by kind.",
		}, []string{"kind"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format.",
		}, []string{"format"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently holding a dataset.",
		}),
		gatherer: g,
	}
	reg.MustRegister(c.uploads, c.uploadRows, c.queries, c.exports, c.activeSessions)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveUpload records one upload. rows is only recorded for accepted files.
func (c *Collectors) ObserveUpload(result string, rows int) {
	if c == nil {
		return
	}
	c.uploads.WithLabelValues(result).Inc()
	if result == ResultAccepted {
		c.uploadRows.Observe(float64(rows))
	}
}

func (c *Collectors) ObserveQuery(kind string) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(kind).Inc()
}

func (c *Collectors) ObserveExport(format string) {
	if c == nil {
		return
	}
	c.exports.WithLabelValues(format).Inc()
}

func (c *Collectors) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.activeSessions.Set(float64(n))
}
