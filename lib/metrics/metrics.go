// Package metrics exposes annotation counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "infection_annotator"

// Stage labels for Errors.
const (
	StageDecode   = "decode"
	StageAnnotate = "annotate"
	StageCache    = "cache"
)

// Metrics is safe for concurrent use. Each instance has its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Documents  prometheus.Counter
	Infections *prometheus.CounterVec
	CacheHits  *prometheus.CounterVec
	CacheMiss  prometheus.Counter
	Errors     *prometheus.CounterVec
	Latency    prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents annotated, including cache hits.",
		}),
		Infections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "infections_total",
			Help:      "Infection spans emitted, by trigger attribute.",
		}, []string{"attribute"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Annotations served from a cache.",
		}, []string{"cache"}),
		CacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Annotations computed because no cache had them.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failures by stage.",
		}, []string{"stage"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotation_duration_seconds",
			Help:      "Time to annotate one document, excluding cache hits.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
	m.registry.MustRegister(
		m.Documents, m.Infections, m.CacheHits, m.CacheMiss, m.Errors, m.Latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSince records the time elapsed since start.
func (m *Metrics) ObserveSince(start time.Time) {
	m.Latency.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
