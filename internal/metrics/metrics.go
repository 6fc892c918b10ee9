// Package metrics exposes Prometheus collectors for recommendation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the recommendation collectors and the private registry they
// are registered on. It implements flowrec.Observer.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal    prometheus.Counter
	runLines     prometheus.Histogram
	runDuration  prometheus.Histogram
	lookupsTotal *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowrec_runs_total",
			Help: "Total number of recommendation runs",
		}),
		runLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowrec_run_lines",
			Help:    "Number of non-empty input lines per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowrec_run_duration_seconds",
			Help:    "Time taken by a recommendation run",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowrec_lookups_total",
			Help: "Reference table lookups by result",
		}, []string{"result"}), // result: hit, miss
	}
	for _, c := range []prometheus.Collector{m.runsTotal, m.runLines, m.runDuration, m.lookupsTotal} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(lines int, elapsed time.Duration) {
	m.runsTotal.Inc()
	m.runLines.Observe(float64(lines))
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveLookup records one table lookup.
func (m *Metrics) ObserveLookup(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.lookupsTotal.WithLabelValues(result).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
