package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "seriesdash"

// Metrics holds the Prometheus collectors for forecast runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Runs           *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	MethodResults  *prometheus.CounterVec
	MethodDuration *prometheus.HistogramVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	Observations   prometheus.Histogram
	EventFailures  prometheus.Counter
}

// New creates the collectors on a private registry together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_runs_total",
			Help:      "Forecast runs by final state",
		}, []string{"state"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_run_duration_seconds",
			Help:      "Wall time of a forecast run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		MethodResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "method_results_total",
			Help:      "Per-method outcomes; code is ok or the warning code",
		}, []string{"method", "code"}),
		MethodDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "method_duration_seconds",
			Help:      "Fit and predict time per method",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"method"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Forecast runs served from the result cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Forecast runs computed from scratch",
		}),
		Observations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_observations",
			Help:      "Observations per analysed series",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
		}),
		EventFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_event_publish_failures_total",
			Help:      "Run events that could not be published",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(state string, d time.Duration, observations int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(state).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.Observations.Observe(float64(observations))
}

// ObserveMethod records one method's outcome. code is "ok" on success.
func (m *Metrics) ObserveMethod(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.MethodResults.WithLabelValues(method, code).Inc()
	m.MethodDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// EventPublishFailed counts a dropped run event.
func (m *Metrics) EventPublishFailed() {
	if m == nil {
		return
	}
	m.EventFailures.Inc()
}
