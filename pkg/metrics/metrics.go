// Package metrics exposes Prometheus collectors for formula parsing and
// evaluation.
//
// Collectors are registered on the Registerer passed to New, never on the
// global default, so several engines can coexist in one process. All
// methods are safe on a nil *Metrics, which is how instrumentation is
// switched off.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sandrolain/xlformula/pkg/types"
)

const namespace = "xlformula"

// Metrics groups the collectors.
type Metrics struct {
	parses      *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	calls       *prometheus.CounterVec
	duration    prometheus.Histogram
	cache       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. It panics if a
// collector with the same name is already registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		parses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Formulas parsed, by status (ok, error).",
		}, []string{"status"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Formulas evaluated, by status (ok, error).",
		}, []string{"status"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_results_total",
			Help:      "Evaluations that produced an error value, by error code.",
		}, []string{"code"}),
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "function_calls_total",
			Help:      "Function invocations, by function and status (ok, error, unknown).",
		}, []string{"function", "status"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of a single evaluation.",
			Buckets:   []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2, 0.1},
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Parsed expression cache lookups, by result (hit, miss).",
		}, []string{"result"}),
	}
}

func status(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}

// ObserveParse counts one parse.
func (m *Metrics) ObserveParse(ok bool) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(status(!ok)).Inc()
}

// ObserveEvaluation counts one evaluation and records its duration.
// Error results are also counted per code.
func (m *Metrics) ObserveEvaluation(result types.Value, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(status(result.IsError())).Inc()
	if result.IsError() {
		m.errors.WithLabelValues(result.Err().String()).Inc()
	}
	m.duration.Observe(d.Seconds())
}

// ObserveCall counts one function invocation.
func (m *Metrics) ObserveCall(name string, result types.Value) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(name, status(result.IsError())).Inc()
}

// ObserveUnknownFunction counts a call to a name missing from the registry.
func (m *Metrics) ObserveUnknownFunction(name string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(name, "unknown").Inc()
}

// CacheHit counts a cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("hit").Inc()
}

// CacheMiss counts a cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}
