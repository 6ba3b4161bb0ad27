// Package metrics instruments view resolution with Prometheus collectors.
//
// Collectors are registered on the registerer passed to New, never on the
// global default registry, so several coordinators (and tests) can coexist
// in one process. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request kinds.
const (
	KindSet  = "set"
	KindType = "type"
)

// Request outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeComputed = "computed"
	OutcomeNone     = "none"
	OutcomeError    = "error"
)

// Bundle validation outcomes.
const (
	BundleTrusted   = "trusted"
	BundleStale     = "stale"
	BundleMalformed = "malformed"
	BundleSkipped   = "skipped"
)

// Synthesis scopes.
const (
	ScopeContainer = "container"
	ScopeType      = "type"
)

// Metrics holds the coordinator's collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	syntheses   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bundles     *prometheus.CounterVec
	cachedViews prometheus.Gauge
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapview_view_requests_total",
			Help: "View requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		syntheses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapview_syntheses_total",
			Help: "View synthesizer invocations by scope",
		}, []string{"scope"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapview_synthesis_duration_seconds",
			Help:    "Duration of view synthesizer invocations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25, 1},
		}, []string{"scope"}),
		bundles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapview_bundle_validations_total",
			Help: "Precompiled bundle validations by outcome",
		}, []string{"outcome"}),
		cachedViews: f.NewGauge(prometheus.GaugeOpts{
			Name: "mapview_cached_views",
			Help: "Views resolved and cached by the coordinator",
		}),
	}
}

// Request counts one view request.
func (m *Metrics) Request(kind, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, outcome).Inc()
}

// Synthesis counts one synthesizer invocation and returns a function that
// records its duration when called.
func (m *Metrics) Synthesis(scope string) func() {
	if m == nil {
		return func() {}
	}
	m.syntheses.WithLabelValues(scope).Inc()
	timer := prometheus.NewTimer(m.duration.WithLabelValues(scope))
	return func() { timer.ObserveDuration() }
}

// Bundle counts one bundle validation.
func (m *Metrics) Bundle(outcome string) {
	if m == nil {
		return
	}
	m.bundles.WithLabelValues(outcome).Inc()
}

// Cached adds n newly cached views.
func (m *Metrics) Cached(n int) {
	if m == nil {
		return
	}
	m.cachedViews.Add(float64(n))
}
