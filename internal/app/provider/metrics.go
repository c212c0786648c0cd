package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes provider routing outcomes to Prometheus.
type Metrics struct {
	selections *prometheus.CounterVec
	successes  *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewMetrics registers the provider metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		selections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scriber",
			Subsystem: "provider",
			Name:      "selections_total",
			Help:      "Number of times a provider was selected for an attempt.",
		}, []string{"provider"}),
		successes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scriber",
			Subsystem: "provider",
			Name:      "successes_total",
			Help:      "Number of successful attempts per provider.",
		}, []string{"provider"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scriber",
			Subsystem: "provider",
			Name:      "failures_total",
			Help:      "Number of failed attempts per provider and error category.",
		}, []string{"provider", "category"}),
	}
}

// RecordSelection counts a routing decision.
func (m *Metrics) RecordSelection(provider string) {
	m.selections.WithLabelValues(provider).Inc()
}

// RecordSuccess counts a successful attempt.
func (m *Metrics) RecordSuccess(provider string) {
	m.successes.WithLabelValues(provider).Inc()
}

// RecordFailure counts a failed attempt by error category.
func (m *Metrics) RecordFailure(provider string, category string) {
	m.failures.WithLabelValues(provider, category).Inc()
}
