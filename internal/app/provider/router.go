// Package provider selects which transcription vendor an attempt goes to.
// The router orders the configured candidates and filters them through the
// per-provider circuit breaker; failure reporting is classified first so only
// transient conditions count against a provider's health.
package provider

import (
	"strings"

	"github.com/samber/lo"

	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
)

// DefaultProviderName is used when configuration yields no candidates at all.
const DefaultProviderName = "soniox"

// ErrNoProviderAvailable signals that every candidate's circuit is open. The
// caller must surface this to the job as a retry-later outcome, not swallow
// it.
var ErrNoProviderAvailable = apperrors.New("no provider available: all circuits open")

// ConfigSource supplies the current provider configuration. It is read fresh
// on every Candidates call so live settings changes take effect immediately.
type ConfigSource interface {
	DefaultProvider() string
	FallbackProviders() []string
}

// Router orders candidate providers and gates them by circuit health.
type Router struct {
	config  ConfigSource
	breaker *resilience.CircuitBreaker
	metrics *Metrics
}

// NewRouter creates a router over the given configuration and breaker.
// metrics may be nil.
func NewRouter(config ConfigSource, breaker *resilience.CircuitBreaker, metrics *Metrics) *Router {
	return &Router{
		config:  config,
		breaker: breaker,
		metrics: metrics,
	}
}

// Candidates returns the ordered provider list: the configured default
// first, then the fallbacks in configured order, de-duplicated by
// case-insensitive name while preserving first occurrence. An empty
// configuration falls back to the hard-coded default.
func (r *Router) Candidates() []string {
	names := make([]string, 0, 1+len(r.config.FallbackProviders()))
	names = append(names, r.config.DefaultProvider())
	names = append(names, r.config.FallbackProviders()...)

	names = lo.FilterMap(names, func(name string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(name)
		return trimmed, trimmed != ""
	})
	names = lo.UniqBy(names, strings.ToLower)

	if len(names) == 0 {
		return []string{DefaultProviderName}
	}
	return names
}

// Select returns the first candidate whose circuit admits an attempt, or
// ErrNoProviderAvailable when every circuit is open.
func (r *Router) Select() (string, error) {
	for _, name := range r.Candidates() {
		if r.breaker.CanExecute(name) {
			if r.metrics != nil {
				r.metrics.RecordSelection(name)
			}
			return name, nil
		}
	}
	return "", ErrNoProviderAvailable
}

// RecordSuccess reports a successful attempt against the provider.
func (r *Router) RecordSuccess(provider string) {
	r.breaker.OnSuccess(provider)
	if r.metrics != nil {
		r.metrics.RecordSuccess(provider)
	}
}

// RecordFailure classifies the failure and returns its category. Only
// retryable categories count against the provider's circuit: bad credentials
// or exhausted quotas are not evidence of transient unavailability.
func (r *Router) RecordFailure(provider string, errorMessage string) apperrors.Category {
	category := apperrors.Classify(errorMessage)
	if apperrors.IsRetryable(category) {
		r.breaker.OnFailure(provider)
	}
	if r.metrics != nil {
		r.metrics.RecordFailure(provider, string(category))
	}
	return category
}

// Health returns the circuit snapshot for every candidate provider.
func (r *Router) Health() []resilience.CircuitSnapshot {
	candidates := r.Candidates()
	snapshots := make([]resilience.CircuitSnapshot, 0, len(candidates))
	for _, name := range candidates {
		snapshots = append(snapshots, r.breaker.Snapshot(name))
	}
	return snapshots
}
