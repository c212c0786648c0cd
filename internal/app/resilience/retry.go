package resilience

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is the orchestrator's retry ladder: how many attempts a job
// gets and how long to wait between them. The ledger and scheduler only
// record and execute the decisions this policy produces.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts per job (including the
	// first).
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" json:"max_backoff"`
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64 `yaml:"backoff_factor" json:"backoff_factor"`
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" json:"jitter"`
}

// DefaultRetryPolicy returns sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
		BackoffFactor:  3.0,
		Jitter:         0.2,
	}
}

// Exhausted reports whether a job that has already made the given number of
// attempts gets no further retry.
func (p RetryPolicy) Exhausted(attempts int) bool {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return attempts >= maxAttempts
}

// BackoffFor calculates the delay before the next attempt, given how many
// attempts have already been made (>= 1). The result is exponential in the
// attempt count, jittered, and capped at MaxBackoff.
func (p RetryPolicy) BackoffFor(attempts int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = 5 * time.Second
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2.0
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 10 * time.Minute
	}
	if attempts < 1 {
		attempts = 1
	}

	backoff := float64(initial) * math.Pow(factor, float64(attempts-1))

	if p.Jitter > 0 {
		jitterRange := backoff * p.Jitter
		backoff += (rand.Float64()*2 - 1) * jitterRange
	}

	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	if backoff < 0 {
		backoff = float64(initial)
	}

	return time.Duration(backoff)
}
