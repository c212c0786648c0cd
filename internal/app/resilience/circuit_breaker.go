// Package resilience provides the health-tracking and backoff primitives the
// job orchestrator builds on: a per-provider circuit breaker and an
// exponential retry ladder.
package resilience

import (
	"strings"
	"sync"
	"time"
)

// State represents the health state of a single provider's circuit.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests until the cooldown elapses.
	StateOpen
	// StateHalfOpen admits a single probe to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitSnapshot is a point-in-time view of one provider's circuit.
type CircuitSnapshot struct {
	Provider            string    `json:"provider"`
	State               State     `json:"-"`
	StateName           string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	OpenedUntil         time.Time `json:"opened_until,omitempty"`
}

// CircuitBreakerConfig configures the shared per-provider circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive retryable failures that
	// opens a provider's circuit.
	FailureThreshold int
	// Cooldown is how long an open circuit blocks traffic before admitting a
	// probe.
	Cooldown time.Duration
	// Clock supplies the current time. Defaults to time.Now.
	Clock func() time.Time
	// OnStateChange is called when a provider's circuit changes state.
	OnStateChange func(provider string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		Cooldown:         60 * time.Second,
	}
}

// CircuitBreaker tracks health per provider name. Providers are created
// lazily on first touch in the closed state with zero failures; names are
// case-normalized so "Soniox" and "soniox" share a circuit.
//
// States:
//   - Closed: requests pass through, failures are counted
//   - Open: requests are blocked until the cooldown elapses
//   - Half-open: exactly one probe is admitted; its outcome decides
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	circuits map[string]*circuit
}

type circuit struct {
	state               State
	consecutiveFailures int
	openedUntil         time.Time
}

// NewCircuitBreaker creates a circuit breaker shared across providers.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 60 * time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &CircuitBreaker{
		config:   config,
		circuits: make(map[string]*circuit),
	}
}

// CanExecute reports whether an attempt against the provider may proceed.
// When an open circuit's cooldown has elapsed, the call transitions the
// circuit to half-open and admits the caller as the single probe; subsequent
// callers are blocked until the probe reports an outcome.
func (cb *CircuitBreaker) CanExecute(provider string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	name := normalizeProvider(provider)
	c := cb.circuit(name)

	switch c.state {
	case StateClosed:
		return true
	case StateOpen:
		if !cb.config.Clock().Before(c.openedUntil) {
			cb.toState(name, c, StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		// The probe slot is already taken.
		return false
	default:
		return false
	}
}

// OnSuccess records a successful attempt and unconditionally closes the
// provider's circuit.
func (cb *CircuitBreaker) OnSuccess(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	name := normalizeProvider(provider)
	c := cb.circuit(name)
	c.consecutiveFailures = 0
	cb.toState(name, c, StateClosed)
}

// OnFailure records a failed attempt. Reaching the failure threshold opens
// the circuit for a fresh cooldown; a failed half-open probe re-evaluates the
// threshold the same way, so it reopens immediately.
func (cb *CircuitBreaker) OnFailure(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	name := normalizeProvider(provider)
	c := cb.circuit(name)
	c.consecutiveFailures++
	if c.consecutiveFailures >= cb.config.FailureThreshold {
		c.openedUntil = cb.config.Clock().Add(cb.config.Cooldown)
		cb.toState(name, c, StateOpen)
	}
}

// Snapshot returns the current view of a provider's circuit without
// triggering any state transition.
func (cb *CircuitBreaker) Snapshot(provider string) CircuitSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	name := normalizeProvider(provider)
	c := cb.circuit(name)
	return CircuitSnapshot{
		Provider:            name,
		State:               c.state,
		StateName:           c.state.String(),
		ConsecutiveFailures: c.consecutiveFailures,
		OpenedUntil:         c.openedUntil,
	}
}

// Snapshots returns the view of every provider touched so far.
func (cb *CircuitBreaker) Snapshots() []CircuitSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	snapshots := make([]CircuitSnapshot, 0, len(cb.circuits))
	for name, c := range cb.circuits {
		snapshots = append(snapshots, CircuitSnapshot{
			Provider:            name,
			State:               c.state,
			StateName:           c.state.String(),
			ConsecutiveFailures: c.consecutiveFailures,
			OpenedUntil:         c.openedUntil,
		})
	}
	return snapshots
}

// circuit returns the provider's circuit, creating it lazily. Callers must
// hold cb.mu.
func (cb *CircuitBreaker) circuit(name string) *circuit {
	c, ok := cb.circuits[name]
	if !ok {
		c = &circuit{state: StateClosed}
		cb.circuits[name] = c
	}
	return c
}

// toState transitions a circuit, firing the state-change callback once per
// actual change. Callers must hold cb.mu.
func (cb *CircuitBreaker) toState(name string, c *circuit, to State) {
	if c.state == to {
		return
	}
	from := c.state
	c.state = to

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(name, from, to)
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
