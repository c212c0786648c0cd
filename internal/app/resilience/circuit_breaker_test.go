package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source for deterministic cooldown
// tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(threshold int, cooldown time.Duration, clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		Cooldown:         cooldown,
		Clock:            clock.Now,
	})
}

func TestCircuitBreaker_UnknownProviderIsClosed(t *testing.T) {
	cb := newTestBreaker(3, time.Minute, newFakeClock())

	assert.True(t, cb.CanExecute("soniox"))
	snap := cb.Snapshot("soniox")
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
}

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	cb := newTestBreaker(3, time.Minute, newFakeClock())

	cb.OnFailure("soniox")
	cb.OnFailure("soniox")

	assert.True(t, cb.CanExecute("soniox"))
	assert.Equal(t, StateClosed, cb.Snapshot("soniox").State)
	assert.Equal(t, 2, cb.Snapshot("soniox").ConsecutiveFailures)
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		cb.OnFailure("soniox")
	}

	assert.Equal(t, StateOpen, cb.Snapshot("soniox").State)
	assert.False(t, cb.CanExecute("soniox"))

	// Still blocked just before the cooldown elapses.
	clock.Advance(59 * time.Second)
	assert.False(t, cb.CanExecute("soniox"))
}

func TestCircuitBreaker_HalfOpenProbeAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		cb.OnFailure("soniox")
	}
	clock.Advance(time.Minute)

	// First caller after the cooldown is admitted as the probe.
	assert.True(t, cb.CanExecute("soniox"))
	assert.Equal(t, StateHalfOpen, cb.Snapshot("soniox").State)

	// The probe slot is taken; further callers are blocked.
	assert.False(t, cb.CanExecute("soniox"))
}

func TestCircuitBreaker_SuccessfulProbeCloses(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		cb.OnFailure("soniox")
	}
	clock.Advance(time.Minute)
	assert.True(t, cb.CanExecute("soniox"))

	cb.OnSuccess("soniox")

	snap := cb.Snapshot("soniox")
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.True(t, cb.CanExecute("soniox"))
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		cb.OnFailure("soniox")
	}
	clock.Advance(time.Minute)
	assert.True(t, cb.CanExecute("soniox"))

	// The failed probe reopens for a fresh cooldown.
	cb.OnFailure("soniox")
	assert.Equal(t, StateOpen, cb.Snapshot("soniox").State)
	assert.False(t, cb.CanExecute("soniox"))

	clock.Advance(time.Minute)
	assert.True(t, cb.CanExecute("soniox"))
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(3, time.Minute, newFakeClock())

	cb.OnFailure("soniox")
	cb.OnFailure("soniox")
	cb.OnSuccess("soniox")
	cb.OnFailure("soniox")
	cb.OnFailure("soniox")

	// Two failures after the reset is still below the threshold.
	assert.Equal(t, StateClosed, cb.Snapshot("soniox").State)
	assert.True(t, cb.CanExecute("soniox"))
}

func TestCircuitBreaker_ProvidersAreIndependent(t *testing.T) {
	cb := newTestBreaker(2, time.Minute, newFakeClock())

	cb.OnFailure("soniox")
	cb.OnFailure("soniox")

	assert.False(t, cb.CanExecute("soniox"))
	assert.True(t, cb.CanExecute("mistral_async"))
}

func TestCircuitBreaker_NamesAreCaseNormalized(t *testing.T) {
	cb := newTestBreaker(2, time.Minute, newFakeClock())

	cb.OnFailure("Soniox")
	cb.OnFailure(" SONIOX ")

	assert.False(t, cb.CanExecute("soniox"))
	assert.Equal(t, 2, cb.Snapshot("soniox").ConsecutiveFailures)
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		Clock:            clock.Now,
		OnStateChange: func(provider string, from, to State) {
			transitions = append(transitions, provider+":"+from.String()+"->"+to.String())
		},
	})

	cb.OnFailure("soniox")
	cb.OnFailure("soniox")
	clock.Advance(time.Minute)
	cb.CanExecute("soniox")
	cb.OnSuccess("soniox")

	assert.Equal(t, []string{
		"soniox:closed->open",
		"soniox:open->half_open",
		"soniox:half_open->closed",
	}, transitions)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := newTestBreaker(100, time.Minute, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cb.CanExecute("soniox")
				cb.OnFailure("soniox")
				cb.OnSuccess("soniox")
				cb.Snapshot("soniox")
			}
		}()
	}
	wg.Wait()

	assert.True(t, cb.CanExecute("soniox"))
}
