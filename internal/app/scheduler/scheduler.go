// Package scheduler provides the coalesced wake-up timer that drives delayed
// job retries. However many retries are pending, only one timer ever exists:
// repeated scheduling requests collapse to the earliest requested due time.
package scheduler

import (
	"sync"
	"time"
)

// RetryScheduler holds at most one outstanding timer. When the timer fires it
// clears its own state before invoking the trigger, so a trigger that
// reschedules does not race its own cleanup.
type RetryScheduler struct {
	trigger func()
	clock   func() time.Time

	mu         sync.Mutex
	timer      *time.Timer
	dueAt      time.Time
	generation uint64
}

// NewRetryScheduler creates a scheduler that invokes trigger asynchronously
// whenever the armed timer fires.
func NewRetryScheduler(trigger func()) *RetryScheduler {
	return NewRetrySchedulerWithClock(trigger, time.Now)
}

// NewRetrySchedulerWithClock is like NewRetryScheduler with an injectable
// time source for the due-time bookkeeping. The timer itself always runs on
// wall time: the clock feeds DueAt and the earlier-due-wins comparison, so
// it must advance with wall time (a fixed offset is fine, a frozen or
// manually stepped clock is not).
func NewRetrySchedulerWithClock(trigger func(), clock func() time.Time) *RetryScheduler {
	if clock == nil {
		clock = time.Now
	}
	return &RetryScheduler{
		trigger: trigger,
		clock:   clock,
	}
}

// ScheduleIn arms the timer to fire after delay. If a timer is already armed
// for an equal or earlier due time the call is a no-op; otherwise the
// existing timer is replaced by the earlier one. Negative delays are treated
// as zero.
func (s *RetryScheduler) ScheduleIn(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	due := s.clock().Add(delay)
	if s.timer != nil && !s.dueAt.After(due) {
		// The armed timer already wakes in time.
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	gen := s.generation
	s.dueAt = due
	s.timer = time.AfterFunc(delay, func() { s.fire(gen) })
}

// Cancel drops the outstanding timer, if any.
func (s *RetryScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dueAt = time.Time{}
}

// DueAt returns the due time of the outstanding timer, if one is armed.
func (s *RetryScheduler) DueAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return time.Time{}, false
	}
	return s.dueAt, true
}

func (s *RetryScheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		// Superseded by a reschedule or cancel after this timer was stopped.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.dueAt = time.Time{}
	s.mu.Unlock()

	s.trigger()
}
