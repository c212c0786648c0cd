package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryScheduler_FiresOnce(t *testing.T) {
	var fired atomic.Int32
	s := NewRetryScheduler(func() { fired.Add(1) })

	s.ScheduleIn(20 * time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	_, armed := s.DueAt()
	assert.False(t, armed)
}

func TestRetryScheduler_CoalescesToEarlierTime(t *testing.T) {
	var fired atomic.Int32
	firedAt := make(chan time.Time, 1)
	s := NewRetryScheduler(func() {
		fired.Add(1)
		select {
		case firedAt <- time.Now():
		default:
		}
	})

	start := time.Now()
	s.ScheduleIn(200 * time.Millisecond)
	s.ScheduleIn(50 * time.Millisecond)

	select {
	case at := <-firedAt:
		elapsed := at.Sub(start)
		assert.Less(t, elapsed, 150*time.Millisecond, "should fire near the earlier due time")
	case <-time.After(time.Second):
		t.Fatal("trigger never fired")
	}

	// The later request must not produce a second firing.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRetryScheduler_LaterRequestIsIgnored(t *testing.T) {
	var fired atomic.Int32
	firedAt := make(chan time.Time, 1)
	s := NewRetryScheduler(func() {
		fired.Add(1)
		select {
		case firedAt <- time.Now():
		default:
		}
	})

	start := time.Now()
	s.ScheduleIn(50 * time.Millisecond)
	s.ScheduleIn(200 * time.Millisecond)

	select {
	case at := <-firedAt:
		assert.Less(t, at.Sub(start), 150*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("trigger never fired")
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRetryScheduler_Cancel(t *testing.T) {
	var fired atomic.Int32
	s := NewRetryScheduler(func() { fired.Add(1) })

	s.ScheduleIn(50 * time.Millisecond)
	s.Cancel()

	_, armed := s.DueAt()
	assert.False(t, armed)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestRetryScheduler_DueAtReflectsArmedTimer(t *testing.T) {
	s := NewRetryScheduler(func() {})

	_, armed := s.DueAt()
	assert.False(t, armed)

	s.ScheduleIn(time.Hour)
	due, armed := s.DueAt()
	require.True(t, armed)
	assert.InDelta(t, time.Until(due).Seconds(), time.Hour.Seconds(), 1.0)

	s.Cancel()
}

func TestRetryScheduler_TriggerMayReschedule(t *testing.T) {
	var fired atomic.Int32
	var s *RetryScheduler
	s = NewRetrySchedulerWithClock(func() {
		if fired.Add(1) == 1 {
			// State is already cleared when the trigger runs, so re-arming
			// from inside the trigger must work.
			s.ScheduleIn(20 * time.Millisecond)
		}
	}, time.Now)

	s.ScheduleIn(20 * time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(2), fired.Load())
}

func TestRetryScheduler_NegativeDelayFiresImmediately(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := NewRetryScheduler(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	s.ScheduleIn(-time.Second)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("trigger never fired")
	}
}

func TestRetryScheduler_ConcurrentScheduleIn(t *testing.T) {
	var fired atomic.Int32
	s := NewRetryScheduler(func() { fired.Add(1) })

	for i := 0; i < 20; i++ {
		go s.ScheduleIn(time.Duration(10+i) * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "concurrent requests coalesce to one firing")
}
