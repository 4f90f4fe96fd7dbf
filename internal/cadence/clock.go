package cadence

import (
	"sync"
	"time"
)

// Timer is a cancellable delayed callback
type Timer interface {
	Stop() bool
}

// Clock provides time and delayed callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// serialClock runs every callback while holding mu, so timer callbacks never
// interleave with each other or with the engine's public methods.
type serialClock struct {
	inner Clock
	mu    *sync.Mutex
}

func (c serialClock) Now() time.Time { return c.inner.Now() }

func (c serialClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.inner.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		f()
	})
}

// slot is a single-slot timer: arming it always cancels the pending callback
// first, and a callback that lost the race with a cancel is dropped.
type slot struct {
	clock Clock
	timer Timer
	gen   uint64
	due   time.Time
}

func (s *slot) arm(d time.Duration, f func()) {
	s.cancel()
	gen := s.gen
	s.due = s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() {
		if gen != s.gen {
			return
		}
		s.timer = nil
		f()
	})
}

func (s *slot) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *slot) pending() bool {
	return s.timer != nil
}

// remaining returns how long until the pending callback fires
func (s *slot) remaining() time.Duration {
	if s.timer == nil {
		return 0
	}
	left := s.due.Sub(s.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}
