package schedule

import (
	"sync"
	"time"
)

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a clock at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d without running anything.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *ManualClock) set(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	c.mu.Unlock()
}

// Step moves c forward by d, stopping at each deadline on q so tasks run at
// the time they were due and anything they schedule is timed from there.
// It returns the number of tasks run.
func Step(c *ManualClock, q *Queue, d time.Duration) int {
	target := c.Now().Add(d)
	ran := 0
	for {
		next, ok := q.NextDeadline()
		if !ok || next.After(target) {
			break
		}
		c.set(next)
		ran += q.RunDue()
	}
	c.set(target)
	return ran + q.RunDue()
}
