package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manual time source. Services, the store and the JWT validator
// can share one so a test can move "now" into the middle of the conference.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc returns c.Now, or time.Now for a nil clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// JumpTo places the clock at hour:minute on the conference day at offset,
// so sessions that started earlier count as past.
func (c *Clock) JumpTo(day, hour, minute int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = At(day, hour, minute)
	return c.now
}
