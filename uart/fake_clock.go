package uart

import (
	"sync"
	"time"
)

var fakeEpoch = time.Date(2016, 12, 22, 0, 0, 0, 0, time.UTC)

// FakeClock is a test helper that simulates time. Every call to After
// advances the clock by the requested duration and fires immediately, so
// a polling loop runs through its whole budget without sleeping.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: fakeEpoch}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Advance moves the clock forward without firing anything.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Elapsed reports how far the clock moved since it was created.
func (c *FakeClock) Elapsed() time.Duration {
	return c.Now().Sub(fakeEpoch)
}
