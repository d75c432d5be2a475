package common

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations to enable deterministic testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// TimerAt returns a timer that fires once the clock reaches deadline.
	// A deadline that is not in the future fires immediately.
	TimerAt(deadline time.Time) Timer
}

// Timer is the part of *time.Timer the scheduler relies on
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// NewRealClock creates a new RealClock instance
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) TimerAt(deadline time.Time) Timer {
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	return &realTimer{t: time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time { return r.t.C }
func (r *realTimer) Stop() bool          { return r.t.Stop() }

// MockClock implements Clock for testing with controllable time.
// It is safe for concurrent use; the scheduler loop and the test goroutine share it.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*mockTimer
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	channel  chan time.Time
	fired    bool
	stopped  bool
}

// NewMockClock creates a new MockClock with the specified initial time
func NewMockClock(initialTime time.Time) *MockClock {
	return &MockClock{
		currentTime: initialTime,
		timers:      make([]*mockTimer, 0),
	}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

func (c *MockClock) TimerAt(deadline time.Time) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &mockTimer{
		clock:    c,
		deadline: deadline,
		channel:  make(chan time.Time, 1),
	}

	// If the deadline is already past, fire immediately
	if !deadline.After(c.currentTime) {
		timer.fired = true
		timer.channel <- c.currentTime
		return timer
	}

	c.timers = append(c.timers, timer)
	return timer
}

func (t *mockTimer) C() <-chan time.Time { return t.channel }

func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the mock clock forward by the specified duration
// and triggers any timers that should fire
func (c *MockClock) Advance(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTime = c.currentTime.Add(duration)
	c.fireLocked()
}

// SetTime sets the mock clock to a specific time
func (c *MockClock) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTime = t
	c.fireLocked()
}

// PendingTimers returns the number of armed timers that have not fired or been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			n++
		}
	}
	return n
}

func (c *MockClock) fireLocked() {
	remaining := c.timers[:0]
	for _, timer := range c.timers {
		if timer.stopped {
			continue
		}
		if !timer.deadline.After(c.currentTime) {
			timer.fired = true
			timer.channel <- c.currentTime
			continue
		}
		remaining = append(remaining, timer)
	}
	c.timers = remaining
}
