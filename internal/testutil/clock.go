// Package testutil provides deterministic doubles for the engine's
// host-environment dependencies: the clock, the signal source, id
// generation, and the remote delivery endpoint.
package testutil

import (
	"sort"
	"sync"
	"time"
)

// Clock is a manually-advanced clock for tests.
//
// Timers scheduled with After fire when Advance moves the clock past their
// deadline, in deadline order. Unlike the system clock, time only moves when
// the test says so, which makes time-delay triggers, settle delays, and
// cooldown windows exact.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
// Timer callbacks run on the Advance caller's goroutine, outside the lock.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	nextID int
}

type fakeTimer struct {
	id       int
	deadline time.Time
	fn       func()
	stopped  bool
}

// NewClock creates a clock at the given start time.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now implements engine.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After implements engine.Clock. The returned cancel is idempotent.
func (c *Clock) After(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{
		id:       c.nextID,
		deadline: c.now.Add(d),
		fn:       fn,
	}
	c.nextID++
	c.timers = append(c.timers, t)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

// Advance moves the clock forward and fires every due timer in deadline
// order (creation order breaks ties).
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := c.takeDue()
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of scheduled, unfired, uncancelled timers.
// Useful for asserting that teardown released every timer.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// takeDue removes and returns due timers. Caller holds the lock.
func (c *Clock) takeDue() []*fakeTimer {
	var due, rest []*fakeTimer
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !t.deadline.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].id < due[j].id
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due
}
