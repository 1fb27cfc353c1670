package engine

import "time"

// Clock abstracts wall-clock time and timer scheduling so cooldown windows
// and time-based triggers are testable without sleeping.
//
// Implemented by SystemClock (production) and testutil.Clock (tests).
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After schedules fn to run once d has elapsed and returns a cancel
	// function. Cancel is idempotent and safe after the timer fired.
	// fn runs on an arbitrary goroutine; callers route it back onto the
	// dispatcher before touching shared state.
	After(d time.Duration, fn func()) (cancel func())
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// After implements Clock using time.AfterFunc.
func (SystemClock) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
