// Package clock stamps published board events.
package clock

import "time"

// Clock returns the current time. Sessions take a Clock so tests can pin the
// timestamps carried by published events.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns time.Now in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually driven clock for tests.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake stopped at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now returns the pinned time.
func (f *Fake) Now() time.Time {
	return f.current
}

// Advance moves the pinned time forward.
func (f *Fake) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}
