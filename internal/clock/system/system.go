// Package system provides the wall clock used outside tests.
package system

import "time"

// Clock implements tender.Clock in a fixed location.
type Clock struct {
	loc *time.Location
}

// New returns a UTC clock.
func New() *Clock {
	return &Clock{loc: time.UTC}
}

// NewLocal returns a clock in the host's local zone. Request envelopes carry
// the caller's offset.
func NewLocal() *Clock {
	return &Clock{loc: time.Local}
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	if c == nil || c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}
