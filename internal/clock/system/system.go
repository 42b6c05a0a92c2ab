// Package system provides clock implementations.
package system

import "time"

// Clock implements letter.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. Useful for reproducible letter dates.
type Fixed struct {
	At time.Time
}

// Now returns f.At.
func (f Fixed) Now() time.Time {
	return f.At
}
