package headless

import (
	"context"
	"errors"
)

// ErrDisabled reports that browser rendering is switched off.
var ErrDisabled = errors.New("headless browser not configured")

// Noop is a Launcher that never starts a browser.
type Noop struct{}

// NewNoop creates a new Noop launcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Launch always fails with ErrDisabled.
func (Noop) Launch(context.Context) (Session, error) {
	return nil, ErrDisabled
}
