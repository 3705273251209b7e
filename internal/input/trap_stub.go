//go:build !windows

package input

import (
	"fmt"
)

// Stub implementation for platforms without a capture backend

// Trap represents a stub input trap
type Trap struct{}

// NewTrap creates a new stub trap
func NewTrap() *Trap {
	return &Trap{}
}

// Start begins capturing input (stub)
func (t *Trap) Start() error {
	return fmt.Errorf("input capture not supported on this platform")
}

// Stop stops capturing input (stub)
func (t *Trap) Stop() error {
	return nil
}

// Events returns the raw event channel (stub)
func (t *Trap) Events() <-chan RawEvent {
	return nil
}
