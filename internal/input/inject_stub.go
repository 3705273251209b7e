//go:build !windows

package input

import (
	"fmt"
)

// Stub implementation for platforms without an injection backend

// Injector represents a stub input injector
type Injector struct{}

// NewInjector creates a new stub injector
func NewInjector() *Injector {
	return &Injector{}
}

// MoveTo moves the cursor (stub)
func (i *Injector) MoveTo(x, y int) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// Click clicks a mouse button (stub)
func (i *Injector) Click(button string) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// KeyDown presses a key (stub)
func (i *Injector) KeyDown(key string) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// KeyUp releases a key (stub)
func (i *Injector) KeyUp(key string) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// ScrollVertical scrolls vertically (stub)
func (i *Injector) ScrollVertical(amount int) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// ScrollHorizontal scrolls horizontally (stub)
func (i *Injector) ScrollHorizontal(amount int) error {
	return fmt.Errorf("input injection not supported on this platform")
}
