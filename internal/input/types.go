// Package input provides the capability interfaces between the macro engine
// and the OS: a Source that reports raw input events and a Sink that injects
// synthetic ones. Platform implementations live in the build-tagged files.
package input

import "macrorec/internal/event"

// RawKind identifies the kind of a raw capture event.
type RawKind int

const (
	// RawKeyDown is a keyboard key press
	RawKeyDown RawKind = iota
	// RawKeyUp is a keyboard key release
	RawKeyUp
	// RawButtonDown is a mouse button press
	RawButtonDown
	// RawButtonUp is a mouse button release
	RawButtonUp
	// RawScroll is a mouse wheel movement
	RawScroll
)

// RawEvent is an input occurrence as reported by the capture capability,
// before any filtering or translation.
type RawEvent struct {
	Kind RawKind

	// Key carries the key identifier for key events and the button
	// identifier for mouse button events.
	Key event.Key

	// X, Y is the cursor position for button and scroll events.
	X int
	Y int

	// DX, DY is the scroll direction in wheel notches for RawScroll.
	DX int
	DY int
}

// Source captures raw input events and delivers them on a channel.
// Registration and teardown of the underlying OS hooks is the caller's
// responsibility via Start/Stop.
type Source interface {
	Start() error
	Stop() error
	Events() <-chan RawEvent
}

// Sink injects synthetic input. Key and button names are in the injection
// domain (see internal/keymap). Scroll amounts are raw wheel units, already
// multiplied by the configured scroll unit.
type Sink interface {
	MoveTo(x, y int) error
	Click(button string) error
	KeyDown(key string) error
	KeyUp(key string) error
	ScrollVertical(amount int) error
	ScrollHorizontal(amount int) error
}
