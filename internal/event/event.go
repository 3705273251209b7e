// Package event defines the recorded input event model shared by the
// recorder and the player.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies the kind of a recorded event.
type Type int

const (
	// Click is a mouse button click at a screen position
	Click Type = iota
	// KeyDown is a keyboard key press
	KeyDown
	// KeyUp is a keyboard key release
	KeyUp
	// Scroll is a mouse wheel movement at a screen position
	Scroll

	// Invalid marks an event type that could not be decoded. The player
	// treats it as a fatal malformed-event condition.
	Invalid Type = -1
)

// String returns the wire form of the event type.
func (t Type) String() string {
	switch t {
	case Click:
		return "click"
	case KeyDown:
		return "keyDown"
	case KeyUp:
		return "keyUp"
	case Scroll:
		return "scroll"
	}
	return fmt.Sprintf("invalid(%d)", int(t))
}

// ParseType decodes a wire-form event type. Unknown strings return Invalid
// and an error so callers can decide whether decoding is fatal.
func ParseType(s string) (Type, error) {
	switch s {
	case "click":
		return Click, nil
	case "keyDown":
		return KeyDown, nil
	case "keyUp":
		return KeyUp, nil
	case "scroll":
		return Scroll, nil
	}
	return Invalid, fmt.Errorf("event: unknown type %q", s)
}

// KeyKind distinguishes the capture-domain key vocabularies.
type KeyKind int

const (
	// KindChar is a printable character key ("a", "1", ...)
	KindChar KeyKind = iota
	// KindNamed is a named special key ("esc", "shift", "f5", ...)
	KindNamed
	// KindButton is a mouse button ("left", "right", "middle")
	KindButton
	// KindWheel is the mouse wheel sentinel used by scroll events
	KindWheel
)

// Key is a capture-domain key or button identifier. It is kept as a tagged
// value internally; the string encoding exists only at the serialization
// boundary (see String and ParseKey).
type Key struct {
	Kind KeyKind
	Name string
}

// Char returns a printable character key.
func Char(s string) Key { return Key{Kind: KindChar, Name: s} }

// Named returns a named special key, e.g. Named("esc").
func Named(name string) Key { return Key{Kind: KindNamed, Name: name} }

// Button returns a mouse button identifier, e.g. Button("left").
func Button(name string) Key { return Key{Kind: KindButton, Name: name} }

// Wheel returns the mouse wheel sentinel.
func Wheel() Key { return Key{Kind: KindWheel, Name: "mouse_wheel"} }

// Zero reports whether the key is the zero value (no identifier at all).
func (k Key) Zero() bool { return k.Name == "" && k.Kind == KindChar }

// String encodes the key in the capture-domain string vocabulary:
// "a", "Key.esc", "Button.left", "mouse_wheel". Unknown kinds degrade to
// the raw name rather than failing.
func (k Key) String() string {
	switch k.Kind {
	case KindChar:
		return k.Name
	case KindNamed:
		return "Key." + k.Name
	case KindButton:
		return "Button." + k.Name
	case KindWheel:
		return "mouse_wheel"
	}
	return k.Name
}

// ParseKey decodes a capture-domain key string. It never fails: strings that
// match no known prefix are taken as character keys, which preserves the
// best-effort behavior required for unrecognized capture input.
func ParseKey(s string) Key {
	switch {
	case s == "mouse_wheel":
		return Wheel()
	case strings.HasPrefix(s, "Key."):
		return Named(strings.TrimPrefix(s, "Key."))
	case strings.HasPrefix(s, "Button."):
		return Button(strings.TrimPrefix(s, "Button."))
	}
	return Char(s)
}

// Point is a screen position in pixels.
type Point struct {
	X int
	Y int
}

// ScrollDelta is a directional wheel movement in notches.
type ScrollDelta struct {
	DX int
	DY int
}

// Recorded is one observed or replayable input action.
type Recorded struct {
	// Delta is the active (non-paused) time elapsed since the previous
	// recorded event; for the first event, since recording start.
	Delta time.Duration

	Type Type
	Key  Key

	// Pos is set for Click and Scroll events only.
	Pos *Point

	// Scroll is set for Scroll events only.
	Scroll *ScrollDelta

	// Held is a snapshot of the keys held down at the moment of this
	// event, in press order. Diagnostic; not needed for playback.
	Held []string
}

// Recording is an ordered sequence of recorded events. Order is recording
// order and must never change. An empty recording is valid.
type Recording []Recorded
