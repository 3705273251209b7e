package hotkey

import (
	"testing"

	"github.com/rs/zerolog"

	"macrorec/internal/event"
	"macrorec/internal/input"
)

// TestSingleKeyTrigger tests that a single-key hotkey fires on the down edge
func TestSingleKeyTrigger(t *testing.T) {
	m := NewManager(zerolog.Nop())

	fired := 0
	m.RegisterKey(event.Named("pause"), func() { fired++ })

	m.UpdateState("Key.pause", true)
	if fired != 1 {
		t.Errorf("Expected 1 trigger after key down, got %d", fired)
	}

	m.UpdateState("Key.pause", false)
	if fired != 1 {
		t.Errorf("Expected no trigger on key up, got %d", fired)
	}

	m.UpdateState("Key.pause", true)
	if fired != 2 {
		t.Errorf("Expected 2 triggers after second key down, got %d", fired)
	}
}

// TestComboTrigger tests that all parts of a combination must be held
func TestComboTrigger(t *testing.T) {
	m := NewManager(zerolog.Nop())

	fired := 0
	m.Register("Key.ctrl_l+Key.esc", func() { fired++ })

	m.UpdateState("Key.esc", true)
	if fired != 0 {
		t.Errorf("Expected no trigger with partial combo, got %d", fired)
	}
	m.UpdateState("Key.esc", false)

	m.UpdateState("Key.ctrl_l", true)
	m.UpdateState("Key.esc", true)
	if fired != 1 {
		t.Errorf("Expected 1 trigger with full combo, got %d", fired)
	}
}

// TestFeedRoutesKeyEvents tests the raw event adapter
func TestFeedRoutesKeyEvents(t *testing.T) {
	m := NewManager(zerolog.Nop())

	fired := 0
	m.RegisterKey(event.Named("pause"), func() { fired++ })

	m.Feed(input.RawEvent{Kind: input.RawKeyDown, Key: event.Named("pause")})
	if fired != 1 {
		t.Errorf("Expected 1 trigger from fed key down, got %d", fired)
	}

	// Mouse events must not affect key state
	m.Feed(input.RawEvent{Kind: input.RawButtonDown, Key: event.Button("left")})
	m.Feed(input.RawEvent{Kind: input.RawScroll, Key: event.Wheel()})
	if fired != 1 {
		t.Errorf("Expected no trigger from mouse events, got %d", fired)
	}
}

// TestClear removes all registrations
func TestClear(t *testing.T) {
	m := NewManager(zerolog.Nop())

	fired := 0
	m.RegisterKey(event.Named("pause"), func() { fired++ })
	m.Clear()

	m.UpdateState("Key.pause", true)
	if fired != 0 {
		t.Errorf("Expected no trigger after Clear, got %d", fired)
	}
}
