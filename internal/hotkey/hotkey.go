// Package hotkey matches key combinations against a raw input stream and
// fires callbacks, independent of application focus. It is fed from an
// input.Source rather than owning OS hooks of its own.
package hotkey

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"macrorec/internal/event"
	"macrorec/internal/input"
)

// Manager tracks which keys are currently down and triggers registered
// callbacks when all parts of a combination are held.
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool
	log          zerolog.Logger
}

type registeredHotkey struct {
	parts    []string // e.g. ["CTRL", "ALT", "KEY.PAUSE"]
	original string
	callback func()
}

// NewManager creates an empty hotkey manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		currentState: make(map[string]bool),
		log:          log.With().Str("component", "hotkey").Logger(),
	}
}

// Register binds a callback to a combination given in capture-domain key
// strings joined by "+", e.g. "Key.pause" or "Key.ctrl_l+Key.esc".
func (m *Manager) Register(combo string, callback func()) {
	if combo == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(strings.ToUpper(combo), "+")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: combo,
		callback: callback,
	})
}

// RegisterKey binds a callback to a single key.
func (m *Manager) RegisterKey(k event.Key, callback func()) {
	m.Register(k.String(), callback)
}

// Clear removes all registered hotkeys.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState records a key going down or up and checks for matches on the
// down edge.
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	key = strings.ToUpper(key)
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	m.mu.Unlock()

	if isDown {
		m.checkMatches()
	}
}

// Feed applies one raw event to the state machine. Non-key events are
// ignored.
func (m *Manager) Feed(ev input.RawEvent) {
	switch ev.Kind {
	case input.RawKeyDown:
		m.UpdateState(ev.Key.String(), true)
	case input.RawKeyUp:
		m.UpdateState(ev.Key.String(), false)
	}
}

func (m *Manager) checkMatches() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := true
		// All parts of the combination must be in currentState
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			m.log.Debug().Str("hotkey", hk.original).Msg("hotkey triggered")
			hk.callback()
		}
	}
}
