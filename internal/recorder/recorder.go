// Package recorder captures raw input events into an ordered, timestamped
// recording with pause/resume support.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"macrorec/internal/event"
	"macrorec/internal/input"
	"macrorec/internal/pause"
)

// Options configures a Recorder. Zero-value keys fall back to the
// conventional bindings: Pause toggles capture, Esc ends the session.
type Options struct {
	// PauseKey toggles pause/resume. Presses of it are never recorded.
	PauseKey event.Key

	// ExitKey ends the session when released.
	ExitKey event.Key

	// Ignored lists keys that are silently discarded during capture.
	Ignored []event.Key

	// Refractory is the pause-toggle debounce window; see internal/pause.
	Refractory time.Duration

	Logger zerolog.Logger
}

// Recorder turns a raw input stream into recordings. Each Begin call owns a
// fresh session; a Recorder itself holds no per-session state besides a
// handle used by TogglePause and Stop.
type Recorder struct {
	source input.Source
	opts   Options
	log    zerolog.Logger

	mu      sync.Mutex
	current *session
}

// New creates a Recorder reading from src.
func New(src input.Source, opts Options) *Recorder {
	if opts.PauseKey.Zero() {
		opts.PauseKey = event.Named("pause")
	}
	if opts.ExitKey.Zero() {
		opts.ExitKey = event.Named("esc")
	}
	return &Recorder{
		source: src,
		opts:   opts,
		log:    opts.Logger.With().Str("component", "recorder").Logger(),
	}
}

// Begin starts the source and consumes its stream until the exit key's
// release is observed or ctx is canceled. It then synthesizes releases for
// any still-held keys and returns the finished recording. Capture-side
// problems are logged and degraded, never fatal; the only error return is a
// source that fails to start.
func (r *Recorder) Begin(ctx context.Context) (event.Recording, error) {
	if err := r.source.Start(); err != nil {
		return nil, fmt.Errorf("recorder: start source: %w", err)
	}
	defer func() {
		if err := r.source.Stop(); err != nil {
			r.log.Warn().Err(err).Msg("stop source")
		}
	}()

	s := newSession(r.opts, r.log)
	r.setCurrent(s)
	defer r.setCurrent(nil)

	events := r.source.Events()
	for {
		select {
		case <-ctx.Done():
			s.cleanup()
			return s.recording, nil
		case ev, ok := <-events:
			if !ok {
				s.cleanup()
				return s.recording, nil
			}
			if s.handle(ev) {
				s.cleanup()
				return s.recording, nil
			}
		}
	}
}

// TogglePause toggles the active session's pause state. No-op when idle.
func (r *Recorder) TogglePause() {
	r.mu.Lock()
	s := r.current
	r.mu.Unlock()
	if s != nil {
		s.pause.Toggle()
	}
}

// Recording reports whether a session is in progress and whether it is
// currently paused.
func (r *Recorder) Recording() (active, paused bool) {
	r.mu.Lock()
	s := r.current
	r.mu.Unlock()
	if s == nil {
		return false, false
	}
	return true, s.pause.Paused()
}

func (r *Recorder) setCurrent(s *session) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

// session is the transient per-recording state. It is mutated only from the
// Begin consume loop; lastEvent is additionally shifted by the pause resume
// correction, which may fire from a control thread, hence the mutex.
type session struct {
	opts  Options
	log   zerolog.Logger
	pause *pause.Controller

	held      map[event.Key]bool
	heldOrder []event.Key
	ignored   map[event.Key]bool
	recording event.Recording

	mu        sync.Mutex
	lastEvent time.Time
}

func newSession(opts Options, log zerolog.Logger) *session {
	s := &session{
		opts:      opts,
		log:       log,
		held:      make(map[event.Key]bool),
		ignored:   make(map[event.Key]bool),
		recording: event.Recording{},
		lastEvent: time.Now(),
	}
	for _, k := range opts.Ignored {
		s.ignored[k] = true
	}
	// When a pause ends, push the clock reference forward by the paused
	// duration so the next delta covers active time only.
	s.pause = pause.New(opts.Refractory, func(paused time.Duration) {
		s.mu.Lock()
		s.lastEvent = s.lastEvent.Add(paused)
		s.mu.Unlock()
	})
	return s
}

// handle processes one raw event and reports whether the session should end.
func (s *session) handle(ev input.RawEvent) bool {
	switch ev.Kind {
	case input.RawKeyDown:
		s.press(ev.Key)
	case input.RawKeyUp:
		return s.release(ev.Key)
	case input.RawButtonDown:
		// Clicks are recorded on the release edge only; recording both
		// edges would duplicate every click.
	case input.RawButtonUp:
		s.click(ev)
	case input.RawScroll:
		s.scroll(ev)
	default:
		s.log.Warn().Int("kind", int(ev.Kind)).Msg("unrecognized raw event discarded")
	}
	return false
}

func (s *session) press(key event.Key) {
	if key == s.opts.PauseKey {
		s.pause.Toggle()
		return
	}
	if s.pause.Paused() || s.ignored[key] || s.held[key] {
		return
	}
	s.held[key] = true
	s.heldOrder = append(s.heldOrder, key)
	s.append(event.Recorded{Type: event.KeyDown, Key: key})
}

func (s *session) release(key event.Key) bool {
	if s.pause.Paused() || s.ignored[key] || key == s.opts.PauseKey {
		return false
	}

	// The snapshot uses the pre-removal held set, so a KeyUp still lists
	// its own key.
	s.append(event.Recorded{Type: event.KeyUp, Key: key})

	if s.held[key] {
		delete(s.held, key)
		for i, k := range s.heldOrder {
			if k == key {
				s.heldOrder = append(s.heldOrder[:i], s.heldOrder[i+1:]...)
				break
			}
		}
	}

	return key == s.opts.ExitKey
}

func (s *session) click(ev input.RawEvent) {
	if s.pause.Paused() {
		return
	}
	s.append(event.Recorded{
		Type: event.Click,
		Key:  ev.Key,
		Pos:  &event.Point{X: ev.X, Y: ev.Y},
	})
}

func (s *session) scroll(ev input.RawEvent) {
	if s.pause.Paused() {
		return
	}
	s.append(event.Recorded{
		Type:   event.Scroll,
		Key:    event.Wheel(),
		Pos:    &event.Point{X: ev.X, Y: ev.Y},
		Scroll: &event.ScrollDelta{DX: ev.DX, DY: ev.DY},
	})
}

// append stamps the event with the pause-corrected delta since the previous
// recorded event and adds it to the log.
func (s *session) append(ev event.Recorded) {
	now := time.Now()

	s.mu.Lock()
	delta := now.Sub(s.lastEvent)
	if delta < 0 {
		delta = 0
	}
	s.lastEvent = now
	s.mu.Unlock()

	ev.Delta = delta
	ev.Held = s.heldSnapshot()
	s.recording = append(s.recording, ev)

	s.log.Debug().
		Stringer("type", ev.Type).
		Str("key", ev.Key.String()).
		Dur("delta", ev.Delta).
		Msg("recorded")
}

func (s *session) heldSnapshot() []string {
	if len(s.heldOrder) == 0 {
		return nil
	}
	out := make([]string, len(s.heldOrder))
	for i, k := range s.heldOrder {
		out[i] = k.String()
	}
	return out
}

// cleanup synthesizes a release for every key still marked held, through the
// normal release path, so the finished log never ends on a dangling KeyDown.
func (s *session) cleanup() {
	s.pause.Release()
	for _, key := range append([]event.Key(nil), s.heldOrder...) {
		s.release(key)
	}
}
