// Package player replays a recording through an input sink, reconstructing
// the recorded inter-event timing with pause/resume and early termination.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"macrorec/internal/event"
	"macrorec/internal/hotkey"
	"macrorec/internal/input"
	"macrorec/internal/keymap"
	"macrorec/internal/pause"
)

// ErrMalformedEvent marks a recording the player cannot interpret. It is the
// one fatal, session-ending playback error: anything else is logged and
// playback continues.
var ErrMalformedEvent = errors.New("malformed event")

// Reason explains why a playback session ended.
type Reason int

const (
	// Completed means the whole recording was dispatched
	Completed Reason = iota
	// AbortedByEscape means the escape sentinel appeared in the stream
	AbortedByEscape
	// AbortedByRequest means the context was canceled or Abort was called
	AbortedByRequest
	// AbortedByError means a malformed event ended the session
	AbortedByError
)

// String returns a short human-readable reason.
func (r Reason) String() string {
	switch r {
	case Completed:
		return "completed"
	case AbortedByEscape:
		return "aborted by escape key"
	case AbortedByRequest:
		return "aborted by request"
	case AbortedByError:
		return "aborted by error"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Result reports how a playback session ended. Err is set only for
// AbortedByError and AbortedByRequest.
type Result struct {
	// Executed counts events dispatched (or deliberately skipped after a
	// failed cursor move) before the session ended.
	Executed int
	Reason   Reason
	Err      error
}

// DefaultScrollUnit is the wheel amount of one physical notch.
const DefaultScrollUnit = 120

// DefaultSlice bounds one uninterruptible sleep inside an inter-event wait.
// A pause or abort is honored within roughly one slice.
const DefaultSlice = 10 * time.Millisecond

// Options configures a Player.
type Options struct {
	// PauseKey toggles pause during playback, observed via PauseSource.
	PauseKey event.Key

	// EscapeKey is the sentinel that ends playback when its translated
	// form matches an event's translated key.
	EscapeKey event.Key

	// PauseSource, if set, is started for the duration of each session and
	// watched for the pause key.
	PauseSource input.Source

	// ScrollUnit is the wheel amount per recorded notch (default 120).
	ScrollUnit int

	// Slice is the wait-loop granularity (default 10ms).
	Slice time.Duration

	// Refractory is the pause-toggle debounce window; see internal/pause.
	Refractory time.Duration

	Logger zerolog.Logger
}

// Player replays recordings through a sink. Each Play call owns a fresh
// session; TogglePause and Abort act on the session in progress, if any.
type Player struct {
	sink input.Sink
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	current *session
}

// New creates a Player dispatching to sink.
func New(sink input.Sink, opts Options) *Player {
	if opts.PauseKey.Zero() {
		opts.PauseKey = event.Named("pause")
	}
	if opts.EscapeKey.Zero() {
		opts.EscapeKey = event.Named("esc")
	}
	if opts.ScrollUnit == 0 {
		opts.ScrollUnit = DefaultScrollUnit
	}
	if opts.Slice <= 0 {
		opts.Slice = DefaultSlice
	}
	return &Player{
		sink: sink,
		opts: opts,
		log:  opts.Logger.With().Str("component", "player").Logger(),
	}
}

func (p *Player) setCurrent(s *session) {
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
}

// TogglePause toggles the active session's pause state. No-op when idle.
func (p *Player) TogglePause() {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s != nil {
		s.pause.Toggle()
	}
}

// Abort requests early termination of the active session. No-op when idle.
func (p *Player) Abort() {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s != nil {
		s.abort()
	}
}

// Playing reports whether a session is in progress and whether it is
// currently paused.
func (p *Player) Playing() (active, paused bool) {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s == nil {
		return false, false
	}
	return true, s.pause.Paused()
}

// Play replays rec in order. It blocks until the recording is exhausted, the
// escape sentinel is hit, the recording turns out to be malformed, or the
// session is aborted via ctx or Abort. An empty recording completes
// immediately with zero dispatches.
func (p *Player) Play(ctx context.Context, rec event.Recording) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{
		player: p,
		cancel: cancel,
		held:   make(map[string]bool),
	}
	// Resumes push the wait target out by the paused duration.
	s.pause = pause.New(p.opts.Refractory, func(paused time.Duration) {
		s.mu.Lock()
		s.pauseShift += paused
		s.mu.Unlock()
	})
	defer s.pause.Release()

	p.setCurrent(s)
	defer p.setCurrent(nil)

	stopListener, err := p.startPauseListener(ctx, s)
	if err != nil {
		p.log.Warn().Err(err).Msg("pause listener unavailable")
	}
	if stopListener != nil {
		defer stopListener()
	}

	escape := keymap.TranslateKey(p.opts.EscapeKey)

	for i, ev := range rec {
		s.pause.WaitWhilePaused()
		if ctx.Err() != nil {
			s.releaseHeld()
			return Result{Executed: i, Reason: AbortedByRequest, Err: ctx.Err()}
		}

		if keymap.TranslateKey(ev.Key) == escape {
			p.log.Info().Int("index", i).Msg("escape key in recording, playback ending")
			s.releaseHeld()
			return Result{Executed: i, Reason: AbortedByEscape}
		}

		if err := s.dispatch(ev); err != nil {
			s.releaseHeld()
			return Result{Executed: i, Reason: AbortedByError, Err: err}
		}

		if i+1 < len(rec) {
			if !s.wait(ctx, rec[i+1].Delta) {
				s.releaseHeld()
				return Result{Executed: i + 1, Reason: AbortedByRequest, Err: ctx.Err()}
			}
		}
	}

	return Result{Executed: len(rec), Reason: Completed}
}

// startPauseListener starts the configured pause source and feeds it into a
// hotkey manager bound to the pause key. Returns a stop function, or nil if
// no source is configured.
func (p *Player) startPauseListener(ctx context.Context, s *session) (func(), error) {
	src := p.opts.PauseSource
	if src == nil {
		return nil, nil
	}
	if err := src.Start(); err != nil {
		return nil, err
	}

	mgr := hotkey.NewManager(p.log)
	mgr.RegisterKey(p.opts.PauseKey, s.pause.Toggle)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-src.Events():
				if !ok {
					return
				}
				mgr.Feed(ev)
			}
		}
	}()

	return func() {
		if err := src.Stop(); err != nil {
			p.log.Warn().Err(err).Msg("stop pause source")
		}
		<-done
	}, nil
}

// session is the transient per-playback state.
type session struct {
	player *Player
	pause  *pause.Controller
	cancel context.CancelFunc

	// held tracks injection-domain keys with a dispatched KeyDown and no
	// matching KeyUp yet, so an abort can avoid leaving keys stuck.
	held map[string]bool

	mu         sync.Mutex
	pauseShift time.Duration
}

func (s *session) abort() {
	s.cancel()
	// Wake the playback thread if it is blocked on the condition.
	s.pause.Release()
}

// dispatch issues one event to the sink. The returned error is fatal to the
// session; recoverable sink failures are logged here and swallowed.
func (s *session) dispatch(ev event.Recorded) error {
	p := s.player
	switch ev.Type {
	case event.Click:
		if ev.Pos == nil {
			return fmt.Errorf("%w: click without position", ErrMalformedEvent)
		}
		if err := p.sink.MoveTo(ev.Pos.X, ev.Pos.Y); err != nil {
			// Clicking at the wrong position is worse than not
			// clicking at all: skip the whole event.
			p.log.Warn().Err(err).Int("x", ev.Pos.X).Int("y", ev.Pos.Y).Msg("cursor move failed, click skipped")
			return nil
		}
		if err := p.sink.Click(keymap.MouseButton(ev.Key.String())); err != nil {
			p.log.Warn().Err(err).Str("button", ev.Key.String()).Msg("click dispatch failed")
		}

	case event.KeyDown:
		key := keymap.TranslateKey(ev.Key)
		if err := p.sink.KeyDown(key); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("key down dispatch failed")
		} else {
			s.held[key] = true
		}

	case event.KeyUp:
		key := keymap.TranslateKey(ev.Key)
		if err := p.sink.KeyUp(key); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("key up dispatch failed")
		}
		delete(s.held, key)

	case event.Scroll:
		if ev.Pos == nil {
			return fmt.Errorf("%w: scroll without position", ErrMalformedEvent)
		}
		if err := p.sink.MoveTo(ev.Pos.X, ev.Pos.Y); err != nil {
			p.log.Warn().Err(err).Int("x", ev.Pos.X).Int("y", ev.Pos.Y).Msg("cursor move failed, scroll skipped")
			return nil
		}
		if ev.Scroll != nil {
			if ev.Scroll.DY != 0 {
				if err := p.sink.ScrollVertical(ev.Scroll.DY * p.opts.ScrollUnit); err != nil {
					p.log.Warn().Err(err).Msg("vertical scroll dispatch failed")
				}
			}
			if ev.Scroll.DX != 0 {
				if err := p.sink.ScrollHorizontal(ev.Scroll.DX * p.opts.ScrollUnit); err != nil {
					p.log.Warn().Err(err).Msg("horizontal scroll dispatch failed")
				}
			}
		}

	default:
		return fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, ev.Type.String())
	}
	return nil
}

// wait sleeps until d of active time has passed, in short slices so a pause
// or abort is honored within one slice. Resumes shift the target out by the
// paused duration, so a toggle at a slice boundary never double-counts.
// Returns false when the session was aborted.
func (s *session) wait(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	base := s.pauseShift
	s.mu.Unlock()
	target := time.Now().Add(d)

	for {
		s.pause.WaitWhilePaused()
		if ctx.Err() != nil {
			return false
		}

		s.mu.Lock()
		shift := s.pauseShift - base
		s.mu.Unlock()

		remaining := time.Until(target.Add(shift))
		if remaining <= 0 {
			return true
		}
		if remaining > s.player.opts.Slice {
			remaining = s.player.opts.Slice
		}
		time.Sleep(remaining)
	}
}

// releaseHeld force-releases every key with an unmatched KeyDown. Best
// effort; runs on any non-completed exit.
func (s *session) releaseHeld() {
	for key := range s.held {
		if err := s.player.sink.KeyUp(key); err != nil {
			s.player.log.Warn().Err(err).Str("key", key).Msg("release of held key failed")
		}
		delete(s.held, key)
	}
}
