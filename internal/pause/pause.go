// Package pause provides the shared pause/resume state machine used by both
// the recorder and the player.
//
// A Controller is the only piece of state shared between a capture or
// playback thread and the control thread that toggles it. All access goes
// through one mutex; waiting consumes no CPU.
package pause

import (
	"sync"
	"time"
)

// DefaultRefractory is the default debounce window after a state change.
// It absorbs accidental repeated presses of the hardware pause key.
const DefaultRefractory = 3 * time.Second

// Controller is a two-state (Active/Paused) toggle with a condition wait.
// The zero value is not usable; construct with New.
type Controller struct {
	mu         sync.Mutex
	cond       *sync.Cond
	paused     bool
	pausedAt   time.Time
	lastChange time.Time
	refractory time.Duration
	onResume   func(paused time.Duration)
}

// New returns an Active controller. onResume, if non-nil, is invoked exactly
// once per Paused->Active transition with the duration spent paused; callers
// use it to offset their clocks so paused intervals never show up in event
// timing. onResume runs with the controller's lock held and must not call
// back into the controller. A refractory <= 0 falls back to
// DefaultRefractory; tests pass a tiny value.
func New(refractory time.Duration, onResume func(time.Duration)) *Controller {
	if refractory <= 0 {
		refractory = DefaultRefractory
	}
	c := &Controller{
		refractory: refractory,
		onResume:   onResume,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Toggle flips the state. Toggles arriving inside the refractory window
// after a previous transition are ignored, so a bouncing pause key cannot
// flap the state or apply a resume correction twice.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.lastChange.IsZero() && now.Sub(c.lastChange) < c.refractory {
		return
	}
	c.lastChange = now

	if !c.paused {
		c.paused = true
		c.pausedAt = now
		return
	}

	pausedFor := now.Sub(c.pausedAt)
	c.paused = false
	if c.onResume != nil {
		c.onResume(pausedFor)
	}
	c.cond.Broadcast()
}

// Paused reports the current state.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// WaitWhilePaused blocks the caller until the state is Active. The lock is
// released while blocked and reacquired atomically on wake, so a toggle
// racing a waiter that is about to block is never lost.
func (c *Controller) WaitWhilePaused() {
	c.mu.Lock()
	for c.paused {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// Release forces the state to Active and wakes all waiters, bypassing the
// refractory window. If the controller was paused, the resume correction
// still runs so clocks stay pause-corrected. Called on session shutdown so
// an abort cannot strand a thread inside WaitWhilePaused.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.paused {
		c.paused = false
		if c.onResume != nil {
			c.onResume(time.Since(c.pausedAt))
		}
	}
	c.cond.Broadcast()
	c.mu.Unlock()
}
