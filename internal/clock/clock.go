// Package clock advances the shared playhead while the player is in the
// playing state.
//
// The loop is a single cancellable scheduled callback. Each tick measures
// real elapsed time against the frame interval, advances the playhead by
// whole frames and carries the sub-frame remainder forward, so long runs
// do not skew. Pausing or stopping cancels the pending callback before
// returning; a callback that fires late sees a stale generation counter
// and does nothing.
package clock

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/store"
)

// TimerHandle is a cancellable pending callback.
type TimerHandle interface {
	Stop() bool
}

// Scheduler schedules a callback after a delay. The real implementation
// wraps time.AfterFunc; tests inject a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}

// LoopPolicy selects what happens when playback reaches the end of the
// timeline.
type LoopPolicy int

const (
	// LoopStop rewinds to 0 and stops. The default.
	LoopStop LoopPolicy = iota
	// LoopRestart rewinds to 0 and keeps playing.
	LoopRestart
)

// StepDirection is the direction of a single-frame step.
type StepDirection int

const (
	StepBackward StepDirection = -1
	StepForward  StepDirection = 1
)

// Clock drives the playhead. It is one of the two permitted writers of
// shared state.
type Clock struct {
	mu    sync.Mutex
	store *store.Store
	sched Scheduler
	now   func() time.Time
	loop  LoopPolicy

	handle   TimerHandle
	gen      uint64
	lastTick time.Time
	frac     float64 // carried sub-pixel advance at fractional speeds
}

// Option configures a Clock.
type Option func(*Clock)

// WithScheduler replaces the timer mechanism. Passing nil models an
// unavailable timer API: the clock degrades to an inert stopped player.
func WithScheduler(s Scheduler) Option {
	return func(c *Clock) { c.sched = s }
}

// WithNow replaces the wall-clock reading, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithLoopPolicy sets the end-of-timeline behavior.
func WithLoopPolicy(p LoopPolicy) Option {
	return func(c *Clock) { c.loop = p }
}

// New creates a clock bound to the given store.
func New(st *store.Store, opts ...Option) *Clock {
	c := &Clock{
		store: st,
		sched: realScheduler{},
		now:   time.Now,
		loop:  LoopStop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) frameInterval() time.Duration {
	fps := c.store.Project().Settings.FPS
	if fps <= 0 {
		fps = 24
	}
	return time.Duration(float64(time.Second) / float64(fps))
}

// cancelLocked invalidates any pending callback. Callers hold c.mu.
func (c *Clock) cancelLocked() {
	c.gen++
	if c.handle != nil {
		c.handle.Stop()
		c.handle = nil
	}
}

func (c *Clock) scheduleLocked(gen uint64) {
	c.handle = c.sched.AfterFunc(c.frameInterval(), func() { c.tick(gen) })
}

// Play transitions stopped/paused -> playing and starts the loop. Any
// pre-existing scheduled handle is cancelled first, so repeated Play
// calls never stack duplicate loops. With no scheduler available the
// clock stays stopped.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	if c.sched == nil {
		log.Warn("no timer mechanism available, player stays stopped")
		c.store.SetPlaybackState(model.PlaybackStopped)
		return
	}

	c.store.SetPlaybackState(model.PlaybackPlaying)
	c.lastTick = c.now()
	c.frac = 0
	c.scheduleLocked(c.gen)
}

// Pause transitions playing -> paused, leaving the playhead where it is.
// The pending callback is cancelled before Pause returns.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Preview().PlaybackState != model.PlaybackPlaying {
		return
	}
	c.cancelLocked()
	c.store.SetPlaybackState(model.PlaybackPaused)
}

// Stop transitions playing/paused -> stopped and rewinds the playhead
// to 0. Always safe to call.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.store.SetPlaybackState(model.PlaybackStopped)
	c.store.SetPlayhead(0)
}

// Toggle plays when stopped or paused and pauses when playing.
func (c *Clock) Toggle() {
	if c.store.Preview().PlaybackState == model.PlaybackPlaying {
		c.Pause()
	} else {
		c.Play()
	}
}

// StepFrame nudges the playhead by exactly one frame's worth of
// pixel-units, clamped to [0, Duration]. Holding the clock mutex keeps a
// step from landing in the middle of a tick.
func (c *Clock) StepFrame(dir StepDirection) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	zoom := c.store.Timeline().ZoomLevel
	if zoom < 1 {
		zoom = 1
	}
	return c.store.MovePlayhead(int(dir) * zoom)
}

// Seek moves the playhead to an absolute position, clamped. Used by
// slider scrubbing.
func (c *Clock) Seek(position int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.SetPlayhead(position)
}

func (c *Clock) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// Cancelled after this callback was already in flight.
		return
	}
	if c.store.Preview().PlaybackState != model.PlaybackPlaying {
		return
	}

	interval := c.frameInterval()
	now := c.now()
	elapsed := now.Sub(c.lastTick)

	if elapsed < interval {
		// Not a full frame yet; drift accumulates harmlessly.
		c.scheduleLocked(gen)
		return
	}

	frames := int(elapsed / interval)
	// Keep the sub-frame remainder instead of resetting the reference,
	// otherwise the error compounds over long runs.
	c.lastTick = now.Add(-(elapsed % interval))

	tl := c.store.Timeline()
	speed := c.store.Preview().PlaybackSpeed
	if speed <= 0 {
		speed = 1
	}
	zoom := tl.ZoomLevel
	if zoom < 1 {
		zoom = 1
	}

	advance := float64(frames*zoom)*speed + c.frac
	whole := int(advance)
	c.frac = advance - float64(whole)

	pos := c.store.MovePlayhead(whole)
	if pos >= tl.Duration && tl.Duration > 0 {
		if c.loop == LoopRestart {
			c.store.SetPlayhead(0)
			c.lastTick = now
			c.scheduleLocked(gen)
			return
		}
		c.cancelLocked()
		c.store.SetPlaybackState(model.PlaybackStopped)
		c.store.SetPlayhead(0)
		return
	}

	c.scheduleLocked(gen)
}
