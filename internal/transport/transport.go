// Package transport translates physical input into player operations.
package transport

import (
	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/clock"
	"github.com/moviola/engine/internal/store"
)

// Key identifies a physical key in the global shortcut map.
type Key string

const (
	KeySpace      Key = "Space"
	KeyK          Key = "KeyK"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyHome       Key = "Home"
	KeyEnd        Key = "End"
)

// KeyEvent is a keyboard event as delivered by the hosting shell.
// TextEntryFocused is true when the event target is a text-entry
// control; shortcuts never fire in that case so ordinary typing is
// never hijacked.
type KeyEvent struct {
	Key              Key
	TextEntryFocused bool
}

// Input maps keyboard and slider events onto the playback clock. It
// only ever reads shared state; all mutation goes through the clock.
type Input struct {
	clock *clock.Clock
	view  store.View
}

// New creates the input mapper.
func New(c *clock.Clock, view store.View) *Input {
	return &Input{clock: c, view: view}
}

// HandleKey dispatches one keyboard event. Returns true when the event
// was consumed by a shortcut.
func (in *Input) HandleKey(ev KeyEvent) bool {
	// Focus suppression comes first, before any dispatch.
	if ev.TextEntryFocused {
		return false
	}

	switch ev.Key {
	case KeySpace:
		in.clock.Toggle()
	case KeyK:
		in.clock.Stop()
	case KeyArrowLeft:
		in.clock.StepFrame(clock.StepBackward)
	case KeyArrowRight:
		in.clock.StepFrame(clock.StepForward)
	case KeyHome:
		in.clock.Seek(0)
	case KeyEnd:
		in.clock.Seek(in.view.Timeline().Duration)
	default:
		return false
	}
	return true
}

// Scrub maps a slider position in [0, 1] onto an absolute seek. Values
// outside the range are clamped with a warning, matching how a slider
// widget reports overshoot during a fast drag.
func (in *Input) Scrub(fraction float64) int {
	if fraction < 0 || fraction > 1 {
		log.Debugf("scrub fraction %.3f outside [0,1], clamping", fraction)
		if fraction < 0 {
			fraction = 0
		} else {
			fraction = 1
		}
	}
	duration := in.view.Timeline().Duration
	return in.clock.Seek(int(fraction * float64(duration)))
}
