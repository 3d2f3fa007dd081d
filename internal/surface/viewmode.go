package surface

import (
	"image"
	"sync"
)

// Mode selects which rendering surface is mounted.
type Mode string

const (
	ModeVideo Mode = "video"
	ModeScene Mode = "scene"
)

// Surface is anything that can render the current state into an image.
type Surface interface {
	Render() (image.Image, error)
}

// ViewController switches the active surface between the 2D video
// preview and the 3D scene view. Switching never touches playback
// state, the playhead or any other shared field; it only changes which
// surface the next Render call reaches.
type ViewController struct {
	mu    sync.Mutex
	mode  Mode
	video Surface
	scene Surface
}

// NewViewController mounts the video surface initially.
func NewViewController(video, scene Surface) *ViewController {
	return &ViewController{mode: ModeVideo, video: video, scene: scene}
}

// SwitchTo changes the active surface. Switching to the current mode is
// a no-op; unknown modes are ignored, so rapid repeated switching always
// converges to the last valid request.
func (v *ViewController) SwitchTo(mode Mode) {
	if mode != ModeVideo && mode != ModeScene {
		return
	}
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
}

// Mode returns the currently mounted mode.
func (v *ViewController) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Active returns the mounted surface.
func (v *ViewController) Active() Surface {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mode == ModeScene {
		return v.scene
	}
	return v.video
}

// Render renders through the mounted surface.
func (v *ViewController) Render() (image.Image, error) {
	return v.Active().Render()
}
