package surface

import (
	"image"
	"math"
	"sync"

	"github.com/gogpu/gg"
	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/scene"
	"github.com/moviola/engine/internal/store"
)

// FallbackNotice is the persistent banner shown while the scene view
// runs on the software rasterizer.
const FallbackNotice = "GPU acceleration not available — using 2D fallback"

// Minimum canvas size, used unless project settings specify larger.
const (
	MinCanvasWidth  = 1280
	MinCanvasHeight = 720
)

const (
	pixelsPerUnit  = 80.0 // drag translation: screen px per scene unit
	hitRadius      = 30.0 // pointer hit-test radius in px
	puppetRadius   = 18.0 // drawn puppet body radius at depth 1
	minRenderDepth = 0.1
)

type dragState struct {
	puppetID string
	startX   float64 // pointer position at gesture start, px
	startY   float64
	origin   scene.Vec3 // puppet position snapshot at gesture start
	deltaX   float64    // live screen-space delta, px
	deltaY   float64
}

// SceneSurface renders the camera and puppet set. On mount it walks its
// backends in order and keeps the first that initializes; falling
// through to the software rasterizer raises the persistent fallback
// notice.
type SceneSurface struct {
	mu      sync.Mutex
	view    store.View
	backend Backend
	notice  string

	camera  scene.Camera
	puppets []scene.Puppet
	drag    *dragState

	onPuppetUpdated func(scene.Puppet)
}

// NewSceneSurface mounts the surface, probing backends in order. With no
// backends given, the software rasterizer is used directly (and no
// notice is raised, since nothing better was asked for).
func NewSceneSurface(view store.View, backends ...Backend) *SceneSurface {
	s := &SceneSurface{view: view, camera: scene.NewCamera()}

	if len(backends) == 0 {
		s.backend = Software2D{}
		return s
	}

	for i, b := range backends {
		if err := b.Init(); err != nil {
			log.Warnf("scene backend %s unavailable: %v", b.Name(), err)
			continue
		}
		s.backend = b
		if i > 0 {
			// A preferred backend was skipped: degraded, not broken.
			s.notice = FallbackNotice
		}
		return s
	}

	// Every backend failed; the software rasterizer always works.
	s.backend = Software2D{}
	s.notice = FallbackNotice
	return s
}

// Close releases the mounted backend.
func (s *SceneSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend != nil {
		s.backend.Close()
	}
}

// BackendName reports which backend is mounted.
func (s *SceneSurface) BackendName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Name()
}

// Notice returns the persistent degradation notice, or "" when the
// preferred backend is live.
func (s *SceneSurface) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// OnPuppetUpdated registers the completed-gesture notification. It fires
// once per committed drag, never for intermediate pointer moves.
func (s *SceneSurface) OnPuppetUpdated(fn func(scene.Puppet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPuppetUpdated = fn
}

// CanvasSize returns the render resolution: project settings, floored at
// 1280x720.
func (s *SceneSurface) CanvasSize() (int, int) {
	res := s.view.Project().Settings.Resolution
	w, h := res.Width, res.Height
	if w < MinCanvasWidth {
		w = MinCanvasWidth
	}
	if h < MinCanvasHeight {
		h = MinCanvasHeight
	}
	return w, h
}

// SetPuppets replaces the puppet set.
func (s *SceneSurface) SetPuppets(puppets []scene.Puppet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puppets = append([]scene.Puppet(nil), puppets...)
}

// Puppets returns a snapshot of the committed puppet set. An in-flight
// drag is not reflected until it commits.
func (s *SceneSurface) Puppets() []scene.Puppet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Puppet(nil), s.puppets...)
}

// SetPuppetPosition is the numeric-editor path: it writes the committed
// state directly and the canvas reflects it on the next render.
func (s *SceneSurface) SetPuppetPosition(id string, pos scene.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.puppets {
		if s.puppets[i].ID == id {
			s.puppets[i].Position = pos
			return true
		}
	}
	return false
}

// SetPuppetRotation sets a puppet's Y rotation in degrees, normalized to
// [0, 360).
func (s *SceneSurface) SetPuppetRotation(id string, degrees float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.puppets {
		if s.puppets[i].ID == id {
			s.puppets[i].RotationY = math.Mod(math.Mod(degrees, 360)+360, 360)
			return true
		}
	}
	return false
}

// MoveCamera translates the scene camera.
func (s *SceneSurface) MoveCamera(dir scene.MoveDirection, step float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Move(dir, step)
}

// ResetCamera restores the default camera pose.
func (s *SceneSurface) ResetCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Reset()
}

// Camera returns the current camera pose.
func (s *SceneSurface) Camera() scene.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// ApplyCameraTrajectory poses the camera from a preset trajectory at the
// given time offset.
func (s *SceneSurface) ApplyCameraTrajectory(keyframes []model.TrajectoryKeyframe, at float64) {
	state := scene.InterpolateTrajectory(keyframes, at)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Position = state.Position
}

// PointerDown starts a drag gesture when a puppet sits under the
// pointer. The puppet's pre-drag position is snapshotted so the whole
// gesture applies one delta to one origin and rounding never
// accumulates across moves.
func (s *SceneSurface) PointerDown(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := s.canvasSizeLocked()
	for i := range s.puppets {
		sx, sy, _, visible := s.project(s.puppets[i].Position, w, h)
		if !visible {
			continue
		}
		if math.Hypot(x-sx, y-sy) <= hitRadius {
			s.drag = &dragState{
				puppetID: s.puppets[i].ID,
				startX:   x,
				startY:   y,
				origin:   s.puppets[i].Position,
			}
			return true
		}
	}
	return false
}

// PointerMove updates the live drag delta. The rendered transform
// follows continuously; committed state and the update notification
// wait for PointerUp.
func (s *SceneSurface) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return
	}
	s.drag.deltaX = x - s.drag.startX
	s.drag.deltaY = y - s.drag.startY
}

// PointerUp commits the gesture: the dragged puppet moves to its
// origin-plus-delta position in one write, and the puppet-updated
// notification fires exactly once.
func (s *SceneSurface) PointerUp() {
	s.mu.Lock()
	drag := s.drag
	s.drag = nil
	if drag == nil {
		s.mu.Unlock()
		return
	}

	var updated scene.Puppet
	var found bool
	for i := range s.puppets {
		if s.puppets[i].ID == drag.puppetID {
			s.puppets[i].Position = draggedPosition(drag)
			updated = s.puppets[i]
			found = true
			break
		}
	}
	fn := s.onPuppetUpdated
	s.mu.Unlock()

	if found && fn != nil {
		fn(updated)
	}
}

// PointerLeave cancels an in-flight gesture, discarding the delta
// without committing or notifying.
func (s *SceneSurface) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = nil
}

// Dragging reports whether a gesture is in flight.
func (s *SceneSurface) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag != nil
}

func draggedPosition(drag *dragState) scene.Vec3 {
	pos := drag.origin
	pos.X += drag.deltaX / pixelsPerUnit
	pos.Z += drag.deltaY / pixelsPerUnit
	return pos
}

func (s *SceneSurface) canvasSizeLocked() (int, int) {
	res := s.view.Project().Settings.Resolution
	w, h := res.Width, res.Height
	if w < MinCanvasWidth {
		w = MinCanvasWidth
	}
	if h < MinCanvasHeight {
		h = MinCanvasHeight
	}
	return w, h
}

// project maps a scene point to canvas coordinates. The boolean is
// false for points at or behind the camera plane.
func (s *SceneSurface) project(p scene.Vec3, w, h int) (float64, float64, float64, bool) {
	depth := s.camera.Position.Z - p.Z
	if depth < minRenderDepth {
		return 0, 0, 0, false
	}
	scale := s.camera.FocalLength * 10 / depth
	sx := float64(w)/2 + (p.X-s.camera.Position.X)*scale
	sy := float64(h)/2 - (p.Y-s.camera.Position.Y)*scale
	return sx, sy, scale, true
}

// Render composes the scene into an image: ground grid, puppets with
// facing markers, and the fallback banner when degraded. An in-flight
// drag renders at its live delta position.
func (s *SceneSurface) Render() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := s.canvasSizeLocked()
	dc := gg.NewContext(w, h)
	defer dc.Close()

	// Background.
	dc.SetRGB(0.10, 0.11, 0.13)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	if err := dc.Fill(); err != nil {
		return nil, err
	}

	s.drawGrid(dc, w, h)

	for i := range s.puppets {
		pos := s.puppets[i].Position
		if s.drag != nil && s.drag.puppetID == s.puppets[i].ID {
			pos = draggedPosition(s.drag)
		}
		s.drawPuppet(dc, s.puppets[i], pos, w, h)
	}

	if s.notice != "" {
		s.drawNotice(dc, w)
	}

	// Drain any batched accelerator work before reading pixels.
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (s *SceneSurface) drawGrid(dc *gg.Context, w, h int) {
	dc.SetRGBA(1, 1, 1, 0.12)
	dc.SetLineWidth(1)
	for i := -10; i <= 10; i++ {
		// Lines along Z.
		x1, y1, _, ok1 := s.project(scene.Vec3{X: float64(i), Y: 0, Z: 5}, w, h)
		x2, y2, _, ok2 := s.project(scene.Vec3{X: float64(i), Y: 0, Z: -5}, w, h)
		if ok1 && ok2 {
			dc.DrawLine(x1, y1, x2, y2)
		}
		// Lines along X.
		x1, y1, _, ok1 = s.project(scene.Vec3{X: -10, Y: 0, Z: float64(i) / 2}, w, h)
		x2, y2, _, ok2 = s.project(scene.Vec3{X: 10, Y: 0, Z: float64(i) / 2}, w, h)
		if ok1 && ok2 {
			dc.DrawLine(x1, y1, x2, y2)
		}
	}
	_ = dc.Stroke()
}

func (s *SceneSurface) drawPuppet(dc *gg.Context, p scene.Puppet, pos scene.Vec3, w, h int) {
	sx, sy, scale, ok := s.project(pos, w, h)
	if !ok {
		return
	}
	r := puppetRadius * scale / 100
	if r < 4 {
		r = 4
	}

	dc.SetRGBA(0.95, 0.76, 0.20, 0.9)
	dc.DrawCircle(sx, sy, r)
	_ = dc.Fill()

	// Facing marker from the Y rotation.
	rad := p.RotationY * math.Pi / 180
	dc.SetRGBA(1, 1, 1, 0.9)
	dc.SetLineWidth(2)
	dc.DrawLine(sx, sy, sx+r*1.6*math.Sin(rad), sy-r*1.6*math.Cos(rad))
	_ = dc.Stroke()
}

func (s *SceneSurface) drawNotice(dc *gg.Context, w int) {
	dc.SetRGBA(0.85, 0.55, 0.10, 0.92)
	dc.DrawRectangle(0, 0, float64(w), 28)
	_ = dc.Fill()
	// Banner label renders only when a face is configured; the notice
	// text itself stays queryable through Notice().
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(FallbackNotice, float64(w)/2, 14, 0.5, 0.5)
}
