package surface

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/scene"
	"github.com/moviola/engine/internal/store"
)

type stubBackend struct {
	name    string
	initErr error
	inits   int
	closed  bool
}

func (b *stubBackend) Name() string { return b.name }
func (b *stubBackend) Init() error {
	b.inits++
	return b.initErr
}
func (b *stubBackend) Close() { b.closed = true }

type stubSurface struct {
	renders int
}

func (s *stubSurface) Render() (image.Image, error) {
	s.renders++
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func testView() store.View {
	return store.New(model.Settings{
		Resolution: model.Resolution{Width: 1920, Height: 1080},
		FPS:        24,
	})
}

func TestBackendSelection(t *testing.T) {
	t.Run("preferred backend wins without notice", func(t *testing.T) {
		gpu := &stubBackend{name: "gpu"}
		s := NewSceneSurface(testView(), gpu, &stubBackend{name: "soft"})
		if got := s.BackendName(); got != "gpu" {
			t.Errorf("backend = %q, want gpu", got)
		}
		if s.Notice() != "" {
			t.Errorf("unexpected notice %q", s.Notice())
		}
	})

	t.Run("failed preferred falls through with notice", func(t *testing.T) {
		gpu := &stubBackend{name: "gpu", initErr: errors.New("no adapter")}
		soft := &stubBackend{name: "soft"}
		s := NewSceneSurface(testView(), gpu, soft)
		if got := s.BackendName(); got != "soft" {
			t.Errorf("backend = %q, want soft", got)
		}
		if s.Notice() != FallbackNotice {
			t.Errorf("notice = %q, want fallback notice", s.Notice())
		}
		if gpu.inits != 1 {
			t.Errorf("gpu init attempts = %d, want 1", gpu.inits)
		}
	})

	t.Run("all backends failing lands on software rasterizer", func(t *testing.T) {
		s := NewSceneSurface(testView(), &stubBackend{name: "a", initErr: errors.New("x")})
		if got := s.BackendName(); got != "soft2d" {
			t.Errorf("backend = %q, want soft2d", got)
		}
		if s.Notice() != FallbackNotice {
			t.Errorf("notice = %q, want fallback notice", s.Notice())
		}
	})

	t.Run("no backends means software without notice", func(t *testing.T) {
		s := NewSceneSurface(testView())
		if got := s.BackendName(); got != "soft2d" {
			t.Errorf("backend = %q, want soft2d", got)
		}
		if s.Notice() != "" {
			t.Errorf("unexpected notice %q", s.Notice())
		}
	})

	t.Run("close releases the mounted backend", func(t *testing.T) {
		gpu := &stubBackend{name: "gpu"}
		s := NewSceneSurface(testView(), gpu)
		s.Close()
		if !gpu.closed {
			t.Error("backend not closed")
		}
	})
}

func TestCanvasSize(t *testing.T) {
	tests := []struct {
		name  string
		res   model.Resolution
		wantW int
		wantH int
	}{
		{"small project floors to minimum", model.Resolution{Width: 640, Height: 480}, 1280, 720},
		{"large project keeps its size", model.Resolution{Width: 1920, Height: 1080}, 1920, 1080},
		{"mixed axes floor independently", model.Resolution{Width: 2560, Height: 600}, 2560, 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(model.Settings{Resolution: tt.res, FPS: 24})
			s := NewSceneSurface(st)
			w, h := s.CanvasSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("canvas = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func centerPuppet() scene.Puppet {
	// Sits on the camera axis so it projects to the canvas center.
	cam := scene.NewCamera()
	return scene.Puppet{
		ID:       "p1",
		Name:     "Hero",
		Position: scene.Vec3{X: cam.Position.X, Y: cam.Position.Y, Z: 0},
	}
}

func TestDragGesture(t *testing.T) {
	s := NewSceneSurface(testView())
	s.SetPuppets([]scene.Puppet{centerPuppet()})

	var notified []scene.Puppet
	s.OnPuppetUpdated(func(p scene.Puppet) { notified = append(notified, p) })

	w, h := s.CanvasSize()
	cx, cy := float64(w)/2, float64(h)/2

	if !s.PointerDown(cx, cy) {
		t.Fatal("pointer down on puppet not recognized")
	}
	origin := s.Puppets()[0].Position

	s.PointerMove(cx+40, cy)
	s.PointerMove(cx+80, cy+80)

	if len(notified) != 0 {
		t.Fatalf("notified during move, want none, got %d", len(notified))
	}
	if got := s.Puppets()[0].Position; got != origin {
		t.Errorf("committed position changed mid-drag: %+v", got)
	}

	s.PointerUp()

	if len(notified) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(notified))
	}
	got := s.Puppets()[0].Position
	wantX := origin.X + 80/80.0
	wantZ := origin.Z + 80/80.0
	if math.Abs(got.X-wantX) > 1e-9 || math.Abs(got.Z-wantZ) > 1e-9 {
		t.Errorf("committed position = %+v, want X=%v Z=%v", got, wantX, wantZ)
	}

	// A second up without a gesture must not notify again.
	s.PointerUp()
	if len(notified) != 1 {
		t.Errorf("stray notification on idle pointer up")
	}
}

func TestDragMiss(t *testing.T) {
	s := NewSceneSurface(testView())
	s.SetPuppets([]scene.Puppet{centerPuppet()})
	if s.PointerDown(5, 5) {
		t.Error("pointer down far from any puppet started a drag")
	}
	if s.Dragging() {
		t.Error("dragging after a miss")
	}
}

func TestDragCancel(t *testing.T) {
	s := NewSceneSurface(testView())
	s.SetPuppets([]scene.Puppet{centerPuppet()})

	notified := 0
	s.OnPuppetUpdated(func(scene.Puppet) { notified++ })

	w, h := s.CanvasSize()
	origin := s.Puppets()[0].Position
	if !s.PointerDown(float64(w)/2, float64(h)/2) {
		t.Fatal("pointer down not recognized")
	}
	s.PointerMove(float64(w)/2+200, float64(h)/2)
	s.PointerLeave()

	if s.Dragging() {
		t.Error("still dragging after pointer leave")
	}
	if notified != 0 {
		t.Errorf("cancelled gesture notified %d times", notified)
	}
	if got := s.Puppets()[0].Position; got != origin {
		t.Errorf("cancelled gesture moved puppet to %+v", got)
	}
}

func TestNumericEdits(t *testing.T) {
	s := NewSceneSurface(testView())
	s.SetPuppets([]scene.Puppet{centerPuppet()})

	if !s.SetPuppetPosition("p1", scene.Vec3{X: 2, Y: 0, Z: -1}) {
		t.Fatal("position edit rejected")
	}
	if got := s.Puppets()[0].Position; got != (scene.Vec3{X: 2, Y: 0, Z: -1}) {
		t.Errorf("position = %+v", got)
	}

	if s.SetPuppetPosition("missing", scene.Vec3{}) {
		t.Error("edit of unknown puppet accepted")
	}

	tests := []struct {
		in   float64
		want float64
	}{
		{90, 90},
		{360, 0},
		{-45, 315},
		{725, 5},
	}
	for _, tt := range tests {
		if !s.SetPuppetRotation("p1", tt.in) {
			t.Fatalf("rotation edit %v rejected", tt.in)
		}
		if got := s.Puppets()[0].RotationY; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("rotation %v normalized to %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCameraControls(t *testing.T) {
	s := NewSceneSurface(testView())
	start := s.Camera().Position

	s.MoveCamera(scene.MoveForward, 1.5)
	if got := s.Camera().Position.Z; got != start.Z-1.5 {
		t.Errorf("Z after forward = %v, want %v", got, start.Z-1.5)
	}
	s.MoveCamera(scene.MoveRight, 2)
	if got := s.Camera().Position.X; got != start.X+2 {
		t.Errorf("X after right = %v, want %v", got, start.X+2)
	}

	s.ResetCamera()
	if got := s.Camera().Position; got != scene.DefaultCameraPosition {
		t.Errorf("position after reset = %+v", got)
	}
}

func TestApplyCameraTrajectory(t *testing.T) {
	s := NewSceneSurface(testView())
	keyframes := []model.TrajectoryKeyframe{
		{Time: 0, X: 0, Y: 1, Z: 6, Zoom: 1},
		{Time: 2, X: 4, Y: 1, Z: 2, Zoom: 1},
	}
	s.ApplyCameraTrajectory(keyframes, 2)
	got := s.Camera().Position
	if math.Abs(got.X-4) > 1e-6 || math.Abs(got.Z-2) > 1e-6 {
		t.Errorf("camera at trajectory end = %+v, want X=4 Z=2", got)
	}
}

func TestRender(t *testing.T) {
	s := NewSceneSurface(testView(), &stubBackend{name: "gpu", initErr: errors.New("down")})
	s.SetPuppets([]scene.Puppet{centerPuppet()})

	img, err := s.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 1920 || b.Dy() != 1080 {
		t.Errorf("rendered %dx%d, want 1920x1080", b.Dx(), b.Dy())
	}
}

func TestViewController(t *testing.T) {
	st := store.New(model.Settings{FPS: 24})
	video := &stubSurface{}
	sceneS := &stubSurface{}
	vc := NewViewController(video, sceneS)

	if vc.Mode() != ModeVideo {
		t.Fatalf("initial mode = %v, want video", vc.Mode())
	}

	vc.SwitchTo(ModeScene)
	if vc.Mode() != ModeScene || vc.Active() != Surface(sceneS) {
		t.Error("switch to scene did not mount the scene surface")
	}

	// Repeated switches to the active mode stay put.
	vc.SwitchTo(ModeScene)
	vc.SwitchTo(ModeScene)
	if vc.Mode() != ModeScene {
		t.Error("idempotent switch changed mode")
	}

	// Unknown modes are ignored; the last valid mode stays active.
	vc.SwitchTo(Mode("diagram"))
	if vc.Mode() != ModeScene {
		t.Errorf("unknown mode changed state to %v", vc.Mode())
	}

	// Rapid toggling converges on the last request.
	for i := 0; i < 7; i++ {
		if i%2 == 0 {
			vc.SwitchTo(ModeVideo)
		} else {
			vc.SwitchTo(ModeScene)
		}
	}
	if vc.Mode() != ModeVideo {
		t.Errorf("mode after toggling = %v, want video", vc.Mode())
	}

	if _, err := vc.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if video.renders != 1 {
		t.Errorf("video renders = %d, want 1", video.renders)
	}

	// Switching views never touches shared playback state.
	before := st.Preview()
	vc.SwitchTo(ModeScene)
	vc.SwitchTo(ModeVideo)
	if after := st.Preview(); after != before {
		t.Errorf("view switch mutated preview state: %+v -> %+v", before, after)
	}
}
