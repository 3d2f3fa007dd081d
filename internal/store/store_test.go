package store

import (
	"sync"
	"testing"

	"github.com/moviola/engine/internal/model"
)

func defaultSettings() model.Settings {
	return model.Settings{
		Resolution: model.Resolution{Width: 1280, Height: 720},
		Format:     "mp4",
		FPS:        24,
		Quality:    "standard",
	}
}

func TestPlayheadClamping(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{model.NewShot("a", 0, 100)})

	tests := []struct {
		name     string
		position int
		want     int
	}{
		{"inside", 50, 50},
		{"negative", -10, 0},
		{"past end", 500, 100},
		{"exact end", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SetPlayhead(tt.position)
			if got != tt.want {
				t.Errorf("SetPlayhead(%d) = %d, want %d", tt.position, got, tt.want)
			}
		})
	}
}

func TestMovePlayheadNeverNegative(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{model.NewShot("a", 0, 100)})
	s.SetPlayhead(5)

	if got := s.MovePlayhead(-10); got != 0 {
		t.Errorf("Expected clamp to 0, got %d", got)
	}
}

func TestSetShotsRecomputesDuration(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{
		model.NewShot("a", 0, 100),
		model.NewShot("b", 100, 140),
	})

	if d := s.Timeline().Duration; d != 240 {
		t.Errorf("Expected duration 240, got %d", d)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{model.NewShot("a", 0, 100)})

	snap := s.Timeline()
	snap.Shots[0].Prompt = "mutated"
	snap.PlayheadPosition = 99

	if got := s.Timeline().Shots[0].Prompt; got != "" {
		t.Errorf("Snapshot mutation leaked into store: %q", got)
	}
	if got := s.Timeline().PlayheadPosition; got != 0 {
		t.Errorf("Snapshot mutation leaked into playhead: %d", got)
	}
}

func TestSetPlaybackSpeedRejectsUnsupported(t *testing.T) {
	s := New(defaultSettings())

	s.SetPlaybackSpeed(1.5)
	if got := s.Preview().PlaybackSpeed; got != 1.5 {
		t.Errorf("Expected speed 1.5, got %.2f", got)
	}

	s.SetPlaybackSpeed(3.0)
	if got := s.Preview().PlaybackSpeed; got != 1.5 {
		t.Errorf("Unsupported speed applied: %.2f", got)
	}
}

func TestUpdateShotTransaction(t *testing.T) {
	s := New(defaultSettings())
	shot := model.NewShot("a", 0, 100)
	s.SetShots([]model.Shot{shot})

	before, after, err := s.UpdateShot(shot.ID, func(sh *model.Shot) {
		sh.Prompt = "wide establishing shot"
		sh.ReferenceImages = append(sh.ReferenceImages, model.ReferenceImage{Name: "ref", Weight: 1})
	})
	if err != nil {
		t.Fatalf("UpdateShot failed: %v", err)
	}

	if before.Prompt != "" || len(before.ReferenceImages) != 0 {
		t.Error("Before snapshot should reflect pre-mutation state")
	}
	if after.Prompt != "wide establishing shot" || len(after.ReferenceImages) != 1 {
		t.Error("After snapshot should reflect both field writes")
	}
}

func TestUpdateShotUnknownID(t *testing.T) {
	s := New(defaultSettings())
	if _, _, err := s.UpdateShot("missing", func(*model.Shot) {}); err == nil {
		t.Error("Expected error for unknown shot id")
	}
}

func TestZoomRescalesPlayhead(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{model.NewShot("a", 0, 100)})
	s.SetPlayhead(40)

	s.SetZoomLevel(10)

	tl := s.Timeline()
	if tl.PlayheadPosition != 400 {
		t.Errorf("Expected playhead 400 after zoom, got %d", tl.PlayheadPosition)
	}
	if tl.Duration != 1000 {
		t.Errorf("Expected duration 1000 after zoom, got %d", tl.Duration)
	}
	if tl.FrameIndex() != 40 {
		t.Errorf("Frame index should be preserved, got %d", tl.FrameIndex())
	}
}

func TestConcurrentWritersKeepInvariant(t *testing.T) {
	s := New(defaultSettings())
	s.SetShots([]model.Shot{model.NewShot("a", 0, 1000)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.MovePlayhead(n - 4)
			}
		}(i)
	}
	wg.Wait()

	tl := s.Timeline()
	if tl.PlayheadPosition < 0 || tl.PlayheadPosition > tl.Duration {
		t.Errorf("Playhead invariant violated: %d not in [0, %d]", tl.PlayheadPosition, tl.Duration)
	}
}
