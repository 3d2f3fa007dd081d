package transport

import (
	"testing"

	"github.com/moviola/engine/internal/clock"
	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/store"
)

func newTestInput(t *testing.T) (*Input, *store.Store) {
	t.Helper()
	st := store.New(model.Settings{
		Resolution: model.Resolution{Width: 1280, Height: 720},
		FPS:        24,
	})
	st.SetShots([]model.Shot{model.NewShot("clip", 0, 200)})
	c := clock.New(st)
	return New(c, st), st
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		name  string
		key   Key
		check func(t *testing.T, st *store.Store)
	}{
		{
			name: "space toggles play",
			key:  KeySpace,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Preview().PlaybackState; got != model.PlaybackPlaying {
					t.Errorf("Expected playing, got %s", got)
				}
			},
		},
		{
			name: "k stops",
			key:  KeyK,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Preview().PlaybackState; got != model.PlaybackStopped {
					t.Errorf("Expected stopped, got %s", got)
				}
				if got := st.Timeline().PlayheadPosition; got != 0 {
					t.Errorf("Expected playhead 0, got %d", got)
				}
			},
		},
		{
			name: "arrow right steps forward",
			key:  KeyArrowRight,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Timeline().PlayheadPosition; got != 51 {
					t.Errorf("Expected 51, got %d", got)
				}
			},
		},
		{
			name: "arrow left steps backward",
			key:  KeyArrowLeft,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Timeline().PlayheadPosition; got != 49 {
					t.Errorf("Expected 49, got %d", got)
				}
			},
		},
		{
			name: "home seeks to start",
			key:  KeyHome,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Timeline().PlayheadPosition; got != 0 {
					t.Errorf("Expected 0, got %d", got)
				}
			},
		},
		{
			name: "end seeks to duration",
			key:  KeyEnd,
			check: func(t *testing.T, st *store.Store) {
				if got := st.Timeline().PlayheadPosition; got != 200 {
					t.Errorf("Expected 200, got %d", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, st := newTestInput(t)
			st.SetPlayhead(50)

			if !in.HandleKey(KeyEvent{Key: tt.key}) {
				t.Fatal("Shortcut was not consumed")
			}
			tt.check(t, st)
		})
	}
}

func TestTextEntrySuppressesEveryShortcut(t *testing.T) {
	keys := []Key{KeySpace, KeyK, KeyArrowLeft, KeyArrowRight, KeyHome, KeyEnd}

	in, st := newTestInput(t)
	st.SetPlayhead(50)

	for _, k := range keys {
		if in.HandleKey(KeyEvent{Key: k, TextEntryFocused: true}) {
			t.Errorf("Shortcut %s fired while typing", k)
		}
	}

	if got := st.Timeline().PlayheadPosition; got != 50 {
		t.Errorf("Suppressed shortcuts mutated the playhead: %d", got)
	}
	if got := st.Preview().PlaybackState; got != model.PlaybackStopped {
		t.Errorf("Suppressed shortcuts changed playback state: %s", got)
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	in, _ := newTestInput(t)
	if in.HandleKey(KeyEvent{Key: "KeyQ"}) {
		t.Error("Unmapped key reported as consumed")
	}
}

func TestScrub(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     int
	}{
		{"start", 0, 0},
		{"middle", 0.5, 100},
		{"end", 1, 200},
		{"overshoot", 1.7, 200},
		{"undershoot", -0.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := newTestInput(t)
			if got := in.Scrub(tt.fraction); got != tt.want {
				t.Errorf("Scrub(%.2f) = %d, want %d", tt.fraction, got, tt.want)
			}
		})
	}
}
