// Package store holds the shared Timeline/Preview/Project state.
//
// A single Store instance is created at editor mount and injected into
// every component. Only the playback clock and the drop handler receive
// the writable *Store; everything else is handed the read-only View, so
// the writer set is enforced at the type level.
package store

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/model"
)

// View is the read-only contract handed to observer components. Snapshot
// accessors return copies; mutating a snapshot has no effect on shared
// state.
type View interface {
	Timeline() model.Timeline
	Preview() model.Preview
	Project() model.Project
}

// Store is the single mutable state container. All mutations serialize
// through one mutex, so a drop can never interleave with a half-applied
// clock tick.
type Store struct {
	mu       sync.Mutex
	timeline model.Timeline
	preview  model.Preview
	project  model.Project
}

var _ View = (*Store)(nil)

// New creates a store with the given project settings and an empty
// timeline at zoom level 1.
func New(settings model.Settings) *Store {
	return &Store{
		timeline: model.Timeline{ZoomLevel: 1},
		preview: model.Preview{
			PlaybackState: model.PlaybackStopped,
			PlaybackSpeed: 1,
		},
		project: model.Project{Settings: settings},
	}
}

// Timeline returns a snapshot of the timeline state.
func (s *Store) Timeline() model.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotTimeline(s.timeline)
}

// Preview returns a snapshot of the preview state.
func (s *Store) Preview() model.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// Project returns a snapshot of the project state.
func (s *Store) Project() model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

func snapshotTimeline(t model.Timeline) model.Timeline {
	out := t
	out.Shots = append([]model.Shot(nil), t.Shots...)
	out.Tracks = append([]model.Track(nil), t.Tracks...)
	out.SelectedElements = append([]string(nil), t.SelectedElements...)
	out.Markers = append([]model.Marker(nil), t.Markers...)
	out.Regions = append([]model.Region(nil), t.Regions...)
	for i := range out.Shots {
		out.Shots[i].Layers = append([]model.Layer(nil), t.Shots[i].Layers...)
		out.Shots[i].ReferenceImages = append([]model.ReferenceImage(nil), t.Shots[i].ReferenceImages...)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetShots replaces the timeline content and recomputes the duration as
// the end of the last shot.
func (s *Store) SetShots(shots []model.Shot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.Shots = append([]model.Shot(nil), shots...)
	end := 0
	for _, sh := range shots {
		if sh.StartTime+sh.Duration > end {
			end = sh.StartTime + sh.Duration
		}
	}
	s.timeline.Duration = end
	s.timeline.PlayheadPosition = clamp(s.timeline.PlayheadPosition, 0, end)
}

// SetTracks replaces the track list.
func (s *Store) SetTracks(tracks []model.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.Tracks = append([]model.Track(nil), tracks...)
}

// SetZoomLevel sets the pixels-per-frame multiplier, floored at 1. The
// playhead and duration are rescaled so the current frame index is
// preserved.
func (s *Store) SetZoomLevel(zoom int) {
	if zoom < 1 {
		zoom = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.timeline.ZoomLevel
	if old < 1 {
		old = 1
	}
	if zoom == old {
		return
	}
	s.timeline.PlayheadPosition = s.timeline.PlayheadPosition / old * zoom
	s.timeline.Duration = s.timeline.Duration / old * zoom
	for i := range s.timeline.Shots {
		s.timeline.Shots[i].StartTime = s.timeline.Shots[i].StartTime / old * zoom
		s.timeline.Shots[i].Duration = s.timeline.Shots[i].Duration / old * zoom
	}
	s.timeline.ZoomLevel = zoom
}

// SetPlayhead moves the playhead to an absolute position, clamped to
// [0, Duration]. Returns the applied position.
func (s *Store) SetPlayhead(position int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.PlayheadPosition = clamp(position, 0, s.timeline.Duration)
	return s.timeline.PlayheadPosition
}

// MovePlayhead shifts the playhead by delta pixel-units, clamped.
// Returns the applied position.
func (s *Store) MovePlayhead(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.PlayheadPosition = clamp(s.timeline.PlayheadPosition+delta, 0, s.timeline.Duration)
	return s.timeline.PlayheadPosition
}

// SetPlaybackState updates the transport state.
func (s *Store) SetPlaybackState(state model.PlaybackState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview.PlaybackState = state
}

// SetPlaybackSpeed selects a rate multiplier. Values outside the
// supported set are ignored with a warning.
func (s *Store) SetPlaybackSpeed(speed float64) {
	ok := false
	for _, v := range model.PlaybackSpeeds {
		if v == speed {
			ok = true
			break
		}
	}
	if !ok {
		log.Warnf("unsupported playback speed %.2f ignored", speed)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview.PlaybackSpeed = speed
}

// SetCurrentFrame records the reference of the last rendered frame.
func (s *Store) SetCurrentFrame(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview.CurrentFrame = ref
}

// SelectShot marks a shot as the explicit drop target. An empty id
// clears the selection.
func (s *Store) SelectShot(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.timeline.SelectedElements = nil
		return
	}
	s.timeline.SelectedElements = []string{id}
}

// UpdateShot applies fn to the shot with the given id as one transaction
// under the store lock, returning the shot before and after the change.
func (s *Store) UpdateShot(id string, fn func(*model.Shot)) (before, after model.Shot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.timeline.Shots {
		if s.timeline.Shots[i].ID != id {
			continue
		}
		before = s.timeline.Shots[i]
		before.Layers = append([]model.Layer(nil), before.Layers...)
		before.ReferenceImages = append([]model.ReferenceImage(nil), before.ReferenceImages...)
		fn(&s.timeline.Shots[i])
		after = s.timeline.Shots[i]
		after.Layers = append([]model.Layer(nil), after.Layers...)
		after.ReferenceImages = append([]model.ReferenceImage(nil), after.ReferenceImages...)
		return before, after, nil
	}
	return model.Shot{}, model.Shot{}, fmt.Errorf("store: shot %s not found", id)
}

// UpdateLayer applies fn to one layer of one shot as a single
// transaction.
func (s *Store) UpdateLayer(shotID, layerID string, fn func(*model.Layer)) error {
	_, _, err := s.updateLayerLocked(shotID, layerID, fn)
	return err
}

func (s *Store) updateLayerLocked(shotID, layerID string, fn func(*model.Layer)) (model.Layer, model.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.timeline.Shots {
		if s.timeline.Shots[i].ID != shotID {
			continue
		}
		for j := range s.timeline.Shots[i].Layers {
			if s.timeline.Shots[i].Layers[j].ID != layerID {
				continue
			}
			before := s.timeline.Shots[i].Layers[j]
			fn(&s.timeline.Shots[i].Layers[j])
			return before, s.timeline.Shots[i].Layers[j], nil
		}
	}
	return model.Layer{}, model.Layer{}, fmt.Errorf("store: layer %s/%s not found", shotID, layerID)
}
