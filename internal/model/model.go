package model

import "github.com/google/uuid"

// GenerationStatus tracks the lifecycle of a shot's generated frame.
type GenerationStatus string

const (
	StatusPending GenerationStatus = "pending"
	StatusRunning GenerationStatus = "running"
	StatusDone    GenerationStatus = "done"
	StatusFailed  GenerationStatus = "failed"
)

// Vec2 is a 2D point or offset.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Transform places a layer on the canvas. Position, scale and anchor are
// normalized, centered coordinates in [-0.5, 0.5] relative to the canvas
// dimensions. Rotation is in degrees.
type Transform struct {
	Position Vec2    `yaml:"position"`
	Scale    Vec2    `yaml:"scale"`
	Rotation float64 `yaml:"rotation"`
	Anchor   Vec2    `yaml:"anchor"`
}

// DefaultTransform returns the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: Vec2{X: 1, Y: 1}}
}

// Layer belongs to exactly one shot. Its transform is mutated only by
// direct-manipulation gestures that snapshot the transform at gesture
// start and apply deltas, so repeated moves never accumulate rounding
// error.
type Layer struct {
	ID        string
	Name      string
	Transform Transform
}

// ReferenceImage steers generation for a shot. Weight is the steering
// strength; style references are attached at a reduced weight.
type ReferenceImage struct {
	AssetID string
	Name    string
	Path    string
	Weight  float64
}

// GenerationParams are the per-shot sampler settings.
type GenerationParams struct {
	Seed      int64
	Denoising float64
	Steps     int
	Guidance  float64
	Sampler   string
	Scheduler string
}

// Shot is a single clip on the timeline. StartTime and Duration are in
// pixel-equivalent timeline units (frames multiplied by the timeline zoom
// level).
type Shot struct {
	ID              string
	Title           string
	StartTime       int
	Duration        int
	Layers          []Layer
	ReferenceImages []ReferenceImage
	Prompt          string
	Params          GenerationParams
	Status          GenerationStatus
}

// NewShot creates a pending shot occupying [start, start+duration).
func NewShot(title string, start, duration int) Shot {
	return Shot{
		ID:        uuid.New().String(),
		Title:     title,
		StartTime: start,
		Duration:  duration,
		Params: GenerationParams{
			Denoising: 0.75,
			Steps:     20,
			Guidance:  7.5,
			Sampler:   "euler",
			Scheduler: "karras",
		},
		Status: StatusPending,
	}
}

// Contains reports whether the given playhead position falls inside the
// shot's time range.
func (s Shot) Contains(position int) bool {
	return position >= s.StartTime && position < s.StartTime+s.Duration
}

// Track groups shots horizontally on the timeline.
type Track struct {
	ID      string
	Name    string
	Locked  bool
	Visible bool
}

// Marker is a named point of interest on the timeline.
type Marker struct {
	ID       string
	Label    string
	Position int
}

// Region is a named span on the timeline.
type Region struct {
	ID    string
	Label string
	Start int
	End   int
}

// PlaybackState is the transport state of the preview player.
type PlaybackState string

const (
	PlaybackStopped PlaybackState = "stopped"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackPaused  PlaybackState = "paused"
)

// PlaybackSpeeds are the selectable playback rate multipliers.
var PlaybackSpeeds = []float64{0.25, 0.5, 1, 1.5, 2}

// Timeline is the shared editing state: shots, tracks, the playhead and
// the selection sets.
//
// PlayheadPosition and Duration are pixel-equivalent units; the current
// frame index is PlayheadPosition / ZoomLevel. The playhead is always in
// [0, Duration].
type Timeline struct {
	Shots            []Shot
	Tracks           []Track
	PlayheadPosition int
	ZoomLevel        int
	Duration         int
	SelectedElements []string
	SelectedMarkers  []string
	SelectedRegions  []string
	Markers          []Marker
	Regions          []Region
}

// FrameIndex converts the playhead position into a frame count.
func (t Timeline) FrameIndex() int {
	if t.ZoomLevel < 1 {
		return t.PlayheadPosition
	}
	return t.PlayheadPosition / t.ZoomLevel
}

// ShotAt returns the shot whose range contains the position, if any.
func (t Timeline) ShotAt(position int) (Shot, bool) {
	for _, s := range t.Shots {
		if s.Contains(position) {
			return s, true
		}
	}
	return Shot{}, false
}

// ShotByID looks a shot up by id.
func (t Timeline) ShotByID(id string) (Shot, bool) {
	for _, s := range t.Shots {
		if s.ID == id {
			return s, true
		}
	}
	return Shot{}, false
}

// Preview is the render-side state of the player.
type Preview struct {
	CurrentFrame  string // opaque reference to the last rendered bitmap, may be empty
	PlaybackState PlaybackState
	PlaybackSpeed float64
}

// Resolution is the output canvas size in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Settings are the project-level render settings.
type Settings struct {
	Resolution Resolution `yaml:"resolution"`
	Format     string     `yaml:"format"`
	FPS        int        `yaml:"fps"`
	Quality    string     `yaml:"quality"`
}

// Project wraps settings plus the save/generation status surfaced to the
// out-of-scope project collaborators.
type Project struct {
	Settings         Settings
	SaveStatus       string
	GenerationStatus string
}
