// Package bridge exposes the engine to a UI process: an HTTP endpoint
// serving the rendered frame and a websocket accepting transport,
// scrub, view, and drop events.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/drop"
	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/preview"
	"github.com/moviola/engine/internal/scene"
	"github.com/moviola/engine/internal/store"
	"github.com/moviola/engine/internal/surface"
	"github.com/moviola/engine/internal/transport"
)

// Event is a UI message. Type selects which fields matter.
type Event struct {
	Type      string `json:"type"`
	Key       string `json:"key,omitempty"`
	TextEntry bool   `json:"textEntry,omitempty"`

	Fraction float64 `json:"fraction,omitempty"`

	Mode string `json:"mode,omitempty"`

	Kind       string            `json:"kind,omitempty"`
	AssetID    string            `json:"assetId,omitempty"`
	Name       string            `json:"name,omitempty"`
	Path       string            `json:"path,omitempty"`
	CategoryID string            `json:"categoryId,omitempty"`
	Movement   string            `json:"movement,omitempty"`
	Mood       string            `json:"mood,omitempty"`
	Duration   float64           `json:"duration,omitempty"`
	Trajectory []TrajectoryPoint `json:"trajectory,omitempty"`

	Phase string  `json:"phase,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Z     float64 `json:"z,omitempty"`

	Direction string  `json:"direction,omitempty"`
	Step      float64 `json:"step,omitempty"`

	PuppetID string  `json:"puppetId,omitempty"`
	Field    string  `json:"field,omitempty"`
	Degrees  float64 `json:"degrees,omitempty"`
}

// TrajectoryPoint is the wire form of a camera keyframe.
type TrajectoryPoint struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Zoom float64 `json:"zoom"`
}

// Ack reports what an event did.
type Ack struct {
	Type     string `json:"type"`
	Consumed bool   `json:"consumed"`
	Error    string `json:"error,omitempty"`
}

// Server wires the HTTP surface to the engine internals.
type Server struct {
	view     store.View
	input    *transport.Input
	drops    *drop.Handler
	views    *surface.ViewController
	upgrader websocket.Upgrader

	scene        *surface.SceneSurface
	frames       *preview.Compositor
	thumbWorkers int

	srv *http.Server
}

// NewServer builds the bridge. All handlers run against the same
// shared state the local bindings use.
func NewServer(view store.View, input *transport.Input, drops *drop.Handler, views *surface.ViewController) *Server {
	s := &Server{
		view:  view,
		input: input,
		drops: drops,
		views: views,
		upgrader: websocket.Upgrader{
			// Local UI process only; the listener binds loopback.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/frame.png", s.handleFrame)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/thumbnails", s.handleThumbnails)
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{Handler: mux}
	return s
}

// AttachScene routes pointer, camera, and puppet-edit events to the
// scene surface. Without it those events ack with an error.
func (s *Server) AttachScene(scene *surface.SceneSurface) {
	s.scene = scene
}

// AttachFrames enables the thumbnails route, rendering at most workers
// shots at a time.
func (s *Server) AttachFrames(frames *preview.Compositor, workers int) {
	s.frames = frames
	if workers < 1 {
		workers = 1
	}
	s.thumbWorkers = workers
}

// Handler exposes the route table for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves on addr until Shutdown.
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Infof("bridge listening on http://%s", ln.Addr())
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img, err := s.views.Render()
	if err != nil {
		log.Warnf("frame render: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		log.Debugf("frame encode: %v", err)
	}
}

type stateResponse struct {
	Playhead      int     `json:"playhead"`
	FrameIndex    int     `json:"frameIndex"`
	Duration      int     `json:"duration"`
	ZoomLevel     int     `json:"zoomLevel"`
	PlaybackState string  `json:"playbackState"`
	PlaybackSpeed float64 `json:"playbackSpeed"`
	ViewMode      string  `json:"viewMode"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tl := s.view.Timeline()
	pv := s.view.Preview()
	resp := stateResponse{
		Playhead:      tl.PlayheadPosition,
		FrameIndex:    tl.FrameIndex(),
		Duration:      tl.Duration,
		ZoomLevel:     tl.ZoomLevel,
		PlaybackState: string(pv.PlaybackState),
		PlaybackSpeed: pv.PlaybackSpeed,
		ViewMode:      string(s.views.Mode()),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debugf("state encode: %v", err)
	}
}

type thumbEntry struct {
	ShotID string `json:"shotId"`
	PNG    []byte `json:"png"`
}

func (s *Server) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	if s.frames == nil {
		http.Error(w, "thumbnails not available", http.StatusNotFound)
		return
	}

	tw := queryInt(r, "w", 160)
	th := queryInt(r, "h", 90)

	thumbs, err := s.frames.Thumbnails(r.Context(), tw, th, s.thumbWorkers)
	if err != nil {
		log.Warnf("thumbnails: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	entries := make([]thumbEntry, 0, len(thumbs))
	for _, t := range thumbs {
		var buf bytes.Buffer
		if err := png.Encode(&buf, t.Image); err != nil {
			log.Debugf("thumbnail encode: %v", err)
			continue
		}
		entries = append(entries, thumbEntry{ShotID: t.ShotID, PNG: buf.Bytes()})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Debugf("thumbnails encode: %v", err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("ws read: %v", err)
			}
			return
		}
		ack := s.dispatch(ev)
		if err := conn.WriteJSON(ack); err != nil {
			log.Debugf("ws write: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(ev Event) Ack {
	switch ev.Type {
	case "key":
		consumed := s.input.HandleKey(transport.KeyEvent{
			Key:              transport.Key(ev.Key),
			TextEntryFocused: ev.TextEntry,
		})
		return Ack{Type: ev.Type, Consumed: consumed}

	case "scrub":
		s.input.Scrub(ev.Fraction)
		return Ack{Type: ev.Type, Consumed: true}

	case "view":
		s.views.SwitchTo(surface.Mode(ev.Mode))
		return Ack{Type: ev.Type, Consumed: true}

	case "drop":
		asset, err := decodeAsset(ev)
		if err != nil {
			return Ack{Type: ev.Type, Error: err.Error()}
		}
		s.drops.Handle(drop.Payload{Asset: asset, CategoryID: ev.CategoryID})
		return Ack{Type: ev.Type, Consumed: true}

	case "pointer":
		if s.scene == nil {
			return Ack{Type: ev.Type, Error: "scene surface not attached"}
		}
		switch ev.Phase {
		case "down":
			return Ack{Type: ev.Type, Consumed: s.scene.PointerDown(ev.X, ev.Y)}
		case "move":
			s.scene.PointerMove(ev.X, ev.Y)
			return Ack{Type: ev.Type, Consumed: true}
		case "up":
			s.scene.PointerUp()
			return Ack{Type: ev.Type, Consumed: true}
		case "leave":
			s.scene.PointerLeave()
			return Ack{Type: ev.Type, Consumed: true}
		default:
			return Ack{Type: ev.Type, Error: "unknown pointer phase: " + ev.Phase}
		}

	case "camera":
		if s.scene == nil {
			return Ack{Type: ev.Type, Error: "scene surface not attached"}
		}
		if ev.Direction == "reset" {
			s.scene.ResetCamera()
			return Ack{Type: ev.Type, Consumed: true}
		}
		dir, ok := moveDirection(ev.Direction)
		if !ok {
			return Ack{Type: ev.Type, Error: "unknown camera direction: " + ev.Direction}
		}
		step := ev.Step
		if step <= 0 {
			step = 0.5
		}
		s.scene.MoveCamera(dir, step)
		return Ack{Type: ev.Type, Consumed: true}

	case "puppet":
		if s.scene == nil {
			return Ack{Type: ev.Type, Error: "scene surface not attached"}
		}
		switch ev.Field {
		case "position":
			ok := s.scene.SetPuppetPosition(ev.PuppetID, scene.Vec3{X: ev.X, Y: ev.Y, Z: ev.Z})
			return Ack{Type: ev.Type, Consumed: ok}
		case "rotation":
			ok := s.scene.SetPuppetRotation(ev.PuppetID, ev.Degrees)
			return Ack{Type: ev.Type, Consumed: ok}
		default:
			return Ack{Type: ev.Type, Error: "unknown puppet field: " + ev.Field}
		}

	default:
		return Ack{Type: ev.Type, Error: "unknown event type"}
	}
}

func moveDirection(name string) (scene.MoveDirection, bool) {
	switch name {
	case "forward":
		return scene.MoveForward, true
	case "backward":
		return scene.MoveBackward, true
	case "left":
		return scene.MoveLeft, true
	case "right":
		return scene.MoveRight, true
	default:
		return 0, false
	}
}

func decodeAsset(ev Event) (model.Asset, error) {
	switch ev.Kind {
	case "character":
		return model.NewCharacter(ev.AssetID, ev.Name, ev.Path), nil
	case "environment":
		return model.NewEnvironment(ev.AssetID, ev.Name, ev.Path), nil
	case "prop":
		return model.NewProp(ev.AssetID, ev.Name, ev.Path), nil
	case "visual-style":
		return model.NewVisualStyle(ev.AssetID, ev.Name, ev.Path), nil
	case "camera-preset":
		var meta *model.CameraMetadata
		if ev.Movement != "" {
			meta = &model.CameraMetadata{MovementType: ev.Movement, Duration: ev.Duration}
			for _, p := range ev.Trajectory {
				meta.Trajectory = append(meta.Trajectory, model.TrajectoryKeyframe{
					Time: p.Time, X: p.X, Y: p.Y, Z: p.Z, Zoom: p.Zoom,
				})
			}
		}
		return model.NewCameraPreset(ev.AssetID, ev.Name, meta), nil
	case "lighting-rig":
		var meta *model.LightingMetadata
		if ev.Mood != "" {
			meta = &model.LightingMetadata{Mood: ev.Mood}
		}
		return model.NewLightingRig(ev.AssetID, ev.Name, meta), nil
	case "template":
		return model.NewTemplate(ev.AssetID, ev.Name), nil
	default:
		return nil, errUnknownKind(ev.Kind)
	}
}

type errUnknownKind string

func (e errUnknownKind) Error() string { return "unknown asset kind: " + string(e) }
