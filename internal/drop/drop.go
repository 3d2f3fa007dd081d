// Package drop applies dragged-in library assets to the shot under edit.
//
// Every successful drop mutates its target shot in a single store
// transaction and emits exactly one change record, so one drop is one
// undo step no matter how many fields it touched.
package drop

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/moviola/engine/internal/history"
	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/store"
)

// Reference-image steering weights. Style references are attached at
// reduced weight so they tint the look without overpowering subject
// references.
const (
	StandardWeight = 1.0
	StyleWeight    = 0.5
)

// Payload is the drop event contract: the dragged asset plus the library
// category it came from.
type Payload struct {
	Asset      model.Asset
	CategoryID string
}

// OverrideFunc lets a caller replace the built-in dispatch. It returns
// the change to record, or nil when the drop made no mutation. The
// at-most-one-record-per-drop contract still holds: whatever the
// override does, only its single returned change reaches the ledger.
type OverrideFunc func(payload Payload, target model.Shot) *history.Change

// CameraApplier receives the motion data of a successfully dropped
// camera preset, so the scene camera can take up its trajectory.
type CameraApplier func(model.CameraMetadata)

// Handler resolves drop targets and applies type-specific mutations. It
// is the second permitted writer of shared state.
type Handler struct {
	store    *store.Store
	recorder history.Recorder
	override OverrideFunc
	applyCam CameraApplier
}

// New creates a drop handler. recorder may not be nil.
func New(st *store.Store, recorder history.Recorder) *Handler {
	return &Handler{store: st, recorder: recorder}
}

// SetOverride installs a caller-supplied drop handler taking precedence
// over the built-in dispatch. Pass nil to restore the default.
func (h *Handler) SetOverride(fn OverrideFunc) {
	h.override = fn
}

// SetCameraApplier installs the scene-camera hook invoked after a
// camera-preset drop commits. Presets without motion data never reach
// it.
func (h *Handler) SetCameraApplier(fn CameraApplier) {
	h.applyCam = fn
}

// resolveTarget picks the shot a drop applies to: the explicitly
// selected shot wins, then the shot whose range contains the playhead.
func (h *Handler) resolveTarget() (model.Shot, bool) {
	tl := h.store.Timeline()

	for _, id := range tl.SelectedElements {
		if s, ok := tl.ShotByID(id); ok {
			return s, true
		}
	}
	if s, ok := tl.ShotAt(tl.PlayheadPosition); ok {
		return s, true
	}
	return model.Shot{}, false
}

// Handle processes one drop event. A missing target or an inapplicable
// asset is absorbed as a no-op; Handle never returns an error for those
// cases because no caller can do anything useful with one.
func (h *Handler) Handle(payload Payload) {
	if payload.Asset == nil {
		log.Warn("drop carried no asset, ignoring")
		return
	}

	target, ok := h.resolveTarget()
	if !ok {
		log.Warnf("no target shot for dropped %s %q, ignoring",
			payload.Asset.Kind(), payload.Asset.AssetName())
		return
	}

	if h.override != nil {
		if change := h.override(payload, target); change != nil {
			h.recorder.Record(*change)
		}
		return
	}

	mutate, description := h.dispatch(payload.Asset)
	if mutate == nil {
		return
	}

	before, after, err := h.store.UpdateShot(target.ID, mutate)
	if err != nil {
		log.Warnf("drop target vanished mid-flight: %v", err)
		return
	}
	h.recorder.Record(history.NewChange(description, target.ID, before, after))

	// A committed camera preset also poses the scene camera.
	if preset, ok := payload.Asset.(model.CameraPresetAsset); ok && preset.Camera != nil && h.applyCam != nil {
		h.applyCam(*preset.Camera)
	}
}

// dispatch maps an asset variant to its shot mutation. A nil mutation
// means the drop is a no-op for this asset.
func (h *Handler) dispatch(asset model.Asset) (func(*model.Shot), string) {
	switch a := asset.(type) {
	case model.CharacterAsset:
		return appendReference(a.AssetID(), a.AssetName(), a.ImagePath, StandardWeight),
			fmt.Sprintf("add character reference %q", a.AssetName())

	case model.EnvironmentAsset:
		return appendReference(a.AssetID(), a.AssetName(), a.ImagePath, StandardWeight),
			fmt.Sprintf("add environment reference %q", a.AssetName())

	case model.PropAsset:
		return appendReference(a.AssetID(), a.AssetName(), a.ImagePath, StandardWeight),
			fmt.Sprintf("add prop reference %q", a.AssetName())

	case model.VisualStyleAsset:
		ref := appendReference(a.AssetID(), a.AssetName(), a.ImagePath, StyleWeight)
		style := fmt.Sprintf("in the style of %s", a.AssetName())
		return func(s *model.Shot) {
			ref(s)
			s.Prompt = appendDescriptor(s.Prompt, style)
		}, fmt.Sprintf("apply visual style %q", a.AssetName())

	case model.CameraPresetAsset:
		if a.Camera == nil {
			// Preset imported without motion data; nothing to apply.
			return nil, ""
		}
		movement := fmt.Sprintf("%s camera movement", a.Camera.MovementType)
		return func(s *model.Shot) {
			s.Prompt = appendDescriptor(s.Prompt, movement)
		}, fmt.Sprintf("apply camera preset %q", a.AssetName())

	case model.LightingRigAsset:
		if a.Lighting == nil {
			return nil, ""
		}
		mood := fmt.Sprintf("%s lighting", a.Lighting.Mood)
		return func(s *model.Shot) {
			s.Prompt = appendDescriptor(s.Prompt, mood)
		}, fmt.Sprintf("apply lighting rig %q", a.AssetName())

	case model.TemplateAsset:
		log.Warnf("template %q cannot be dropped on a single shot", a.AssetName())
		return nil, ""

	default:
		log.Warnf("unrecognized asset kind %q, ignoring", asset.Kind())
		return nil, ""
	}
}

func appendReference(assetID, name, path string, weight float64) func(*model.Shot) {
	return func(s *model.Shot) {
		s.ReferenceImages = append(s.ReferenceImages, model.ReferenceImage{
			AssetID: assetID,
			Name:    name,
			Path:    path,
			Weight:  weight,
		})
	}
}

func appendDescriptor(prompt, descriptor string) string {
	if prompt == "" {
		return descriptor
	}
	return prompt + ", " + descriptor
}
