package model

// Asset is a sealed set of droppable library items. Each kind carries its
// own metadata shape, so dispatching on a dropped asset is an exhaustive
// type switch instead of a stringly-typed branch with a fallthrough
// warning.
type Asset interface {
	AssetID() string
	AssetName() string
	Kind() string

	sealed()
}

type assetBase struct {
	ID   string
	Name string
}

func (b assetBase) AssetID() string   { return b.ID }
func (b assetBase) AssetName() string { return b.Name }
func (assetBase) sealed()             {}

// CharacterAsset is a character turnaround or portrait reference.
type CharacterAsset struct {
	assetBase
	ImagePath string
}

func (CharacterAsset) Kind() string { return "character" }

// EnvironmentAsset is a location or backdrop reference.
type EnvironmentAsset struct {
	assetBase
	ImagePath string
}

func (EnvironmentAsset) Kind() string { return "environment" }

// PropAsset is an object reference.
type PropAsset struct {
	assetBase
	ImagePath string
}

func (PropAsset) Kind() string { return "prop" }

// VisualStyleAsset carries a look reference; applying it both attaches
// the image at reduced weight and augments the shot prompt.
type VisualStyleAsset struct {
	assetBase
	ImagePath string
}

func (VisualStyleAsset) Kind() string { return "visual-style" }

// CameraMetadata describes a camera move preset.
type CameraMetadata struct {
	MovementType string               `yaml:"movementType"`
	Duration     float64              `yaml:"duration"`
	FocalLength  float64              `yaml:"focalLength"`
	Trajectory   []TrajectoryKeyframe `yaml:"trajectory"`
}

// TrajectoryKeyframe is one sampled camera pose along a preset move.
type TrajectoryKeyframe struct {
	Time float64 `yaml:"time"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Z    float64 `yaml:"z"`
	Zoom float64 `yaml:"zoom"`
}

// CameraPresetAsset applies a camera movement to a shot. Metadata may be
// nil for presets imported without motion data; applying such a preset is
// a silent no-op.
type CameraPresetAsset struct {
	assetBase
	Camera *CameraMetadata
}

func (CameraPresetAsset) Kind() string { return "camera-preset" }

// LightingMetadata describes a lighting rig.
type LightingMetadata struct {
	Mood             string  `yaml:"mood"`
	LightCount       int     `yaml:"lightCount"`
	Intensity        float64 `yaml:"intensity"`
	ColorTemperature int     `yaml:"colorTemperature"`
}

// LightingRigAsset applies a lighting mood to a shot's prompt. Metadata
// may be nil; applying such a rig is a silent no-op.
type LightingRigAsset struct {
	assetBase
	Lighting *LightingMetadata
}

func (LightingRigAsset) Kind() string { return "lighting-rig" }

// TemplateAsset is a whole-project template. Templates are never applied
// to a single shot; dropping one only warns.
type TemplateAsset struct {
	assetBase
}

func (TemplateAsset) Kind() string { return "template" }

// NewCharacter builds a character asset.
func NewCharacter(id, name, imagePath string) CharacterAsset {
	return CharacterAsset{assetBase: assetBase{ID: id, Name: name}, ImagePath: imagePath}
}

// NewEnvironment builds an environment asset.
func NewEnvironment(id, name, imagePath string) EnvironmentAsset {
	return EnvironmentAsset{assetBase: assetBase{ID: id, Name: name}, ImagePath: imagePath}
}

// NewProp builds a prop asset.
func NewProp(id, name, imagePath string) PropAsset {
	return PropAsset{assetBase: assetBase{ID: id, Name: name}, ImagePath: imagePath}
}

// NewVisualStyle builds a visual-style asset.
func NewVisualStyle(id, name, imagePath string) VisualStyleAsset {
	return VisualStyleAsset{assetBase: assetBase{ID: id, Name: name}, ImagePath: imagePath}
}

// NewCameraPreset builds a camera-preset asset. meta may be nil.
func NewCameraPreset(id, name string, meta *CameraMetadata) CameraPresetAsset {
	return CameraPresetAsset{assetBase: assetBase{ID: id, Name: name}, Camera: meta}
}

// NewLightingRig builds a lighting-rig asset. meta may be nil.
func NewLightingRig(id, name string, meta *LightingMetadata) LightingRigAsset {
	return LightingRigAsset{assetBase: assetBase{ID: id, Name: name}, Lighting: meta}
}

// NewTemplate builds a template asset.
func NewTemplate(id, name string) TemplateAsset {
	return TemplateAsset{assetBase: assetBase{ID: id, Name: name}}
}
