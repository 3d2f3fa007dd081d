package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout is a complete scene description: camera pose plus puppet set.
// Layouts round-trip through YAML so a scene survives between editing
// sessions.
type Layout struct {
	Version string   `yaml:"version"`
	Camera  Camera   `yaml:"camera"`
	Puppets []Puppet `yaml:"puppets"`
}

// NewLayout returns an empty layout with the default camera.
func NewLayout() *Layout {
	return &Layout{Version: "1.0", Camera: NewCamera()}
}

// WriteLayout writes a layout to a YAML file.
func WriteLayout(layout *Layout, path string) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayout reads a layout from a YAML file.
func ReadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("scene: malformed layout file %s: %w", path, err)
	}
	return &layout, nil
}
