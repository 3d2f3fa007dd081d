// Package config holds the engine configuration and its YAML
// persistence.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/moviola/engine/internal/model"
)

// Playback and render defaults.
const (
	DefaultFPS    = 24
	DefaultWidth  = 1280
	DefaultHeight = 720
)

type Config struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	FPS          int     `yaml:"fps"`
	Format       string  `yaml:"format"`
	Quality      int     `yaml:"quality"`
	Workers      int     `yaml:"workers"`
	LoopPlayback bool    `yaml:"loopPlayback"`
	CameraStep   float64 `yaml:"cameraStep"`
	HistoryCap   int     `yaml:"historyCap"`
	ListenAddr   string  `yaml:"listenAddr"`
	LayoutPath   string  `yaml:"layoutPath"`
	NoGPU        bool    `yaml:"noGPU"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		FPS:        DefaultFPS,
		Format:     "mp4",
		Quality:    75,
		Workers:    runtime.NumCPU(),
		CameraStep: 0.5,
		HistoryCap: 200,
		ListenAddr: "127.0.0.1:8750",
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write saves the configuration as YAML.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate normalizes soft fields and rejects unusable ones. The canvas
// never drops below the default resolution.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be in 1..100, got %d", c.Quality)
	}
	if c.Width < DefaultWidth {
		c.Width = DefaultWidth
	}
	if c.Height < DefaultHeight {
		c.Height = DefaultHeight
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.CameraStep <= 0 {
		c.CameraStep = 0.5
	}
	if c.HistoryCap < 1 {
		c.HistoryCap = 200
	}
	return nil
}

// Settings projects the config onto the shared project settings. The
// numeric quality collapses to the tier names the project model uses.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Resolution: model.Resolution{Width: c.Width, Height: c.Height},
		Format:     c.Format,
		FPS:        c.FPS,
		Quality:    c.QualityTier(),
	}
}

// QualityTier maps the 1..100 quality scale onto a named tier.
func (c *Config) QualityTier() string {
	switch {
	case c.Quality <= 40:
		return "draft"
	case c.Quality <= 80:
		return "standard"
	default:
		return "high"
	}
}
