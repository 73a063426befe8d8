// Package config loads the optional flint.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// Config represents the optional flint.yaml configuration.
type Config struct {
	Window      WindowConfig      `yaml:"window"`
	PixelRatio  float64           `yaml:"pixel_ratio,omitempty"`
	Frames      int               `yaml:"frames,omitempty"`
	CacheExtent CacheExtentConfig `yaml:"cache_extent"`
}

// WindowConfig sets the logical surface size frames are laid out against.
type WindowConfig struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// CacheExtentConfig configures viewport look-ahead layout.
type CacheExtentConfig struct {
	// Style is "pixel" or "viewport".
	Style string  `yaml:"style,omitempty"`
	Value float64 `yaml:"value,omitempty"`
}

// Resolved contains resolved configuration values with defaults applied.
type Resolved struct {
	Root             string
	ModulePath       string
	GoVersion        string
	Width            float64
	Height           float64
	PixelRatio       float64
	Frames           int
	CacheExtentStyle string
	CacheExtent      float64
}

// LoadOptional reads flint.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "flint.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read flint.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flint.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads flint.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{
		Root:             dir,
		Width:            cfg.Window.Width,
		Height:           cfg.Window.Height,
		PixelRatio:       cfg.PixelRatio,
		Frames:           cfg.Frames,
		CacheExtentStyle: strings.ToLower(strings.TrimSpace(cfg.CacheExtent.Style)),
		CacheExtent:      cfg.CacheExtent.Value,
	}
	if resolved.Width <= 0 {
		resolved.Width = 800
	}
	if resolved.Height <= 0 {
		resolved.Height = 600
	}
	if resolved.PixelRatio <= 0 {
		resolved.PixelRatio = 1
	}
	if resolved.Frames <= 0 {
		resolved.Frames = 60
	}
	switch resolved.CacheExtentStyle {
	case "", "pixel":
		resolved.CacheExtentStyle = "pixel"
		if resolved.CacheExtent <= 0 {
			resolved.CacheExtent = 250
		}
	case "viewport":
		if resolved.CacheExtent <= 0 {
			resolved.CacheExtent = 1
		}
	default:
		return nil, fmt.Errorf("flint.yaml: unknown cache_extent.style %q (want pixel or viewport)", cfg.CacheExtent.Style)
	}

	if modulePath, goVersion, err := readModule(dir); err == nil {
		resolved.ModulePath = modulePath
		resolved.GoVersion = goVersion
	}
	return resolved, nil
}

// readModule parses the project's go.mod for its module path and Go version.
func readModule(dir string) (modulePath, goVersion string, err error) {
	path := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	file, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if file.Module != nil {
		modulePath = file.Module.Mod.Path
	}
	if file.Go != nil {
		goVersion = file.Go.Version
	}
	return modulePath, goVersion, nil
}
