package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"bvh-skin-renderer/internal/skinning"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths, relative ones are taken from the config file's directory
	BaseDir   string `json:"base_dir" toml:"base_dir" yaml:"base_dir"`
	Motion    string `json:"motion" toml:"motion" yaml:"motion"`
	Mesh      string `json:"mesh" toml:"mesh" yaml:"mesh"`
	Texture   string `json:"texture" toml:"texture" yaml:"texture"`
	OutputDir string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	CacheDir  string `json:"cache_dir" toml:"cache_dir" yaml:"cache_dir"`

	// Clip settings
	Scale          float64 `json:"scale" toml:"scale" yaml:"scale"`
	FPS            float64 `json:"fps" toml:"fps" yaml:"fps"` // 0 keeps the clip rate
	StartFrame     int     `json:"start_frame" toml:"start_frame" yaml:"start_frame"`
	EndFrame       int     `json:"end_frame" toml:"end_frame" yaml:"end_frame"` // exclusive, 0 means the whole clip
	StrictChannels bool    `json:"strict_channels" toml:"strict_channels" yaml:"strict_channels"`

	// Render settings
	RenderSize   int     `json:"render_size" toml:"render_size" yaml:"render_size"`
	Supersample  int     `json:"supersample" toml:"supersample" yaml:"supersample"`
	Workers      int     `json:"workers" toml:"workers" yaml:"workers"`
	Format       string  `json:"format" toml:"format" yaml:"format"`
	View         string  `json:"view" toml:"view" yaml:"view"`
	HideSkeleton bool    `json:"hide_skeleton" toml:"hide_skeleton" yaml:"hide_skeleton"`
	BoneWidth    float64 `json:"bone_width" toml:"bone_width" yaml:"bone_width"`

	// Solver overrides, nil keeps skinning.DefaultOptions
	Solver *skinning.Options `json:"solver" toml:"solver" yaml:"solver"`
}

// Load reads a config file and returns Config. The extension picks the
// format: .toml, .yaml/.yml, anything else is JSON. Fields not set in the
// file keep their zero values, except solver fields. BaseDir defaults to
// the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Solver fields missing from the file keep their defaults.
	opts := skinning.DefaultOptions()
	cfg := Config{Solver: &opts}
	if err := unmarshal(path, data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDir = filepath.Join(filepath.Dir(path), cfg.BaseDir)
	}

	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// Resolve anchors file paths at BaseDir, applies CLI flags (which take
// priority when non-zero/non-empty) and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		for _, p := range []*string{&c.Motion, &c.Mesh, &c.Texture, &c.OutputDir, &c.CacheDir} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(c.BaseDir, *p)
			}
		}
	}

	// CLI flags override config file
	if flags.Motion != "" {
		c.Motion = flags.Motion
	}
	if flags.Mesh != "" {
		c.Mesh = flags.Mesh
	}
	if flags.Texture != "" {
		c.Texture = flags.Texture
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.CacheDir != "" {
		c.CacheDir = flags.CacheDir
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.StartFrame > 0 {
		c.StartFrame = flags.StartFrame
	}
	if flags.EndFrame > 0 {
		c.EndFrame = flags.EndFrame
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.NoSkeleton {
		c.HideSkeleton = true
	}

	// Defaults
	if c.OutputDir == "" {
		c.OutputDir = "frames"
	}
	if c.Scale <= 0 {
		c.Scale = 0.02
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.View == "" {
		c.View = "preview"
	}
	if c.BoneWidth <= 0 {
		c.BoneWidth = 0.05
	}
	if c.Solver == nil {
		opts := skinning.DefaultOptions()
		c.Solver = &opts
	} else {
		opts := c.Solver.Clamp()
		c.Solver = &opts
	}
}

// Validate reports settings a render cannot start without.
func (c *Config) Validate() error {
	if c.Motion == "" {
		return fmt.Errorf("config: no motion file (set \"motion\" or -motion)")
	}
	if c.Mesh == "" {
		return fmt.Errorf("config: no mesh file (set \"mesh\" or -mesh)")
	}
	switch c.Format {
	case "webp", "tga":
	default:
		return fmt.Errorf("config: unknown format %q (want webp or tga)", c.Format)
	}
	if c.EndFrame > 0 && c.StartFrame >= c.EndFrame {
		return fmt.Errorf("config: empty frame range %d:%d", c.StartFrame, c.EndFrame)
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Motion     string
	Mesh       string
	Texture    string
	OutputDir  string
	CacheDir   string
	Scale      float64
	FPS        float64
	StartFrame int
	EndFrame   int
	Workers    int
	Format     string
	NoSkeleton bool
}
