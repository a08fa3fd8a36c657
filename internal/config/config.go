package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"treemind/internal/arrange"
	"treemind/internal/interact"
	"treemind/internal/mindmap"
	"treemind/internal/viewport"
)

// Config holds treemind configuration.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas"`
	Gestures GesturesConfig `toml:"gestures"`
	Arrange  ArrangeConfig  `toml:"arrange"`
	Export   ExportConfig   `toml:"export"`
	Storage  StorageConfig  `toml:"storage"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// CanvasConfig sizes the square canvas and new-child placement.
type CanvasConfig struct {
	Extent      float64 `toml:"extent"`
	ChildRadius float64 `toml:"child_radius"`
}

// GesturesConfig scales pointer deltas.
type GesturesConfig struct {
	PanSensitivity  float64 `toml:"pan_sensitivity"`
	DragSensitivity float64 `toml:"drag_sensitivity"`
}

type ArrangeConfig struct {
	Spacing    float64 `toml:"spacing"`
	Gap        float64 `toml:"gap"`
	MinSpacing float64 `toml:"min_spacing"`
	MinGap     float64 `toml:"min_gap"`
	Fill       float64 `toml:"fill"`
}

type ExportConfig struct {
	PixelScale float64 `toml:"pixel_scale"`
}

type StorageConfig struct {
	SaveDirectory string `toml:"save_directory"`
}

type UIConfig struct {
	Confirmations bool `toml:"confirmations"`
}

type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Default returns the default configuration.
func Default() *Config {
	a := arrange.DefaultOptions()
	return &Config{
		Canvas: CanvasConfig{
			Extent:      mindmap.DefaultExtent,
			ChildRadius: mindmap.DefaultChildRadius,
		},
		Gestures: GesturesConfig{
			PanSensitivity:  viewport.DefaultPanSensitivity,
			DragSensitivity: interact.DefaultDragSensitivity,
		},
		Arrange: ArrangeConfig{
			Spacing:    a.BaseSpacing,
			Gap:        a.BaseGap,
			MinSpacing: a.MinSpacing,
			MinGap:     a.MinGap,
			Fill:       a.Fill,
		},
		Export: ExportConfig{PixelScale: 1},
		UI:     UIConfig{Confirmations: true},
		Log:    LogConfig{Level: "info"},
	}
}

// Dir returns the treemind config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "treemind")
}

// Path is the default config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path, or at Path() when path is empty. A missing
// file yields the defaults. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to path, or to Path() when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the default config file if there is none.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default(), "")
}

// normalize replaces values that cannot work with their defaults.
func (c *Config) normalize() {
	def := Default()
	fix := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	fix(&c.Canvas.Extent, def.Canvas.Extent)
	c.Canvas.Extent = min(c.Canvas.Extent, mindmap.MaxExtent)
	fix(&c.Canvas.ChildRadius, def.Canvas.ChildRadius)
	fix(&c.Gestures.PanSensitivity, def.Gestures.PanSensitivity)
	fix(&c.Gestures.DragSensitivity, def.Gestures.DragSensitivity)
	fix(&c.Arrange.Spacing, def.Arrange.Spacing)
	fix(&c.Arrange.Gap, def.Arrange.Gap)
	fix(&c.Arrange.MinSpacing, def.Arrange.MinSpacing)
	fix(&c.Arrange.MinGap, def.Arrange.MinGap)
	fix(&c.Arrange.Fill, def.Arrange.Fill)
	fix(&c.Export.PixelScale, def.Export.PixelScale)
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		c.Log.Level = def.Log.Level
	}
	c.Storage.SaveDirectory = expandDir(c.Storage.SaveDirectory)
}

// ArrangeOptions converts the [arrange] section.
func (c *Config) ArrangeOptions() arrange.Options {
	return arrange.Options{
		BaseSpacing: c.Arrange.Spacing,
		BaseGap:     c.Arrange.Gap,
		MinSpacing:  c.Arrange.MinSpacing,
		MinGap:      c.Arrange.MinGap,
		Fill:        c.Arrange.Fill,
	}
}

// LogLevel parses [log] level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// GetSavePath places a bare file name in the save directory, if one is set.
// Paths with a directory part are left alone.
func (c *Config) GetSavePath(filename string) string {
	if c.Storage.SaveDirectory == "" || filepath.Base(filename) != filename {
		return filename
	}
	if err := os.MkdirAll(c.Storage.SaveDirectory, 0o755); err != nil {
		log.Warn("cannot create save directory", "dir", c.Storage.SaveDirectory, "err", err)
	}
	return filepath.Join(c.Storage.SaveDirectory, filename)
}

func expandDir(dir string) string {
	if dir == "" {
		return ""
	}
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	return dir
}
