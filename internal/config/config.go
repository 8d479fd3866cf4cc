// Package config loads Areo's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/Mr-Dark-debug/areo/internal/layers"
)

// Config is the whole configuration file.
type Config struct {
	LogLevel string `toml:"log_level"`
	// LogFile receives log output while the full-screen viewer runs.
	LogFile string `toml:"log_file"`

	Viewer ViewerConfig  `toml:"viewer"`
	Tiles  TilesConfig   `toml:"tiles"`
	Server ServerConfig  `toml:"server"`
	Layers []LayerConfig `toml:"layers"`
	Places []PlaceConfig `toml:"places"`
}

// ViewerConfig sets the engine's background and starting camera.
type ViewerConfig struct {
	Background     string  `toml:"background"`
	StartLongitude float64 `toml:"start_longitude"`
	StartLatitude  float64 `toml:"start_latitude"`
	StartHeight    float64 `toml:"start_height"`
}

// TilesConfig configures the tile fetcher and its cache.
type TilesConfig struct {
	DBPath            string  `toml:"db_path"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxAgeHours       int     `toml:"max_age_hours"`
	UserAgent         string  `toml:"user_agent"`
}

// Timeout is the per-request upstream timeout.
func (t TilesConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// MaxAge is how long a cached tile stays fresh.
func (t TilesConfig) MaxAge() time.Duration {
	return time.Duration(t.MaxAgeHours) * time.Hour
}

// ServerConfig configures the tile proxy daemon.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// LayerConfig declares an extra imagery layer appended to the defaults.
type LayerConfig struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	Kind    string   `toml:"kind"`
	URL     string   `toml:"url"`
	Visible *bool    `toml:"visible"`
	Opacity *float64 `toml:"opacity"`
}

// PlaceConfig is a built-in gazetteer entry.
type PlaceConfig struct {
	Name      string  `toml:"name"`
	Longitude float64 `toml:"longitude"`
	Latitude  float64 `toml:"latitude"`
	Height    float64 `toml:"height"`
	Note      string  `toml:"note"`
}

// Dir is the per-user directory holding config, database and log.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".areo"
	}
	return filepath.Join(home, ".areo")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() Config {
	dir := Dir()
	return Config{
		LogLevel: "info",
		LogFile:  filepath.Join(dir, "areo.log"),
		Viewer: ViewerConfig{
			Background:  "#000000",
			StartHeight: 8_000_000,
		},
		Tiles: TilesConfig{
			DBPath:            filepath.Join(dir, "areo.db"),
			RequestsPerSecond: 8,
			Burst:             16,
			TimeoutSeconds:    15,
			MaxAgeHours:       720,
			UserAgent:         "areo/0.1",
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:9878",
		},
		Places: []PlaceConfig{
			{Name: "Olympus Mons", Longitude: -133.8, Latitude: 18.65, Height: 900_000, Note: "Tallest volcano in the solar system"},
			{Name: "Valles Marineris", Longitude: -59.2, Latitude: -13.9, Height: 2_500_000},
			{Name: "Gale Crater", Longitude: 137.8, Latitude: -5.4, Height: 400_000, Note: "Curiosity"},
			{Name: "Jezero Crater", Longitude: 77.5, Latitude: 18.4, Height: 300_000, Note: "Perseverance"},
			{Name: "Hellas Planitia", Longitude: 70.0, Latitude: -42.4, Height: 3_000_000},
		},
	}
}

// Load reads the file at path over the defaults. An empty path means
// DefaultPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	path = ExpandHome(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Gazetteer entries in the file replace the built-in list.
	builtin := cfg.Places
	cfg.Places = nil
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if !md.IsDefined("places") {
		cfg.Places = builtin
	}

	cfg.LogFile = ExpandHome(cfg.LogFile)
	cfg.Tiles.DBPath = ExpandHome(cfg.Tiles.DBPath)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := c.Viewer.BackgroundColor(); err != nil {
		return err
	}
	if c.Tiles.RequestsPerSecond < 0 {
		return errors.New("tiles.requests_per_second must not be negative")
	}
	for _, l := range c.Layers {
		if l.ID == "" {
			return errors.New("layers: entry without id")
		}
		if _, err := layers.ParseKind(l.Kind); err != nil {
			return fmt.Errorf("layers.%s: %w", l.ID, err)
		}
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// BackgroundColor parses the "#rrggbb" background.
func (v ViewerConfig) BackgroundColor() (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	s := strings.TrimPrefix(v.Background, "#")
	if s == "" {
		return c, nil
	}
	if len(s) != 6 {
		return c, fmt.Errorf("viewer.background %q: want #rrggbb", v.Background)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c, fmt.Errorf("viewer.background %q: %w", v.Background, err)
	}
	c.R, c.G, c.B = uint8(n>>16), uint8(n>>8), uint8(n)
	return c, nil
}

// NewRegistry seeds a registry with the default layers followed by the
// configured ones. A configured base layer only becomes the active base
// when it is visible.
func (c Config) NewRegistry() (*layers.Registry, error) {
	seed := layers.Defaults()
	if err := layers.Validate(seed); err != nil {
		return nil, fmt.Errorf("default layers: %w", err)
	}
	r := layers.NewRegistry(seed)
	for _, lc := range c.Layers {
		kind, err := layers.ParseKind(lc.Kind)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", lc.ID, err)
		}
		prevBase := r.ActiveBase()
		if err := r.Add(layers.NewLayer{ID: lc.ID, Name: lc.Name, Kind: kind, SourceURL: lc.URL}); err != nil {
			return nil, err
		}
		if lc.Visible != nil && !*lc.Visible {
			if kind == layers.KindBase && prevBase != "" {
				_ = r.SetActiveBase(prevBase)
			} else {
				r.ToggleVisibility(lc.ID)
			}
		}
		if lc.Opacity != nil {
			r.SetOpacity(lc.ID, *lc.Opacity)
		}
	}
	return r, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
