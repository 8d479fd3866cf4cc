// Package viewer owns the lifecycle of the single rendering engine instance.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"

	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/internal/reconcile"
)

// Permanent base imagery installed on every new engine.
const (
	BaseCredit   = "NASA/MOLA Science Team"
	BaseMaxLevel = 10
)

var (
	// ErrNoManager is returned by FromContext when no manager was attached.
	ErrNoManager = errors.New("viewer: no manager in context")
	// ErrNoSurface is returned by InitViewer for an empty surface.
	ErrNoSurface = errors.New("viewer: surface has no area")
)

// Engine is the rendering engine contract the manager and the UI consume.
type Engine interface {
	reconcile.LayerStack
	AddBaseImagerySource(p globe.ImageryProvider) *globe.ImageryLayer
	FlyTo(dest globe.Cartographic, o globe.Orientation)
	Tick() bool
	Camera() *globe.Camera
	Resize(s globe.Surface)
	Render() string
	Updates() <-chan struct{}
	Destroy() error
}

// Factory constructs an engine bound to a surface.
type Factory func(surface globe.Surface, opts globe.Options) Engine

// GlobeFactory builds the terminal globe engine.
func GlobeFactory(surface globe.Surface, opts globe.Options) Engine {
	return globe.NewViewer(surface, opts)
}

// Config carries the engine settings that do not depend on the surface.
type Config struct {
	Factory    Factory
	Loader     globe.TileLoader
	Start      globe.Cartographic
	Background color.RGBA
	Logger     *log.Logger
}

// Manager creates the engine once, hands it out, and destroys it once.
// Its methods run on the UI goroutine.
type Manager struct {
	cfg    Config
	logger *log.Logger
	engine Engine
}

// NewManager creates a manager with no engine.
func NewManager(cfg Config) *Manager {
	if cfg.Factory == nil {
		cfg.Factory = GlobeFactory
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Background == (color.RGBA{}) {
		cfg.Background = color.RGBA{A: 0xff}
	}
	return &Manager{cfg: cfg, logger: cfg.Logger}
}

// InitViewer returns the existing engine, or creates one bound to surface.
// A new engine has every chrome widget, the default globe and the sky box
// turned off, a solid background, and the Viking mosaic as its permanent
// base layer.
func (m *Manager) InitViewer(surface globe.Surface) (Engine, error) {
	if m.engine != nil {
		return m.engine, nil
	}
	if surface.Width <= 0 || surface.Height <= 0 {
		return nil, fmt.Errorf("initializing viewer %dx%d: %w", surface.Width, surface.Height, ErrNoSurface)
	}

	opts := globe.Options{
		// every chrome widget stays off
		ShowGlobe:  false,
		ShowSkyBox: false,
		Background: m.cfg.Background,
		Start:      m.cfg.Start,
		Loader:     m.cfg.Loader,
		Logger:     m.logger,
	}
	e := m.cfg.Factory(surface, opts)
	if e == nil {
		return nil, errors.New("viewer: factory returned no engine")
	}
	e.AddBaseImagerySource(globe.NewURLTemplateProvider(globe.URLTemplateOptions{
		URL:          layers.VikingURL,
		MinimumLevel: 0,
		MaximumLevel: BaseMaxLevel,
		Credit:       BaseCredit,
	}))

	m.engine = e
	m.logger.Debug("viewer initialized", "width", surface.Width, "height", surface.Height)
	return e, nil
}

// Viewer returns the current engine, or nil.
func (m *Manager) Viewer() Engine { return m.engine }

// FlyToLocation flies the camera to a coordinate looking straight down with
// north up. Without an engine it does nothing.
func (m *Manager) FlyToLocation(longitude, latitude, height float64) {
	if m.engine == nil {
		return
	}
	m.engine.FlyTo(globe.Cartographic{
		Longitude: longitude,
		Latitude:  latitude,
		Height:    height,
	}, globe.TopDown)
}

// Destroy tears the engine down and forgets it. Further calls do nothing.
func (m *Manager) Destroy() {
	if m.engine == nil {
		return
	}
	if err := m.engine.Destroy(); err != nil {
		m.logger.Warn("viewer destroy", "err", err)
	}
	m.engine = nil
}

type ctxKey struct{}

// WithManager returns a context carrying m.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the manager attached with WithManager.
func FromContext(ctx context.Context) (*Manager, error) {
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	if !ok || m == nil {
		return nil, ErrNoManager
	}
	return m, nil
}
