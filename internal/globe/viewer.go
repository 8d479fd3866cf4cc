package globe

import (
	"context"
	"errors"
	"image/color"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

// ErrDestroyed is returned by Destroy on a viewer that was already destroyed.
var ErrDestroyed = errors.New("globe: viewer already destroyed")

// Surface is the terminal area a viewer draws into, in cells.
type Surface struct {
	Width  int
	Height int
}

// Options configures a Viewer. The zero value is usable but bare; use
// DefaultOptions for the engine's stock configuration.
type Options struct {
	// Built-in chrome widgets. Any enabled widget reserves the last row of
	// the frame for the widget bar.
	Timeline             bool
	Animation            bool
	Geocoder             bool
	BaseLayerPicker      bool
	SceneModePicker      bool
	NavigationHelpButton bool
	HomeButton           bool
	InfoBox              bool
	SelectionIndicator   bool
	CreditDisplay        bool

	// ShowGlobe paints the engine's default planet where no imagery covers a pixel.
	ShowGlobe bool
	// ShowSkyBox paints stars outside the mapped latitude band.
	ShowSkyBox bool
	// Background fills every pixel nothing else covers.
	Background color.RGBA

	// Start is the initial camera position.
	Start Cartographic

	Loader         TileLoader
	Clock          clockwork.Clock
	Logger         *log.Logger
	MaxCachedTiles int
}

// DefaultOptions returns the stock engine configuration: every widget on,
// default globe and sky box visible.
func DefaultOptions() Options {
	return Options{
		Timeline:             true,
		Animation:            true,
		Geocoder:             true,
		BaseLayerPicker:      true,
		SceneModePicker:      true,
		NavigationHelpButton: true,
		HomeButton:           true,
		InfoBox:              true,
		SelectionIndicator:   true,
		CreditDisplay:        true,
		ShowGlobe:            true,
		ShowSkyBox:           true,
		Background:           color.RGBA{A: 0xff},
		Start:                Cartographic{Height: 20_000_000},
		MaxCachedTiles:       512,
	}
}

// Viewer is one engine instance bound to a surface.
//
// Layer stack, camera and rendering belong to the caller's goroutine. Only
// the tile cache is shared with background loads and is guarded by mu.
type Viewer struct {
	surface Surface
	opts    Options
	logger  *log.Logger
	clock   clockwork.Clock
	camera  *Camera
	layers  []*ImageryLayer

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	destroyed bool
	tiles     map[string]*tileEntry
	tileOrder []string
	inflight  map[string]bool
	updates   chan struct{}
}

// NewViewer creates a viewer drawing into surface.
func NewViewer(surface Surface, opts Options) *Viewer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxCachedTiles <= 0 {
		opts.MaxCachedTiles = 512
	}
	if opts.Start.Height == 0 {
		opts.Start.Height = 20_000_000
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Viewer{
		surface:  surface,
		opts:     opts,
		logger:   opts.Logger,
		clock:    opts.Clock,
		camera:   newCamera(opts.Clock, opts.Start),
		ctx:      ctx,
		cancel:   cancel,
		tiles:    make(map[string]*tileEntry),
		inflight: make(map[string]bool),
		updates:  make(chan struct{}, 1),
	}
}

// Surface returns the surface the viewer currently draws into.
func (v *Viewer) Surface() Surface { return v.surface }

// Resize changes the surface size.
func (v *Viewer) Resize(s Surface) { v.surface = s }

// Camera exposes the viewer's camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// FlyTo starts a camera flight. It is ignored once the viewer is destroyed.
func (v *Viewer) FlyTo(dest Cartographic, o Orientation) {
	if v.IsDestroyed() {
		return
	}
	v.camera.FlyTo(dest, o)
}

// Tick advances a running camera flight; see Camera.Tick.
func (v *Viewer) Tick() bool {
	if v.IsDestroyed() {
		return false
	}
	return v.camera.Tick()
}

// Updates delivers a value whenever a tile load finishes and a new frame
// would look different. The channel is closed by Destroy.
func (v *Viewer) Updates() <-chan struct{} { return v.updates }

// IsDestroyed reports whether Destroy has been called.
func (v *Viewer) IsDestroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// Destroy abandons in-flight tile loads and releases every cached tile and
// layer. A second call returns ErrDestroyed.
func (v *Viewer) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.destroyed {
		return ErrDestroyed
	}
	v.destroyed = true
	v.cancel()
	v.tiles = nil
	v.tileOrder = nil
	v.layers = nil
	close(v.updates)
	return nil
}
