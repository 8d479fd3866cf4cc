package viewer

import (
	"context"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
)

type flight struct {
	dest globe.Cartographic
	o    globe.Orientation
}

type fakeEngine struct {
	*globe.Viewer
	opts      globe.Options
	flights   []flight
	destroyed int
}

func (f *fakeEngine) FlyTo(dest globe.Cartographic, o globe.Orientation) {
	f.flights = append(f.flights, flight{dest, o})
	f.Viewer.FlyTo(dest, o)
}

func (f *fakeEngine) Destroy() error {
	f.destroyed++
	return f.Viewer.Destroy()
}

type fakeFactory struct {
	built []*fakeEngine
}

func (ff *fakeFactory) build(s globe.Surface, opts globe.Options) Engine {
	e := &fakeEngine{Viewer: globe.NewViewer(s, opts), opts: opts}
	ff.built = append(ff.built, e)
	return e
}

func newTestManager() (*Manager, *fakeFactory) {
	ff := &fakeFactory{}
	return NewManager(Config{Factory: ff.build}), ff
}

var surface = globe.Surface{Width: 40, Height: 12}

func TestInitViewerIsIdempotent(t *testing.T) {
	m, ff := newTestManager()

	first, err := m.InitViewer(surface)
	require.NoError(t, err)
	second, err := m.InitViewer(surface)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, ff.built, 1)
	assert.Same(t, first, m.Viewer())
}

func TestInitViewerConfiguresEngine(t *testing.T) {
	m, ff := newTestManager()
	_, err := m.InitViewer(surface)
	require.NoError(t, err)

	opts := ff.built[0].opts
	assert.False(t, opts.Timeline)
	assert.False(t, opts.Animation)
	assert.False(t, opts.Geocoder)
	assert.False(t, opts.BaseLayerPicker)
	assert.False(t, opts.SceneModePicker)
	assert.False(t, opts.NavigationHelpButton)
	assert.False(t, opts.HomeButton)
	assert.False(t, opts.InfoBox)
	assert.False(t, opts.SelectionIndicator)
	assert.False(t, opts.CreditDisplay)
	assert.False(t, opts.ShowGlobe)
	assert.False(t, opts.ShowSkyBox)
	assert.Equal(t, color.RGBA{A: 0xff}, opts.Background)

	stack := ff.built[0].ImageryLayers()
	require.Len(t, stack, 1)
	assert.True(t, stack[0].IsBaseLayer())
	assert.Equal(t, BaseCredit, stack[0].Provider.Credit())
	minZ, maxZ := stack[0].Provider.Levels()
	assert.Equal(t, 0, minZ)
	assert.Equal(t, 10, maxZ)
	p, ok := stack[0].Provider.(*globe.URLTemplateProvider)
	require.True(t, ok)
	assert.Equal(t, layers.VikingURL, p.Template())
}

func TestInitViewerRejectsEmptySurface(t *testing.T) {
	m, ff := newTestManager()
	_, err := m.InitViewer(globe.Surface{})
	assert.ErrorIs(t, err, ErrNoSurface)
	assert.Empty(t, ff.built)
	assert.Nil(t, m.Viewer())
}

func TestFlyToLocationLooksStraightDown(t *testing.T) {
	m, ff := newTestManager()
	_, err := m.InitViewer(surface)
	require.NoError(t, err)

	m.FlyToLocation(-133.8, 18.65, 900_000)

	require.Len(t, ff.built[0].flights, 1)
	got := ff.built[0].flights[0]
	assert.Equal(t, globe.Cartographic{Longitude: -133.8, Latitude: 18.65, Height: 900_000}, got.dest)
	assert.Equal(t, 0.0, got.o.Heading)
	assert.InDelta(t, -math.Pi/2, got.o.Pitch, 1e-12)
	assert.Equal(t, 0.0, got.o.Roll)
	assert.True(t, m.Viewer().Camera().Flying())
}

func TestFlyToLocationWithoutViewer(t *testing.T) {
	m, ff := newTestManager()
	assert.NotPanics(t, func() { m.FlyToLocation(0, 0, 1000) })
	assert.Empty(t, ff.built)
}

func TestDestroyExactlyOnce(t *testing.T) {
	m, ff := newTestManager()
	_, err := m.InitViewer(surface)
	require.NoError(t, err)

	m.Destroy()
	m.Destroy()
	m.FlyToLocation(10, 10, 1000)

	assert.Equal(t, 1, ff.built[0].destroyed)
	assert.Empty(t, ff.built[0].flights)
	assert.Nil(t, m.Viewer())
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoManager)

	m, _ := newTestManager()
	got, err := FromContext(WithManager(context.Background(), m))
	require.NoError(t, err)
	assert.Same(t, m, got)
}
