package globe

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func bareOptions() Options {
	return Options{
		Background:     color.RGBA{A: 0xff},
		Start:          Cartographic{Height: 8_000_000},
		MaxCachedTiles: 16,
	}
}

func waitUpdate(t *testing.T, v *Viewer) {
	t.Helper()
	select {
	case <-v.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tile update")
	}
}

// ──────────────────────────────────────────────────────────────
// Templates and providers
// ──────────────────────────────────────────────────────────────

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		tmpl    string
		z, x, y int
		want    string
	}{
		{"https://t/{z}/{x}/{y}.png", 3, 2, 1, "https://t/3/2/1.png"},
		{"https://t/{z}/{x}/{-y}.jpg", 3, 2, 1, "https://t/3/2/6.jpg"},
		{"https://t/{z}/{x}/{reverseY}.jpg", 0, 0, 0, "https://t/0/0/0.jpg"},
		{"https://static/tile.png", 5, 1, 1, "https://static/tile.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandTemplate(tt.tmpl, tt.z, tt.x, tt.y), tt.tmpl)
	}
}

func TestURLTemplateProviderLevels(t *testing.T) {
	p := NewURLTemplateProvider(URLTemplateOptions{URL: "u", MinimumLevel: 4, MaximumLevel: 2, Credit: "NASA/x"})
	minZ, maxZ := p.Levels()
	assert.Equal(t, 4, minZ)
	assert.Equal(t, 4, maxZ)
	assert.Equal(t, "NASA/x", p.Credit())
	assert.Equal(t, "u", p.Template())
}

// ──────────────────────────────────────────────────────────────
// Layer stack
// ──────────────────────────────────────────────────────────────

func TestImageryStackOrder(t *testing.T) {
	v := NewViewer(Surface{Width: 10, Height: 5}, bareOptions())
	p := NewURLTemplateProvider(URLTemplateOptions{URL: "a"})

	top := v.AddImagerySource(p, -1)
	mid := v.AddImagerySource(p, 0)
	base := v.AddBaseImagerySource(p)

	stack := v.ImageryLayers()
	require.Len(t, stack, 3)
	assert.Same(t, base, stack[0])
	assert.Same(t, mid, stack[1])
	assert.Same(t, top, stack[2])
	assert.True(t, base.IsBaseLayer())
	assert.False(t, top.IsBaseLayer())
	assert.Equal(t, 1.0, top.Alpha)
	assert.True(t, top.Show)

	assert.True(t, v.RemoveImagerySource(mid))
	assert.False(t, v.RemoveImagerySource(mid))
	assert.Len(t, v.ImageryLayers(), 2)
}

func TestImageryLayersIsSnapshot(t *testing.T) {
	v := NewViewer(Surface{Width: 10, Height: 5}, bareOptions())
	v.AddImagerySource(NewURLTemplateProvider(URLTemplateOptions{URL: "a"}), -1)

	snap := v.ImageryLayers()
	snap[0] = nil
	assert.NotNil(t, v.ImageryLayers()[0])
}

// ──────────────────────────────────────────────────────────────
// Camera
// ──────────────────────────────────────────────────────────────

func TestFlightReachesDestination(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newCamera(clock, Cartographic{Height: 10_000_000})
	dest := Cartographic{Longitude: -133.8, Latitude: 18.65, Height: 900_000}

	c.FlyTo(dest, TopDown)
	require.True(t, c.Flying())

	clock.Advance(100 * time.Millisecond)
	assert.True(t, c.Tick())
	mid := c.Position()
	assert.NotEqual(t, dest, mid)

	clock.Advance(3 * time.Second)
	assert.False(t, c.Tick())
	assert.False(t, c.Flying())
	assert.InDelta(t, dest.Longitude, c.Position().Longitude, 1e-9)
	assert.InDelta(t, dest.Latitude, c.Position().Latitude, 1e-9)
	assert.InDelta(t, dest.Height, c.Position().Height, 1e-6)
	assert.Equal(t, TopDown, c.Orientation())
}

func TestFlightDurationBounds(t *testing.T) {
	a := Cartographic{Height: 1_000_000}
	assert.Equal(t, 500*time.Millisecond, flightDuration(a, a, 0))

	far := Cartographic{Longitude: 180, Height: 40_000_000}
	assert.Equal(t, 3*time.Second, flightDuration(a, far, angularDistance(a, far)))
}

func TestSetViewCancelsFlight(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newCamera(clock, Cartographic{Height: 5_000_000})
	c.FlyTo(Cartographic{Longitude: 50, Height: 5_000_000}, TopDown)
	c.SetView(Cartographic{Longitude: 10, Latitude: 95, Height: 1}, TopDown)

	assert.False(t, c.Flying())
	assert.Equal(t, Cartographic{Longitude: 10, Latitude: 90, Height: MinHeight}, c.Position())
}

func TestWrapLongitude(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  -180,
		190:  -170,
		-190: 170,
		540:  -180,
	}
	for in, want := range tests {
		assert.InDelta(t, want, wrapLongitude(in), 1e-9, "wrap(%v)", in)
	}
}

// ──────────────────────────────────────────────────────────────
// Tiles
// ──────────────────────────────────────────────────────────────

func TestTileLoadsAsyncAndDedups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	opts := bareOptions()
	opts.Loader = TileLoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		calls.Add(1)
		<-release
		return uniform(color.RGBA{R: 0xff, A: 0xff}), nil
	})
	v := NewViewer(Surface{Width: 4, Height: 2}, opts)

	assert.Nil(t, v.tile("t/0/0/0"))
	assert.Nil(t, v.tile("t/0/0/0"))
	close(release)
	waitUpdate(t, v)

	assert.NotNil(t, v.tile("t/0/0/0"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, v.CachedTiles())
}

func TestFailedTileCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	opts := bareOptions()
	opts.Clock = clock
	opts.Loader = TileLoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	v := NewViewer(Surface{Width: 4, Height: 2}, opts)

	v.tile("t/1/0/0")
	waitUpdate(t, v)
	assert.Nil(t, v.tile("t/1/0/0"))
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(failedTileCooldown + time.Second)
	v.tile("t/1/0/0")
	waitUpdate(t, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTileCacheEvictsOldest(t *testing.T) {
	opts := bareOptions()
	opts.MaxCachedTiles = 2
	v := NewViewer(Surface{Width: 4, Height: 2}, opts)
	img := uniform(color.RGBA{A: 0xff})

	v.mu.Lock()
	v.storeTile("a", &tileEntry{img: img})
	v.storeTile("b", &tileEntry{img: img})
	v.storeTile("c", &tileEntry{img: img})
	_, hasA := v.tiles["a"]
	v.mu.Unlock()

	assert.False(t, hasA)
	assert.Equal(t, 2, v.CachedTiles())
}

// ──────────────────────────────────────────────────────────────
// Rendering
// ──────────────────────────────────────────────────────────────

func TestBlend(t *testing.T) {
	black := color.RGBA{A: 0xff}
	red := color.RGBA{R: 0xff, A: 0xff}

	assert.Equal(t, red, blend(black, red, 1))
	assert.Equal(t, color.RGBA{R: 0x80, A: 0xff}, blend(black, red, 0.5))
	assert.Equal(t, black, blend(black, red, 0))

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	assert.Equal(t, white, blend(white, color.RGBA{}, 1))
}

func TestSamplePixelCompositesInStackOrder(t *testing.T) {
	v := NewViewer(Surface{Width: 8, Height: 4}, bareOptions())
	base := NewURLTemplateProvider(URLTemplateOptions{URL: "base/{z}/{x}/{y}", MaximumLevel: 0})
	over := NewURLTemplateProvider(URLTemplateOptions{URL: "over/{z}/{x}/{y}", MaximumLevel: 0})
	v.AddImagerySource(base, -1)
	ol := v.AddImagerySource(over, -1)
	ol.Alpha = 0.5

	v.mu.Lock()
	v.storeTile("base/0/0/0", &tileEntry{img: uniform(color.RGBA{B: 0xff, A: 0xff})})
	v.storeTile("over/0/0/0", &tileEntry{img: uniform(color.RGBA{R: 0xff, A: 0xff})})
	v.mu.Unlock()

	f := v.newFrame(8, 8)
	got := v.samplePixel(&f, 10, 10)
	assert.Equal(t, color.RGBA{R: 0x80, B: 0x80, A: 0xff}, got)

	ol.Show = false
	f = v.newFrame(8, 8)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, v.samplePixel(&f, 10, 10))
}

func TestSamplePixelOutsideMercatorBand(t *testing.T) {
	opts := bareOptions()
	opts.ShowGlobe = true
	v := NewViewer(Surface{Width: 8, Height: 4}, opts)
	f := v.newFrame(8, 8)

	assert.Equal(t, opts.Background, v.samplePixel(&f, 0, 89))
	assert.Equal(t, defaultGlobeColor, v.samplePixel(&f, 0, 0))
}

func TestZoomForClampsToProviderLevels(t *testing.T) {
	assert.Equal(t, 0, zoomFor(1e9, 0, 10))
	assert.Equal(t, 10, zoomFor(1, 0, 10))
	assert.Equal(t, 3, zoomFor(1e9, 3, 10))
}

func TestRenderRowsAndChrome(t *testing.T) {
	v := NewViewer(Surface{Width: 120, Height: 6}, bareOptions())
	out := v.Render()
	assert.Equal(t, 6, strings.Count(out, "\n")+1)
	assert.NotContains(t, out, "[home]")

	opts := DefaultOptions()
	chrome := NewViewer(Surface{Width: 120, Height: 6}, opts)
	out = chrome.Render()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[5], "[home]")
	assert.Contains(t, lines[5], "[timeline]")
}

// ──────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────

func TestDestroyTwice(t *testing.T) {
	v := NewViewer(Surface{Width: 10, Height: 5}, bareOptions())
	v.AddImagerySource(NewURLTemplateProvider(URLTemplateOptions{URL: "a"}), -1)

	require.NoError(t, v.Destroy())
	assert.ErrorIs(t, v.Destroy(), ErrDestroyed)
	assert.True(t, v.IsDestroyed())

	_, open := <-v.Updates()
	assert.False(t, open)
	assert.Nil(t, v.AddImagerySource(NewURLTemplateProvider(URLTemplateOptions{URL: "b"}), -1))
	assert.Empty(t, v.ImageryLayers())
	assert.Empty(t, v.Render())
	assert.False(t, v.Tick())
}
