package globe

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	// fieldOfView is the horizontal view angle in radians.
	fieldOfView = math.Pi / 3
	// tileSize is the nominal pixel size of a Web Mercator tile.
	tileSize = 256
	// maxMercatorLatitude bounds the Web Mercator tile matrix.
	maxMercatorLatitude = 85.05112878
	halfBlock           = "▀"
)

var (
	defaultGlobeColor = color.RGBA{R: 0x1f, G: 0x4e, B: 0x8c, A: 0xff}
	starColor         = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd8, A: 0xff}

	chromeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e")).
			Background(lipgloss.Color("#1c2128"))
)

// frame is the pixel-space description of one render pass.
type frame struct {
	width, height int // pixels
	center        Cartographic
	degPerPixel   float64
	cosLat        float64
	layers        []*ImageryLayer
	zooms         []int
}

// Render draws the current view into the viewer's surface and returns it
// as newline-separated rows of styled half-block characters.
func (v *Viewer) Render() string {
	if v.IsDestroyed() || v.surface.Width <= 0 || v.surface.Height <= 0 {
		return ""
	}

	rows := v.surface.Height
	bar := v.chromeBar()
	if bar != "" {
		rows--
	}

	var b strings.Builder
	if rows > 0 {
		f := v.newFrame(v.surface.Width, rows*2)
		pixels := make([]color.RGBA, f.width*f.height)
		for py := 0; py < f.height; py++ {
			for px := 0; px < f.width; px++ {
				lon, lat := f.unproject(px, py)
				pixels[py*f.width+px] = v.samplePixel(&f, lon, lat)
			}
		}
		writeHalfBlocks(&b, pixels, f.width, rows)
	}
	if bar != "" {
		if rows > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(bar)
	}
	return b.String()
}

func (v *Viewer) newFrame(width, height int) frame {
	pos := v.camera.Position()
	metersPerPixel := GroundWidth(pos.Height) / float64(width)

	f := frame{
		width:       width,
		height:      height,
		center:      pos,
		degPerPixel: metersPerPixel / (MarsRadius * math.Pi / 180),
		cosLat:      math.Max(math.Cos(pos.Latitude*math.Pi/180), 0.01),
	}
	for _, l := range v.layers {
		if !l.Show || l.Alpha <= 0 {
			continue
		}
		minZ, maxZ := l.Provider.Levels()
		f.layers = append(f.layers, l)
		f.zooms = append(f.zooms, zoomFor(metersPerPixel, minZ, maxZ))
	}
	return f
}

// GroundWidth is the surface distance in meters spanned across the view
// from the given height.
func GroundWidth(height float64) float64 {
	return 2 * height * math.Tan(fieldOfView/2)
}

// unproject maps a pixel to longitude/latitude through a local
// equirectangular frame centred on the camera.
func (f *frame) unproject(px, py int) (lon, lat float64) {
	dx := float64(px) - float64(f.width)/2 + 0.5
	dy := float64(py) - float64(f.height)/2 + 0.5
	lat = f.center.Latitude - dy*f.degPerPixel
	lon = wrapLongitude(f.center.Longitude + dx*f.degPerPixel/f.cosLat)
	return lon, lat
}

// zoomFor picks the coarsest zoom level whose tile pixels are no larger
// than a screen pixel, clamped to the provider's levels.
func zoomFor(metersPerPixel float64, minZ, maxZ int) int {
	circumference := 2 * math.Pi * MarsRadius
	z := int(math.Ceil(math.Log2(circumference / (tileSize * metersPerPixel))))
	if z < minZ {
		z = minZ
	}
	if z > maxZ {
		z = maxZ
	}
	if z < 0 {
		z = 0
	}
	return z
}

func (v *Viewer) samplePixel(f *frame, lon, lat float64) color.RGBA {
	out := v.opts.Background
	if math.Abs(lat) > maxMercatorLatitude {
		if v.opts.ShowSkyBox && isStar(lon, lat) {
			return starColor
		}
		return out
	}
	if v.opts.ShowGlobe {
		out = defaultGlobeColor
	}
	for i, l := range f.layers {
		c, ok := v.sampleLayer(l, f.zooms[i], lon, lat)
		if !ok {
			continue
		}
		out = blend(out, c, l.Alpha)
	}
	return out
}

func (v *Viewer) sampleLayer(l *ImageryLayer, z int, lon, lat float64) (color.RGBA, bool) {
	frac := maptile.Fraction(orb.Point{lon, lat}, maptile.Zoom(z))
	n := 1 << z
	tx := clampInt(int(math.Floor(frac[0])), 0, n-1)
	ty := clampInt(int(math.Floor(frac[1])), 0, n-1)

	img := v.tile(l.Provider.TileURL(z, tx, ty))
	if img == nil {
		return color.RGBA{}, false
	}
	bounds := img.Bounds()
	ix := bounds.Min.X + clampInt(int((frac[0]-float64(tx))*float64(bounds.Dx())), 0, bounds.Dx()-1)
	iy := bounds.Min.Y + clampInt(int((frac[1]-float64(ty))*float64(bounds.Dy())), 0, bounds.Dy()-1)
	return color.RGBAModel.Convert(img.At(ix, iy)).(color.RGBA), true
}

// blend composites the premultiplied colour src over dst at the given
// layer alpha.
func blend(dst, src color.RGBA, alpha float64) color.RGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	keep := 1 - float64(src.A)/0xff*alpha
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(math.Min(0xff, float64(s)*alpha+float64(d)*keep)))
	}
	return color.RGBA{
		R: mix(dst.R, src.R),
		G: mix(dst.G, src.G),
		B: mix(dst.B, src.B),
		A: 0xff,
	}
}

func isStar(lon, lat float64) bool {
	h := uint32(int32(lon*8))*73856093 ^ uint32(int32(lat*8))*19349663
	return h%61 == 0
}

// writeHalfBlocks emits rows of cells; each cell shows the upper pixel as
// foreground and the lower pixel as background. Runs of identical cells
// share one styled segment.
func writeHalfBlocks(b *strings.Builder, pixels []color.RGBA, width, rows int) {
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		top := pixels[(2*r)*width : (2*r+1)*width]
		bottom := pixels[(2*r+1)*width : (2*r+2)*width]
		for c := 0; c < width; {
			run := 1
			for c+run < width && top[c+run] == top[c] && bottom[c+run] == bottom[c] {
				run++
			}
			style := lipgloss.NewStyle().
				Foreground(hexColor(top[c])).
				Background(hexColor(bottom[c]))
			b.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			c += run
		}
	}
}

// chromeBar lists the enabled built-in widgets and layer credits. It is
// empty when every widget is disabled.
func (v *Viewer) chromeBar() string {
	o := v.opts
	widgets := []struct {
		on   bool
		name string
	}{
		{o.Timeline, "timeline"},
		{o.Animation, "animation"},
		{o.Geocoder, "geocoder"},
		{o.BaseLayerPicker, "layers"},
		{o.SceneModePicker, "2D/3D"},
		{o.NavigationHelpButton, "help"},
		{o.HomeButton, "home"},
		{o.InfoBox, "info"},
		{o.SelectionIndicator, "select"},
	}

	var parts []string
	for _, w := range widgets {
		if w.on {
			parts = append(parts, "["+w.name+"]")
		}
	}
	if o.CreditDisplay {
		for _, l := range v.layers {
			if l.Show && l.Provider.Credit() != "" {
				parts = append(parts, l.Provider.Credit())
			}
		}
	}
	if len(parts) == 0 && !o.CreditDisplay {
		return ""
	}
	return chromeStyle.Inline(true).Width(v.surface.Width).MaxWidth(v.surface.Width).
		Render(strings.Join(parts, " "))
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
