package globe

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// MarsRadius is the mean radius of Mars in meters.
const MarsRadius = 3_389_500.0

// Camera height limits in meters.
const (
	MinHeight = 1_000.0
	MaxHeight = 40_000_000.0
)

// Cartographic is a geodetic position: degrees and meters above the surface.
type Cartographic struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

// Orientation is the camera attitude in radians.
type Orientation struct {
	Heading float64
	Pitch   float64
	Roll    float64
}

// TopDown looks straight down with north up.
var TopDown = Orientation{Heading: 0, Pitch: -math.Pi / 2, Roll: 0}

// Camera tracks the view position and an optional flight in progress.
type Camera struct {
	clock       clockwork.Clock
	position    Cartographic
	orientation Orientation
	flight      *flight
}

type flight struct {
	from, to   Cartographic
	fromO, toO Orientation
	start      time.Time
	duration   time.Duration
	lift       float64
}

func newCamera(clock clockwork.Clock, start Cartographic) *Camera {
	return &Camera{
		clock:       clock,
		position:    normalize(start),
		orientation: TopDown,
	}
}

// Position returns the current camera position.
func (c *Camera) Position() Cartographic { return c.position }

// Orientation returns the current camera attitude.
func (c *Camera) Orientation() Orientation { return c.orientation }

// Flying reports whether a flight is in progress.
func (c *Camera) Flying() bool { return c.flight != nil }

// SetView jumps to dest without animation and cancels any flight.
func (c *Camera) SetView(dest Cartographic, o Orientation) {
	c.flight = nil
	c.position = normalize(dest)
	c.orientation = o
}

// FlyTo starts an animated flight to dest. A flight already in progress is
// replaced, starting from wherever the camera is now.
func (c *Camera) FlyTo(dest Cartographic, o Orientation) {
	dest = normalize(dest)
	angle := angularDistance(c.position, dest)
	c.flight = &flight{
		from:     c.position,
		to:       dest,
		fromO:    c.orientation,
		toO:      o,
		start:    c.clock.Now(),
		duration: flightDuration(c.position, dest, angle),
		lift:     math.Min(angle, 1),
	}
}

// Tick advances a running flight to the clock's current time. It reports
// whether the flight is still in progress afterwards.
func (c *Camera) Tick() bool {
	f := c.flight
	if f == nil {
		return false
	}
	t := float64(c.clock.Since(f.start)) / float64(f.duration)
	if t >= 1 {
		c.position = f.to
		c.orientation = f.toO
		c.flight = nil
		return false
	}
	e := smoothstep(t)

	dLon := wrapLongitude(f.to.Longitude - f.from.Longitude)
	logH := lerp(math.Log(f.from.Height), math.Log(f.to.Height), e)
	c.position = Cartographic{
		Longitude: wrapLongitude(f.from.Longitude + dLon*e),
		Latitude:  lerp(f.from.Latitude, f.to.Latitude, e),
		Height:    clampHeight(math.Exp(logH) * (1 + f.lift*math.Sin(math.Pi*e))),
	}
	c.orientation = Orientation{
		Heading: lerp(f.fromO.Heading, f.toO.Heading, e),
		Pitch:   lerp(f.fromO.Pitch, f.toO.Pitch, e),
		Roll:    lerp(f.fromO.Roll, f.toO.Roll, e),
	}
	return true
}

// flightDuration scales with angular distance and zoom change, between
// half a second and three seconds.
func flightDuration(from, to Cartographic, angle float64) time.Duration {
	zoom := math.Abs(math.Log2(to.Height / from.Height))
	secs := 0.5 + angle/math.Pi*2.5 + zoom*0.25
	secs = math.Max(0.5, math.Min(secs, 3))
	return time.Duration(secs * float64(time.Second))
}

// angularDistance is the great-circle angle between two positions, in radians.
func angularDistance(a, b Cartographic) float64 {
	lat1, lat2 := a.Latitude*math.Pi/180, b.Latitude*math.Pi/180
	dLat := lat2 - lat1
	dLon := wrapLongitude(b.Longitude-a.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

func normalize(p Cartographic) Cartographic {
	return Cartographic{
		Longitude: wrapLongitude(p.Longitude),
		Latitude:  math.Max(-90, math.Min(90, p.Latitude)),
		Height:    clampHeight(p.Height),
	}
}

func clampHeight(h float64) float64 {
	if math.IsNaN(h) {
		return MinHeight
	}
	return math.Max(MinHeight, math.Min(MaxHeight, h))
}

// wrapLongitude maps any longitude into [-180, 180).
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }
