package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MaxLatitude is the latitude limit of the square Web Mercator world.
const MaxLatitude = 85.0511287798

// TileSize is the pixel width of the world at zoom 0.
const TileSize = 256

// Viewport converts between WGS 84 coordinates and pixel coordinates of a
// Web Mercator map at a fixed zoom. Pixel (0,0) is the north-west corner
// of the world and y grows southwards.
type Viewport struct {
	Zoom float64
	// Round snaps projected points to whole pixels, as an interactive map
	// does for its layer points.
	Round bool
}

// NewViewport returns a pixel-rounding viewport at zoom.
func NewViewport(zoom float64) Viewport {
	return Viewport{Zoom: zoom, Round: true}
}

// Scale returns the world width in pixels.
func (v Viewport) Scale() float64 {
	return TileSize * math.Pow(2, v.Zoom)
}

// Project returns the pixel position of lat/lon.
func (v Viewport) Project(lat, lon float64) orb.Point {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	m := project.WGS84.ToMercator(orb.Point{lon, lat})

	half := math.Pi * orb.EarthRadius
	scale := v.Scale()
	px := orb.Point{
		(m[0]/half*0.5 + 0.5) * scale,
		(-m[1]/half*0.5 + 0.5) * scale,
	}
	if v.Round {
		px[0] = jsRound(px[0])
		px[1] = jsRound(px[1])
	}
	return px
}

// Unproject returns the lat/lon of a pixel position.
func (v Viewport) Unproject(px orb.Point) (lat, lon float64) {
	half := math.Pi * orb.EarthRadius
	scale := v.Scale()
	m := orb.Point{
		(px[0]/scale - 0.5) * 2 * half,
		-(px[1]/scale - 0.5) * 2 * half,
	}
	ll := project.Mercator.ToWGS84(m)
	return ll[1], ll[0]
}

// jsRound rounds half up, matching browser pixel snapping.
func jsRound(x float64) float64 {
	return math.Floor(x + 0.5)
}
