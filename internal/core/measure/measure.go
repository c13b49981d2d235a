// Package measure computes cumulative distances along a path, picks a
// marker spacing for the total length and places labelled interval
// markers on the path.
package measure

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/pkg/geospatial"
	"github.com/samirrijal/maptrace/internal/pkg/numfmt"
)

// DistanceFunc returns the distance between two points in kilometres.
type DistanceFunc func(a, b domain.GeoPoint) float64

// Haversine is the default DistanceFunc.
func Haversine(a, b domain.GeoPoint) float64 {
	return geospatial.HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Projector maps geographic points to a planar space and back. Marker
// positions are interpolated in planar space.
type Projector interface {
	Project(p domain.GeoPoint) orb.Point
	Unproject(p orb.Point) domain.GeoPoint
}

// ProjectorFuncs adapts a pair of functions to Projector.
type ProjectorFuncs struct {
	ProjectFn   func(domain.GeoPoint) orb.Point
	UnprojectFn func(orb.Point) domain.GeoPoint
}

func (f ProjectorFuncs) Project(p domain.GeoPoint) orb.Point   { return f.ProjectFn(p) }
func (f ProjectorFuncs) Unproject(p orb.Point) domain.GeoPoint { return f.UnprojectFn(p) }

// ViewportProjector projects through a Web Mercator viewport.
type ViewportProjector struct {
	geospatial.Viewport
}

// NewViewportProjector returns a pixel-rounding projector at zoom.
func NewViewportProjector(zoom float64) ViewportProjector {
	return ViewportProjector{geospatial.NewViewport(zoom)}
}

func (v ViewportProjector) Project(p domain.GeoPoint) orb.Point {
	return v.Viewport.Project(p.Lat, p.Lon)
}

func (v ViewportProjector) Unproject(p orb.Point) domain.GeoPoint {
	lat, lon := v.Viewport.Unproject(p)
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

// ComputeProfile returns the running distance sum along path. An empty
// path has an empty profile and a single point has profile [0]. A nil
// dist uses Haversine.
func ComputeProfile(path domain.Path, dist DistanceFunc) domain.DistanceProfile {
	if len(path) == 0 {
		return domain.DistanceProfile{}
	}
	if dist == nil {
		dist = Haversine
	}
	profile := make(domain.DistanceProfile, len(path))
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += dist(path[i-1], path[i])
		profile[i] = total
	}
	return profile
}

// SelectSpacing returns the marker spacing in kilometres for a path of
// totalKm.
func SelectSpacing(totalKm float64) float64 {
	switch {
	case totalKm <= 20:
		return 1
	case totalKm <= 50:
		return 2
	case totalKm <= 100:
		return 5
	case totalKm <= 200:
		return 10
	case totalKm <= 500:
		return 20
	default:
		return 50
	}
}

// FormatDistance renders totalKm for display: whole metres below 1 km,
// otherwise kilometres with two, one or zero decimals for values below
// 10, below 100 and above.
func FormatDistance(totalKm float64) string {
	if totalKm < 1 {
		return numfmt.ToFixed(totalKm*1000, 0) + " m"
	}
	digits := 0
	switch {
	case totalKm < 10:
		digits = 2
	case totalKm < 100:
		digits = 1
	}
	return numfmt.ToFixed(totalKm, digits) + " km"
}

// PlaceMarkers returns a marker at every multiple of spacing that lies
// strictly inside the path's length. Positions are linear interpolations
// between the planar projections of the enclosing segment's endpoints.
// Zero-length segments never host a marker. A non-positive spacing or a
// profile that does not match the path yields no markers.
func PlaceMarkers(path domain.Path, profile domain.DistanceProfile, spacing float64, proj Projector) []domain.IntervalMarker {
	if len(path) < 2 || len(profile) != len(path) || !(spacing > 0) || math.IsInf(spacing, 0) {
		return []domain.IntervalMarker{}
	}

	var (
		markers    []domain.IntervalMarker
		next       = spacing
		segment    = -1
		begin, end orb.Point
	)
	for i := 1; i < len(profile); i++ {
		span := profile[i] - profile[i-1]
		if !(span > 0) {
			continue
		}
		for profile[i] > next {
			// Endpoints are projected once per segment.
			if segment != i {
				begin = proj.Project(path[i-1])
				end = proj.Project(path[i])
				segment = i
			}
			fromEnd := (profile[i] - next) / span
			pos := orb.Point{
				end[0] - (end[0]-begin[0])*fromEnd,
				end[1] - (end[1]-begin[1])*fromEnd,
			}
			markers = append(markers, domain.IntervalMarker{
				Position: proj.Unproject(pos),
				Distance: next,
				Label:    strconv.FormatFloat(math.Round(next), 'f', 0, 64),
			})
			next += spacing
		}
	}
	if markers == nil {
		return []domain.IntervalMarker{}
	}
	return markers
}
