package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Path is an ordered sequence of points. Duplicates are allowed and the
// path may be empty. Editing methods return a new Path and never touch
// the receiver, so a Path can be shared between readers.
type Path []GeoPoint

// Append returns a copy of the path with p added at the end.
func (p Path) Append(pt GeoPoint) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, pt)
}

// Remove returns a copy of the path without the point at index i.
// An out-of-range index yields an unchanged copy.
func (p Path) Remove(i int) Path {
	if i < 0 || i >= len(p) {
		return p.Clone()
	}
	out := make(Path, 0, len(p)-1)
	out = append(out, p[:i]...)
	return append(out, p[i+1:]...)
}

// Move returns a copy of the path with the point at index i replaced.
func (p Path) Move(i int, pt GeoPoint) Path {
	out := p.Clone()
	if i >= 0 && i < len(out) {
		out[i] = pt
	}
	return out
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	if p == nil {
		return Path{}
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Bounds returns the bounding box of the path, or false for an empty path.
func (p Path) Bounds() (Bounds, bool) {
	if len(p) == 0 {
		return Bounds{}, false
	}
	b := Bounds{MinLat: p[0].Lat, MaxLat: p[0].Lat, MinLon: p[0].Lon, MaxLon: p[0].Lon}
	for _, pt := range p[1:] {
		b.MinLat = min(b.MinLat, pt.Lat)
		b.MaxLat = max(b.MaxLat, pt.Lat)
		b.MinLon = min(b.MinLon, pt.Lon)
		b.MaxLon = max(b.MaxLon, pt.Lon)
	}
	return b, true
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
