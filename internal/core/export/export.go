// Package export renders measured paths in formats other tools read:
// GeoJSON, KML, Google encoded polylines and share QR codes.
package export

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	qrcode "github.com/skip2/go-qrcode"
	kml "github.com/twpayne/go-kml"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// Format identifies an export encoding.
type Format string

const (
	FormatGeoJSON  Format = "geojson"
	FormatKML      Format = "kml"
	FormatPolyline Format = "polyline"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatGeoJSON, FormatKML, FormatPolyline:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// GeoJSON returns a FeatureCollection with the path as a LineString
// followed by one Point feature per interval marker.
func GeoJSON(m *domain.Measurement) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(m.Points))
	for _, p := range m.Points {
		line = append(line, orb.Point{p.Lon, p.Lat})
	}
	path := geojson.NewFeature(line)
	path.Properties["kind"] = "path"
	path.Properties["encoded"] = m.Encoded
	path.Properties["total_km"] = m.TotalKm
	path.Properties["formatted"] = m.Formatted
	path.Properties["spacing_km"] = m.SpacingKm
	fc.Append(path)

	for _, mk := range m.Markers {
		f := geojson.NewFeature(orb.Point{mk.Position.Lon, mk.Position.Lat})
		f.Properties["kind"] = "marker"
		f.Properties["label"] = mk.Label
		f.Properties["distance_km"] = mk.Distance
		fc.Append(f)
	}

	return fc.MarshalJSON()
}

// KML returns a KML document with the path and its markers as placemarks.
func KML(name string, m *domain.Measurement) ([]byte, error) {
	coords := make([]kml.Coordinate, 0, len(m.Points))
	for _, p := range m.Points {
		coords = append(coords, kml.Coordinate{Lon: p.Lon, Lat: p.Lat})
	}

	children := []kml.Element{
		kml.Name(name),
		kml.Placemark(
			kml.Name(name),
			kml.Description(m.Formatted),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		),
	}
	for _, mk := range m.Markers {
		children = append(children, kml.Placemark(
			kml.Name(mk.Label+" km"),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: mk.Position.Lon, Lat: mk.Position.Lat})),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("write kml: %w", err)
	}
	return buf.Bytes(), nil
}

// Polyline returns the path as a Google encoded polyline (5 decimals).
func Polyline(path domain.Path) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline parses a Google encoded polyline.
func DecodePolyline(s string) (domain.Path, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	path := make(domain.Path, 0, len(coords))
	for _, c := range coords {
		path = append(path, domain.GeoPoint{Lat: c[0], Lon: c[1]})
	}
	return path, nil
}

// ShareURL returns base with the encoded path as its fragment.
func ShareURL(base, encoded string) string {
	return base + "#path=" + encoded
}

// ShareQR renders url as a PNG QR code of size pixels.
func ShareQR(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
