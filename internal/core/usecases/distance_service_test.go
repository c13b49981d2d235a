package usecases_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/export"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
	"github.com/samirrijal/maptrace/internal/core/usecases"
)

var testStrings = domain.DistanceStrings{
	MeasureDistance: "Measure distance",
	TotalDistance:   "Total distance",
	ClickToDraw:     "Click on the map to trace a path you want to measure",
	ClickToRemove:   "Click to remove",
}

func newDistanceService(store *mockFragmentStore, cache *mockCache) *usecases.DistanceService {
	frags := usecases.NewFragmentService(store, nil)
	opts := usecases.DistanceOptions{Strings: testStrings, DefaultZoom: 13, UseHash: true}
	if cache == nil {
		return usecases.NewDistanceService(frags, nil, opts)
	}
	return usecases.NewDistanceService(frags, cache, opts)
}

func TestDistanceService_Measure(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	path := domain.Path{{Lat: 51, Lon: 0}, {Lat: 51, Lon: 0.1}}

	m, err := svc.Measure(context.Background(), path, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(m.TotalKm-7.0) > 0.01 {
		t.Errorf("expected ~7 km, got %v", m.TotalKm)
	}
	if m.Status != "Total distance: 7.00 km" {
		t.Errorf("unexpected status %q", m.Status)
	}
	if m.SpacingKm != 1 {
		t.Errorf("expected spacing 1, got %v", m.SpacingKm)
	}
	if len(m.Markers) != 6 {
		t.Fatalf("expected 6 markers, got %d", len(m.Markers))
	}
	if m.Markers[5].Label != "6" {
		t.Errorf("expected last label 6, got %s", m.Markers[5].Label)
	}
	if m.Encoded != pathcodec.Encode(path) {
		t.Errorf("unexpected encoded path %q", m.Encoded)
	}
	if m.Bounds == nil || m.Bounds.MaxLon != 0.1 {
		t.Errorf("unexpected bounds %+v", m.Bounds)
	}
}

func TestDistanceService_Measure_Empty(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	m, err := svc.Measure(context.Background(), nil, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != testStrings.ClickToDraw {
		t.Errorf("expected click-to-draw prompt, got %q", m.Status)
	}
	if len(m.Profile) != 0 || len(m.Markers) != 0 {
		t.Errorf("expected empty profile and markers, got %v / %v", m.Profile, m.Markers)
	}
}

func TestDistanceService_Measure_SinglePoint(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	m, err := svc.Measure(context.Background(), domain.Path{{Lat: 43.26, Lon: -2.93}}, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != "Total distance: 0 m" {
		t.Errorf("unexpected status %q", m.Status)
	}
}

func TestDistanceService_Measure_InvalidZoom(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	for _, z := range []float64{-1, math.NaN(), 31} {
		if _, err := svc.Measure(context.Background(), nil, z); !errors.Is(err, usecases.ErrInvalidZoom) {
			t.Errorf("zoom %v: expected ErrInvalidZoom, got %v", z, err)
		}
	}
}

func TestDistanceService_MeasureEncoded_Malformed(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	_, err := svc.MeasureEncoded(context.Background(), "abc", 13)
	if !errors.Is(err, pathcodec.ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath, got %v", err)
	}
}

func TestDistanceService_MeasureEncoded_Cached(t *testing.T) {
	cache := newMockCache()
	svc := newDistanceService(newMockFragmentStore(nil), cache)
	encoded := pathcodec.Encode(domain.Path{{Lat: 51, Lon: 0}, {Lat: 51, Lon: 0.1}})

	first, err := svc.MeasureEncoded(context.Background(), encoded, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected result to be cached, got %d sets", cache.sets)
	}
	second, err := svc.MeasureEncoded(context.Background(), encoded, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected cache hit, got %d sets", cache.sets)
	}
	if second.TotalKm != first.TotalKm || len(second.Markers) != len(first.Markers) {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestDistanceService_ReadPath(t *testing.T) {
	tests := []struct {
		name       string
		fragment   string
		wantActive bool
		wantPoints int
	}{
		{"missing", "map=3/1/2", false, 0},
		{"flag", "path", false, 0},
		{"malformed", "path=abc", false, 0},
		{"empty value", "path=", true, 0},
		{"two points", "map=3/1/2&path=AAAAAAAA________", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newDistanceService(newMockFragmentStore(map[string]string{"s1": tt.fragment}), nil)
			path, active, err := svc.ReadPath(context.Background(), "s1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if active != tt.wantActive {
				t.Errorf("expected active=%v, got %v", tt.wantActive, active)
			}
			if len(path) != tt.wantPoints {
				t.Errorf("expected %d points, got %d", tt.wantPoints, len(path))
			}
		})
	}
}

func TestDistanceService_WritePath_MovesKeyToEnd(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "path=AAAAAAAA&zoom=3&map=2/0/0"})
	svc := newDistanceService(store, nil)

	got, err := svc.WritePath(context.Background(), "s1", domain.Path{{Lat: 0, Lon: 0}}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "map=2/0/0&zoom=3&path=gAAAgAAA"
	if got != want || store.get("s1") != want {
		t.Errorf("expected %q, got %q (stored %q)", want, got, store.get("s1"))
	}
}

func TestDistanceService_WritePath_Inactive(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "map=2/0/0&path=gAAAgAAA&q"})
	svc := newDistanceService(store, nil)

	got, err := svc.WritePath(context.Background(), "s1", domain.Path{{Lat: 1, Lon: 1}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "map=2/0/0&q" {
		t.Errorf("unexpected fragment %q", got)
	}
}

func TestDistanceService_WritePath_ActiveEmpty(t *testing.T) {
	store := newMockFragmentStore(nil)
	svc := newDistanceService(store, nil)

	got, err := svc.WritePath(context.Background(), "s1", nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "path=" {
		t.Errorf("expected an active empty path, got %q", got)
	}
	_, active, _ := svc.ReadPath(context.Background(), "s1")
	if !active {
		t.Error("expected path to read back as active")
	}
}

func TestDistanceService_UseHashDisabled(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "path=gAAAgAAA"})
	frags := usecases.NewFragmentService(store, nil)
	svc := usecases.NewDistanceService(frags, nil, usecases.DistanceOptions{Strings: testStrings})

	if _, active, _ := svc.ReadPath(context.Background(), "s1"); active {
		t.Error("expected fragment to be ignored")
	}
	if _, err := svc.WritePath(context.Background(), "s1", nil, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path, err := svc.EditPath(context.Background(), "s1", func(p domain.Path) domain.Path {
		return p.Append(domain.GeoPoint{Lat: 51, Lon: 0})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 || path[0].Lat != 51 {
		t.Errorf("expected edit to start from an empty path, got %+v", path)
	}
	if store.get("s1") != "path=gAAAgAAA" {
		t.Errorf("fragment should be untouched, got %q", store.get("s1"))
	}
	if _, err := svc.EditPath(context.Background(), "bad id!", func(p domain.Path) domain.Path { return p }); !errors.Is(err, usecases.ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestDistanceService_EditPath(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "path=gAAAgAAA&map=5/0/0"})
	svc := newDistanceService(store, nil)

	path, err := svc.EditPath(context.Background(), "s1", func(p domain.Path) domain.Path {
		return p.Append(domain.GeoPoint{Lat: -90, Lon: -180})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2 points, got %d", len(path))
	}
	if store.get("s1") != "map=5/0/0&path=gAAAgAAAAAAAAAAA" {
		t.Errorf("unexpected fragment %q", store.get("s1"))
	}

	path, err = svc.EditPath(context.Background(), "s1", func(p domain.Path) domain.Path { return p.Remove(0) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 || path[0].Lat != -90 {
		t.Errorf("unexpected path after remove: %+v", path)
	}
}

func TestDistanceService_MeasureSession(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "map=3/0/0", "s2": "path=AAAAAAAA________"})
	svc := newDistanceService(store, nil)

	if _, active, err := svc.MeasureSession(context.Background(), "s1", 3); err != nil || active {
		t.Errorf("expected inactive session, got active=%v err=%v", active, err)
	}
	m, active, err := svc.MeasureSession(context.Background(), "s2", 3)
	if err != nil || !active {
		t.Fatalf("expected active session, got active=%v err=%v", active, err)
	}
	if m.SpacingKm != 50 {
		t.Errorf("expected spacing 50 for a pole-to-pole path, got %v", m.SpacingKm)
	}
}

func TestDistanceService_Export(t *testing.T) {
	svc := newDistanceService(newMockFragmentStore(nil), nil)
	encoded := pathcodec.Encode(domain.Path{{Lat: 51, Lon: 0}, {Lat: 51, Lon: 0.1}})

	data, err := svc.Export(context.Background(), encoded, export.FormatGeoJSON, 13, "")
	if err != nil {
		t.Fatalf("geojson: %v", err)
	}
	if !strings.Contains(string(data), `"FeatureCollection"`) {
		t.Errorf("unexpected geojson %s", data)
	}

	data, err = svc.Export(context.Background(), encoded, export.FormatKML, 13, "")
	if err != nil {
		t.Fatalf("kml: %v", err)
	}
	if !strings.Contains(string(data), "<name>Measure distance</name>") {
		t.Errorf("expected default name in kml: %s", data)
	}

	data, err = svc.Export(context.Background(), encoded, export.FormatPolyline, 13, "")
	if err != nil {
		t.Fatalf("polyline: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected polyline output")
	}

	if _, err := svc.Export(context.Background(), "bad", export.FormatPolyline, 13, ""); !errors.Is(err, pathcodec.ErrMalformedPath) {
		t.Errorf("expected ErrMalformedPath, got %v", err)
	}
}
