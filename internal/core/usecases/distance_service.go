package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/export"
	"github.com/samirrijal/maptrace/internal/core/fragment"
	"github.com/samirrijal/maptrace/internal/core/measure"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
	"github.com/samirrijal/maptrace/internal/core/ports"
	"github.com/samirrijal/maptrace/internal/pkg/metrics"
	"github.com/samirrijal/maptrace/internal/pkg/telemetry"
)

// PathKey is the fragment key holding the encoded path.
const PathKey = "path"

// MaxZoom bounds the zoom accepted for marker projection.
const MaxZoom = 30

// DistanceOptions configures a DistanceService.
type DistanceOptions struct {
	Strings     domain.DistanceStrings
	DefaultZoom float64
	UseHash     bool
	CacheTTL    int // seconds
	Distance    measure.DistanceFunc
}

// DistanceService measures paths and keeps the active path in the
// session fragment.
type DistanceService struct {
	fragments *FragmentService
	cache     ports.CacheService
	opts      DistanceOptions
}

// NewDistanceService creates a new DistanceService. cache may be nil.
func NewDistanceService(fragments *FragmentService, cache ports.CacheService, opts DistanceOptions) *DistanceService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 300
	}
	if opts.Distance == nil {
		opts.Distance = measure.Haversine
	}
	return &DistanceService{fragments: fragments, cache: cache, opts: opts}
}

// Strings returns the configured user-facing texts.
func (s *DistanceService) Strings() domain.DistanceStrings {
	return s.opts.Strings
}

// DefaultZoom returns the zoom used when a request does not give one.
func (s *DistanceService) DefaultZoom() float64 {
	return s.opts.DefaultZoom
}

// Measure computes distances, display text and interval markers for path
// as seen at zoom.
func (s *DistanceService) Measure(ctx context.Context, path domain.Path, zoom float64) (*domain.Measurement, error) {
	if math.IsNaN(zoom) || zoom < 0 || zoom > MaxZoom {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZoom, zoom)
	}

	_, span := telemetry.Tracer().Start(ctx, "DistanceService.Measure")
	defer span.End()

	m := &domain.Measurement{
		Encoded: pathcodec.Encode(path),
		Points:  path.Clone(),
		Profile: measure.ComputeProfile(path, s.opts.Distance),
		Zoom:    zoom,
		Markers: []domain.IntervalMarker{},
	}
	metrics.PathPoints.Observe(float64(len(path)))

	if len(path) == 0 {
		m.Status = s.opts.Strings.ClickToDraw
		return m, nil
	}

	m.TotalKm = m.Profile.Total()
	m.Formatted = measure.FormatDistance(m.TotalKm)
	m.Status = s.opts.Strings.TotalDistance + ": " + m.Formatted
	m.SpacingKm = measure.SelectSpacing(m.TotalKm)
	m.Markers = measure.PlaceMarkers(path, m.Profile, m.SpacingKm, measure.NewViewportProjector(zoom))
	if b, ok := path.Bounds(); ok {
		m.Bounds = &b
	}

	metrics.MarkersPlaced.Observe(float64(len(m.Markers)))
	span.SetAttributes(
		telemetry.AttrPathPoints.Int(len(path)),
		telemetry.AttrTotalKm.Float64(m.TotalKm),
		telemetry.AttrZoom.Float64(zoom),
		telemetry.AttrMarkers.Int(len(m.Markers)),
	)
	return m, nil
}

// MeasureEncoded decodes and measures an encoded path. Results are cached.
// Malformed input yields an error wrapping pathcodec.ErrMalformedPath.
func (s *DistanceService) MeasureEncoded(ctx context.Context, encoded string, zoom float64) (*domain.Measurement, error) {
	cacheKey := fmt.Sprintf("measure:%g:%s", zoom, encoded)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var m domain.Measurement
			if err := json.Unmarshal(data, &m); err == nil {
				metrics.CacheHits.WithLabelValues("measure").Inc()
				metrics.MeasurementsTotal.WithLabelValues("cache").Inc()
				return &m, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("measure").Inc()
	}

	path, err := s.decode(encoded)
	if err != nil {
		return nil, err
	}
	m, err := s.Measure(ctx, path, zoom)
	if err != nil {
		return nil, err
	}
	metrics.MeasurementsTotal.WithLabelValues("encoded").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(m); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTL)
		}
	}
	return m, nil
}

// Decode decodes an encoded path, counting rejects.
func (s *DistanceService) Decode(encoded string) (domain.Path, error) {
	return s.decode(encoded)
}

func (s *DistanceService) decode(encoded string) (domain.Path, error) {
	path, err := pathcodec.Decode(encoded)
	if err != nil {
		metrics.PathDecodeErrors.Inc()
		return nil, fmt.Errorf("decode path: %w", err)
	}
	return path, nil
}

// ReadPath returns the active path stored in a session fragment. The
// second result is false when the fragment has no path value or the
// value does not decode. An empty value is an active, empty path.
func (s *DistanceService) ReadPath(ctx context.Context, session string) (domain.Path, bool, error) {
	st, err := s.fragments.Get(ctx, session)
	if err != nil {
		return nil, false, err
	}
	if !s.opts.UseHash {
		return nil, false, nil
	}
	return pathFromFragment(ctx, st)
}

func pathFromFragment(ctx context.Context, st *fragment.State) (domain.Path, bool, error) {
	raw, ok := st.Value(PathKey)
	if !ok {
		return nil, false, nil
	}
	path, err := pathcodec.Decode(raw)
	if err != nil {
		metrics.PathDecodeErrors.Inc()
		slog.DebugContext(ctx, "ignoring malformed path in fragment", "error", err)
		return nil, false, nil
	}
	return path, true, nil
}

// WritePath stores path in the session fragment when active and removes
// it otherwise. The key is always re-added at the end of the fragment.
// It returns the new fragment text.
func (s *DistanceService) WritePath(ctx context.Context, session string, path domain.Path, active bool) (string, error) {
	if !s.opts.UseHash {
		st, err := s.fragments.Get(ctx, session)
		if err != nil {
			return "", err
		}
		return st.String(), nil
	}
	encoded := pathcodec.Encode(path)
	return s.fragments.Update(ctx, session, "distance", func(st *fragment.State) error {
		st.Delete(PathKey)
		if active {
			st.Set(PathKey, encoded)
		}
		return nil
	})
}

// EditPath applies edit to the session's active path and writes the
// result back, activating the tool if it was off. Without hash storage
// the edit starts from an empty path and nothing is written.
func (s *DistanceService) EditPath(ctx context.Context, session string, edit func(domain.Path) domain.Path) (domain.Path, error) {
	if !s.opts.UseHash {
		if !ValidSession(session) {
			return nil, ErrInvalidSession
		}
		return edit(domain.Path{}), nil
	}
	var next domain.Path
	_, err := s.fragments.Update(ctx, session, "distance", func(st *fragment.State) error {
		current, _, _ := pathFromFragment(ctx, st)
		next = edit(current.Clone())
		st.Delete(PathKey)
		st.Set(PathKey, pathcodec.Encode(next))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// MeasureSession measures the active path of a session. The second
// result is false when the tool is inactive.
func (s *DistanceService) MeasureSession(ctx context.Context, session string, zoom float64) (*domain.Measurement, bool, error) {
	path, active, err := s.ReadPath(ctx, session)
	if err != nil || !active {
		return nil, active, err
	}
	m, err := s.Measure(ctx, path, zoom)
	if err != nil {
		return nil, true, err
	}
	metrics.MeasurementsTotal.WithLabelValues("session").Inc()
	return m, true, nil
}

// Export measures an encoded path and renders it in format.
func (s *DistanceService) Export(ctx context.Context, encoded string, format export.Format, zoom float64, name string) ([]byte, error) {
	if format == export.FormatPolyline {
		path, err := s.decode(encoded)
		if err != nil {
			return nil, err
		}
		return []byte(export.Polyline(path)), nil
	}

	m, err := s.MeasureEncoded(ctx, encoded, zoom)
	if err != nil {
		return nil, err
	}
	switch format {
	case export.FormatGeoJSON:
		return export.GeoJSON(m)
	case export.FormatKML:
		if name == "" {
			name = s.opts.Strings.MeasureDistance
		}
		return export.KML(name, m)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}
