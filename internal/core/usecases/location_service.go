package usecases

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/fragment"
	"github.com/samirrijal/maptrace/internal/pkg/numfmt"
)

// Fragment keys for the map view.
const (
	MapKey      = "map"
	LayersKey   = "layers"
	OverlaysKey = "overlays"
	PopupsKey   = "popups"
)

// LocationHashService keeps a session's map view (zoom, center, open
// popups and visible layers) in its fragment.
type LocationHashService struct {
	fragments       *FragmentService
	catalog         []domain.Layer
	defaultBase     string
	defaultOverlays string
}

// NewLocationHashService creates a new LocationHashService over a layer
// catalog. Catalog order decides the order of codes in the fragment.
func NewLocationHashService(fragments *FragmentService, catalog []domain.Layer) *LocationHashService {
	s := &LocationHashService{fragments: fragments, catalog: append([]domain.Layer(nil), catalog...)}
	defaults := make(map[string]bool)
	for _, l := range catalog {
		defaults[l.Code] = l.Default
	}
	s.defaultBase, s.defaultOverlays = s.layerStrings(defaults)
	return s
}

// Catalog returns the layer catalog.
func (s *LocationHashService) Catalog() []domain.Layer {
	return append([]domain.Layer(nil), s.catalog...)
}

// Restore reads the map view stored in a session fragment.
func (s *LocationHashService) Restore(ctx context.Context, session string) (*domain.ViewState, error) {
	st, err := s.fragments.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.viewFromFragment(st), nil
}

func (s *LocationHashService) viewFromFragment(st *fragment.State) *domain.ViewState {
	view := &domain.ViewState{Popups: []string{}}

	if st.Has(PopupsKey) {
		popups, _ := st.Value(PopupsKey)
		for _, p := range splitNonEmpty(popups, ",") {
			view.Popups = append(view.Popups, decodeComponent(p))
		}
	}

	var parts []string
	if st.Has(MapKey) {
		raw, _ := st.Value(MapKey)
		parts = splitNonEmpty(raw, "/")
	}
	switch len(parts) {
	case 1:
		view.Zoom = parseZoom(parts[0])
	case 2:
		view.Zoom = parseZoom(parts[0])
		view.FocusPopup = decodeComponent(parts[1])
		view.Popups = append(view.Popups, view.FocusPopup)
	case 3:
		lat, latOK := numfmt.ParseLeadingFloat(parts[1])
		lng, lngOK := numfmt.ParseLeadingFloat(parts[2])
		// An unreadable center leaves the whole view untouched.
		if latOK && lngOK {
			view.Center = &domain.GeoPoint{Lat: lat, Lon: lng}
			view.Zoom = parseZoom(parts[0])
		}
	}

	base := valueOr(st, LayersKey, s.defaultBase)
	overlays := valueOr(st, OverlaysKey, s.defaultOverlays)
	baseCodes := splitChars(base)
	overlayCodes := splitNonEmpty(overlays, ",")

	view.Layers = make([]domain.LayerVisibility, 0, len(s.catalog))
	for _, l := range s.catalog {
		codes := baseCodes
		if l.Overlay {
			codes = overlayCodes
		}
		view.Layers = append(view.Layers, domain.LayerVisibility{Layer: l, Visible: contains(codes, l.Code)})
	}
	return view
}

// UpdateMap writes the view's zoom and either its focused popup or its
// center into "map", and the other open popups into "popups". The focus
// popup only counts when it is among the open popups.
func (s *LocationHashService) UpdateMap(ctx context.Context, session string, u domain.MapUpdate) (string, error) {
	if math.IsNaN(u.Zoom) || math.IsInf(u.Zoom, 0) {
		return "", ErrInvalidZoom
	}
	return s.fragments.Update(ctx, session, "location", func(st *fragment.State) error {
		zoom := math.Floor(u.Zoom)

		focus := u.FocusPopup
		if focus != "" && !contains(u.OpenPopups, focus) {
			focus = ""
		}

		value := numfmt.ToFixed(zoom, 0) + "/"
		if focus != "" {
			value += encodeComponent(focus)
		} else {
			precision := mapPrecision(zoom)
			value += numfmt.ToFixed(u.Center.Lat, precision) + "/" + numfmt.ToFixed(u.Center.Lon, precision)
		}
		st.Set(MapKey, value)

		var others []string
		for _, name := range u.OpenPopups {
			if name != "" && name != focus {
				others = append(others, encodeComponent(name))
			}
		}
		if len(others) > 0 {
			st.Set(PopupsKey, strings.Join(others, ","))
		} else {
			st.Delete(PopupsKey)
		}
		return nil
	})
}

// UpdateLayers writes the visible layers. Keys equal to the catalog
// defaults are removed. Unknown codes are ignored.
func (s *LocationHashService) UpdateLayers(ctx context.Context, session string, visible []string) (string, error) {
	active := make(map[string]bool, len(visible))
	for _, code := range visible {
		active[code] = true
	}
	base, overlays := s.layerStrings(active)

	return s.fragments.Update(ctx, session, "location", func(st *fragment.State) error {
		if base == s.defaultBase {
			st.Delete(LayersKey)
		} else {
			st.Set(LayersKey, base)
		}
		if overlays == s.defaultOverlays {
			st.Delete(OverlaysKey)
		} else {
			st.Set(OverlaysKey, overlays)
		}
		return nil
	})
}

// layerStrings renders the active codes in catalog order.
func (s *LocationHashService) layerStrings(active map[string]bool) (base, overlays string) {
	var b strings.Builder
	var ov []string
	for _, l := range s.catalog {
		if l.Code == "" || !active[l.Code] {
			continue
		}
		if l.Overlay {
			ov = append(ov, l.Code)
		} else {
			b.WriteString(l.Code)
		}
	}
	return b.String(), strings.Join(ov, ",")
}

// mapPrecision is the number of decimals written for the center at zoom.
func mapPrecision(zoom float64) int {
	if zoom <= 0 {
		return 0
	}
	return int(math.Max(0, math.Ceil(math.Log2(zoom))))
}

func parseZoom(s string) *float64 {
	z, ok := numfmt.ParseLeadingInt(s)
	if !ok {
		return nil
	}
	f := float64(z)
	return &f
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

var componentUnescapes = strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// encodeComponent escapes s for use inside a fragment value. Only
// letters, digits and -_.!~*'() are left as is.
func encodeComponent(s string) string {
	e := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return componentUnescapes.Replace(e)
}

// decodeComponent reverses encodeComponent. Invalid escapes leave s as is.
func decodeComponent(s string) string {
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return d
}

// valueOr returns the value of key, or def when the key is missing or a
// bare flag.
func valueOr(st *fragment.State, key, def string) string {
	e, ok := st.Get(key)
	if !ok || e.Flag {
		return def
	}
	return e.Value
}
