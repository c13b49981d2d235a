package domain

import "time"

// DistanceProfile holds cumulative distances in kilometres, one entry per
// path point. The first entry is always 0.
type DistanceProfile []float64

// Total returns the last cumulative distance, or 0 for an empty profile.
func (d DistanceProfile) Total() float64 {
	if len(d) == 0 {
		return 0
	}
	return d[len(d)-1]
}

// IntervalMarker is a labelled point placed at a whole multiple of the
// marker spacing along a path.
type IntervalMarker struct {
	Position GeoPoint `json:"position"`
	Distance float64  `json:"distance_km"`
	Label    string   `json:"label"`
}

// Measurement is the full result of measuring a path at a zoom level.
type Measurement struct {
	Encoded   string           `json:"encoded"`
	Points    Path             `json:"points"`
	Profile   DistanceProfile  `json:"profile"`
	TotalKm   float64          `json:"total_km"`
	Formatted string           `json:"formatted"`
	Status    string           `json:"status"`
	SpacingKm float64          `json:"spacing_km"`
	Zoom      float64          `json:"zoom"`
	Markers   []IntervalMarker `json:"markers"`
	Bounds    *Bounds          `json:"bounds,omitempty"`
}

// SavedPath is a named, persisted measurement.
type SavedPath struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Encoded    string    `json:"encoded"`
	PointCount int       `json:"point_count"`
	TotalKm    float64   `json:"total_km"`
	CreatedAt  time.Time `json:"created_at"`
}

// Layer describes one entry of the map's layer catalog. Codes are
// single characters for base layers; overlays may use longer codes.
type Layer struct {
	Code    string `json:"code" mapstructure:"code"`
	Name    string `json:"name" mapstructure:"name"`
	Overlay bool   `json:"overlay" mapstructure:"overlay"`
	Default bool   `json:"default" mapstructure:"default"`
}

// LayerVisibility pairs a catalog layer with its restored visibility.
type LayerVisibility struct {
	Layer
	Visible bool `json:"visible"`
}

// ViewState is the map view restored from a session fragment. Nil
// pointers mean the fragment did not carry that value.
type ViewState struct {
	Zoom       *float64          `json:"zoom,omitempty"`
	Center     *GeoPoint         `json:"center,omitempty"`
	FocusPopup string            `json:"focus_popup,omitempty"`
	Popups     []string          `json:"popups"`
	Layers     []LayerVisibility `json:"layers"`
}

// MapUpdate is a view change to be written into a session fragment.
type MapUpdate struct {
	Zoom       float64  `json:"zoom"`
	Center     GeoPoint `json:"center"`
	FocusPopup string   `json:"focus_popup,omitempty"`
	OpenPopups []string `json:"open_popups"`
}

// FragmentChange is published whenever a session fragment is replaced.
type FragmentChange struct {
	Session  string    `json:"session"`
	Fragment string    `json:"fragment"`
	Source   string    `json:"source"`
	At       time.Time `json:"at"`
}

// DistanceStrings are the user-facing texts of the distance tool.
type DistanceStrings struct {
	MeasureDistance string `json:"measureDistance" mapstructure:"measure_distance"`
	TotalDistance   string `json:"totalDistance" mapstructure:"total_distance"`
	ClickToDraw     string `json:"clickToDraw" mapstructure:"click_to_draw"`
	ClickToRemove   string `json:"clickToRemove" mapstructure:"click_to_remove"`
}
