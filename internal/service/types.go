// Package service contains the domain logic for the plat-quake map server:
// feed acquisition, feature styling, layer groups and the map view state.
package service

import "github.com/paulmach/orb"

// Layer group names, as shown in the layer control.
const (
	EarthquakesLayer    = "Earthquakes"
	TectonicPlatesLayer = "Tectonic_Plates"
)

// Feature is one earthquake event taken from the feed. It is never mutated
// after decoding.
type Feature struct {
	ID               string    `json:"id" doc:"Event identifier from the feed" example:"us7000abcd"`
	Magnitude        float64   `json:"mag" doc:"Event magnitude" example:"4.6"`
	MagnitudeMissing bool      `json:"magMissing,omitempty" doc:"True when the feed had no magnitude"`
	Depth            float64   `json:"depth" doc:"Depth in km (third coordinate)" example:"35.2"`
	Place            string    `json:"place" doc:"Human-readable place" example:"10 km SW of Ridgecrest, CA"`
	Position         orb.Point `json:"position" doc:"Longitude, latitude"`
}

// StyleSpec is the circle-marker style derived from a feature.
type StyleSpec struct {
	Radius      float64 `json:"radius" doc:"Marker radius in pixels"`
	FillColor   string  `json:"fillColor" doc:"Fill color (CSS name)"`
	FillOpacity float64 `json:"fillOpacity" doc:"Fill opacity (0-1)"`
	Color       string  `json:"color" doc:"Border color (CSS)"`
	Opacity     float64 `json:"opacity" doc:"Border opacity (0-1)"`
	Weight      float64 `json:"weight" doc:"Border width"`
}

// LineStyle is a fixed style for boundary lines.
type LineStyle struct {
	Color   string  `json:"color" doc:"Line color (CSS)" example:"orange"`
	Weight  float64 `json:"weight" doc:"Line width" example:"2"`
	Opacity float64 `json:"opacity" doc:"Line opacity (0-1)" example:"1"`
}

// Marker is a styled point marker with its popup content.
type Marker struct {
	Feature Feature   `json:"feature"`
	Style   StyleSpec `json:"style"`
	Popup   string    `json:"popup"`
}

// DepthBucket is one legend entry. Upper is nil for the open-ended last bucket.
type DepthBucket struct {
	Lower float64  `json:"lower" doc:"Inclusive lower bound (km)" example:"-10"`
	Upper *float64 `json:"upper,omitempty" doc:"Upper bound (km), absent for the last bucket" example:"10"`
	Color string   `json:"color" doc:"Marker color name" example:"pink"`
	Hex   string   `json:"hex" doc:"Legend swatch color" example:"#FFC0CB"`
}

// OverlayState is the control state of one overlay group.
type OverlayState struct {
	Name      string `json:"name" doc:"Overlay name" example:"Earthquakes"`
	Visible   bool   `json:"visible" doc:"Whether the overlay is shown"`
	Populated bool   `json:"populated" doc:"Whether the feed data has arrived"`
	Count     int    `json:"count" doc:"Number of rendered objects"`
}

// MapState is a snapshot of the map view.
type MapState struct {
	Container  string         `json:"container" doc:"Page element id hosting the map" example:"map"`
	Center     [2]float64     `json:"center" doc:"Initial center as [lat, lon]"`
	Zoom       int            `json:"zoom" doc:"Initial zoom level" example:"5"`
	ActiveBase string         `json:"activeBase" doc:"Active base layer" example:"Street"`
	BaseLayers []TileProvider `json:"baseLayers" doc:"Available base layers"`
	Overlays   []OverlayState `json:"overlays" doc:"Overlay groups in control order"`
}
