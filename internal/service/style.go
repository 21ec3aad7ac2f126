package service

import (
	"strconv"
	"strings"
)

// Marker border and fill constants.
const (
	markerFillOpacity = 0.6
	markerBorder      = "black"
	markerOpacity     = 1.0
	markerWeight      = 0.5
)

// PlateStyle is applied to every tectonic plate boundary.
var PlateStyle = LineStyle{Color: "orange", Weight: 2, Opacity: 1}

// DepthColor maps a depth in km to a marker color. The cascade is evaluated
// top-down with strict comparisons, except the 10 km boundary which is
// inclusive. Anything below 10, including negative depths, is pink.
func DepthColor(depth float64) string {
	switch {
	case depth > 90:
		return "red"
	case depth > 70:
		return "orange"
	case depth > 50:
		return "gold"
	case depth > 30:
		return "yellow"
	case depth >= 10:
		return "lightgreen"
	default:
		return "pink"
	}
}

// MagnitudeRadius maps a magnitude to a marker radius. Zero gets a radius of
// 1 so the marker stays visible. Negative magnitudes yield a negative radius.
func MagnitudeRadius(mag float64) float64 {
	if mag == 0 {
		return 1
	}
	return mag * 4
}

// featureRadius is MagnitudeRadius, except a missing magnitude draws no
// marker at all.
func featureRadius(f Feature) float64 {
	if f.MagnitudeMissing {
		return 0
	}
	return MagnitudeRadius(f.Magnitude)
}

// StyleFor computes the marker style for a feature.
func StyleFor(f Feature) StyleSpec {
	return StyleSpec{
		Radius:      featureRadius(f),
		FillColor:   DepthColor(f.Depth),
		FillOpacity: markerFillOpacity,
		Color:       markerBorder,
		Opacity:     markerOpacity,
		Weight:      markerWeight,
	}
}

// Popup builds the popup HTML for a feature. There is no separator between
// "Depth" and the value; clients match on this exact text.
func Popup(f Feature) string {
	var b strings.Builder
	b.WriteString("Magnitude: ")
	if f.MagnitudeMissing {
		b.WriteString("null")
	} else {
		b.WriteString(formatNumber(f.Magnitude))
	}
	b.WriteString("<br>Depth")
	b.WriteString(formatNumber(f.Depth))
	b.WriteString("<br>Location: ")
	b.WriteString(f.Place)
	return b.String()
}

// Render styles a feature into a marker.
func Render(f Feature) Marker {
	return Marker{Feature: f, Style: StyleFor(f), Popup: Popup(f)}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
