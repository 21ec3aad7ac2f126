package service

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
)

// quakeCollection is the subset of the USGS FeatureCollection we read.
// orb/geojson drops the third coordinate, so earthquakes are decoded here.
type quakeCollection struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag   *float64 `json:"mag"`
			Place string   `json:"place"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// DecodeEarthquakes reads a GeoJSON FeatureCollection of earthquake points.
// A null magnitude is flagged with MagnitudeMissing. A missing depth reads as 0.
func DecodeEarthquakes(r io.Reader) ([]Feature, error) {
	var fc quakeCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding earthquakes: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for _, raw := range fc.Features {
		f := Feature{ID: raw.ID, Place: raw.Properties.Place}
		if raw.Properties.Mag != nil {
			f.Magnitude = *raw.Properties.Mag
		} else {
			f.MagnitudeMissing = true
		}
		c := raw.Geometry.Coordinates
		if len(c) >= 2 {
			f.Position = orb.Point{c[0], c[1]}
		}
		if len(c) >= 3 {
			f.Depth = c[2]
		}
		features = append(features, f)
	}
	return features, nil
}

// DecodePlates reads the plate boundary FeatureCollection.
func DecodePlates(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plates: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding plates: %w", err)
	}
	return fc, nil
}

// RenderAll styles every feature, preserving feed order.
func RenderAll(features []Feature) []Marker {
	return lo.Map(features, func(f Feature, _ int) Marker { return Render(f) })
}

// MarkersToGeoJSON encodes markers as point features whose properties carry
// the precomputed style and popup.
func MarkersToGeoJSON(markers []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		gf := geojson.NewFeature(m.Feature.Position)
		if m.Feature.ID != "" {
			gf.ID = m.Feature.ID
		}
		if m.Feature.MagnitudeMissing {
			gf.Properties["mag"] = nil
		} else {
			gf.Properties["mag"] = m.Feature.Magnitude
		}
		gf.Properties["depth"] = m.Feature.Depth
		gf.Properties["place"] = m.Feature.Place
		gf.Properties["style"] = m.Style
		gf.Properties["popup"] = m.Popup
		fc.Append(gf)
	}
	return fc
}

// StyledPlates copies the boundary collection and attaches PlateStyle to
// every feature. The source collection is left untouched.
func StyledPlates(src *geojson.FeatureCollection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if src == nil {
		return fc
	}
	for _, f := range src.Features {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		gf.Properties["style"] = PlateStyle
		fc.Append(gf)
	}
	return fc
}
