package service

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"
)

// MVTContentType is the media type of an encoded vector tile.
const MVTContentType = "application/vnd.mapbox-vector-tile"

// LayerGeoJSON returns the styled collection for a group, whichever kind of
// data it holds.
func LayerGeoJSON(g *LayerGroup) *geojson.FeatureCollection {
	if g.Name() == EarthquakesLayer {
		return MarkersToGeoJSON(g.Markers())
	}
	return StyledPlates(g.Boundaries())
}

// VectorTile encodes the features of fc that fall in tile as a gzipped
// Mapbox vector tile with a single layer. It returns nil when nothing is left
// after clipping.
func VectorTile(layerName string, fc *geojson.FeatureCollection, tile maptile.Tile) ([]byte, error) {
	if !ValidTile(tile) {
		return nil, fmt.Errorf("tile %d/%d/%d is outside the grid", tile.Z, tile.X, tile.Y)
	}

	bound := tile.Bound()
	clipped := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.Bound().Intersects(bound) {
			continue
		}
		if p, ok := f.Geometry.(orb.Point); ok && !bound.Contains(p) {
			continue
		}
		// Clip and ProjectToTile work in place.
		gf := geojson.NewFeature(orb.Clone(f.Geometry))
		gf.ID = f.ID
		gf.Properties = tileProperties(f.Properties)
		clipped.Append(gf)
	}
	if len(clipped.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(layerName, clipped)
	if eps := simplifyEpsilon(tile.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(bound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encoding tile %d/%d/%d: %w", tile.Z, tile.X, tile.Y, err)
	}
	return data, nil
}

// tileProperties keeps the scalar properties and flattens the style struct,
// since vector tile values cannot nest.
func tileProperties(props geojson.Properties) geojson.Properties {
	out := make(geojson.Properties, len(props))
	for k, v := range props {
		switch s := v.(type) {
		case string, float64, int, bool:
			out[k] = v
		case StyleSpec:
			out["radius"] = s.Radius
			out["fillColor"] = s.FillColor
			out["fillOpacity"] = s.FillOpacity
			out["color"] = s.Color
			out["opacity"] = s.Opacity
			out["weight"] = s.Weight
		case LineStyle:
			out["color"] = s.Color
			out["weight"] = s.Weight
			out["opacity"] = s.Opacity
		}
	}
	return out
}

// simplifyEpsilon returns the Douglas-Peucker tolerance in degrees for a zoom
// level. Plate boundaries are drawn at 2px, so low zooms tolerate a lot.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 12:
		return 0
	case zoom >= 8:
		return 0.0005
	case zoom >= 4:
		return 0.005
	default:
		return 0.02
	}
}
