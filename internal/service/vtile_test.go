package service

import (
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

func TestVectorTilePlates(t *testing.T) {
	is := is.New(t)

	plates, err := DecodePlates(strings.NewReader(plateFixture))
	is.NoErr(err)

	data, err := VectorTile(TectonicPlatesLayer, StyledPlates(plates), maptile.New(0, 0, 0))
	is.NoErr(err)
	is.True(data != nil)

	layers, err := mvt.UnmarshalGzipped(data)
	is.NoErr(err)
	is.Equal(len(layers), 1)
	is.Equal(layers[0].Name, TectonicPlatesLayer)
	is.Equal(len(layers[0].Features), 1)
	is.Equal(layers[0].Features[0].Properties["Name"], "AF-AN")
	is.Equal(layers[0].Features[0].Properties["color"], "orange")
}

func TestVectorTileMarkersCarryFlatStyle(t *testing.T) {
	is := is.New(t)

	features, err := DecodeEarthquakes(strings.NewReader(quakeFixture))
	is.NoErr(err)

	data, err := VectorTile(EarthquakesLayer, MarkersToGeoJSON(RenderAll(features)), maptile.New(0, 0, 0))
	is.NoErr(err)

	layers, err := mvt.UnmarshalGzipped(data)
	is.NoErr(err)
	is.Equal(len(layers[0].Features), 2)

	props := layers[0].Features[0].Properties
	is.Equal(props["fillColor"], "yellow") // depth 40
	is.Equal(props["radius"], 20.0)       // mag 5
	is.Equal(props["fillOpacity"], 0.6)
	is.Equal(props["color"], "black")
	is.Equal(props["opacity"], 1.0)
	is.Equal(props["weight"], 0.5)
	_, nested := props["style"]
	is.True(!nested)
}

func TestVectorTileEmpty(t *testing.T) {
	is := is.New(t)

	plates, err := DecodePlates(strings.NewReader(plateFixture))
	is.NoErr(err)

	// The fixture boundary sits near 0°, -54°; the north-west tile misses it.
	data, err := VectorTile(TectonicPlatesLayer, StyledPlates(plates), maptile.New(0, 0, 4))
	is.NoErr(err)
	is.True(data == nil)
}

func TestVectorTileOutsideGrid(t *testing.T) {
	is := is.New(t)

	_, err := VectorTile(EarthquakesLayer, MarkersToGeoJSON(nil), maptile.New(2, 0, 1))
	is.True(err != nil)
}

func TestTilePropertiesFlattenEveryStyleField(t *testing.T) {
	is := is.New(t)

	style := StyleFor(Feature{Magnitude: 5, Depth: 40})
	props := tileProperties(geojson.Properties{"style": style, "place": "Test"})
	is.Equal(props, geojson.Properties{
		"place":       "Test",
		"radius":      style.Radius,
		"fillColor":   style.FillColor,
		"fillOpacity": style.FillOpacity,
		"color":       style.Color,
		"opacity":     style.Opacity,
		"weight":      style.Weight,
	})
}
