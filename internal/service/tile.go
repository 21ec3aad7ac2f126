package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
	"github.com/samber/lo"
)

// ErrUnknownBaseLayer is returned for a base layer name that is not registered.
var ErrUnknownBaseLayer = errors.New("unknown base layer")

// TileProvider is a named slippy-tile source.
type TileProvider struct {
	Name        string   `json:"name" doc:"Base layer name" example:"Street"`
	URLTemplate string   `json:"urlTemplate" doc:"Tile URL template with {s},{z},{x},{y}" example:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	Attribution string   `json:"attribution" doc:"Attribution HTML"`
	Subdomains  []string `json:"subdomains,omitempty" doc:"Values substituted for {s}"`
}

var defaultSubdomains = []string{"a", "b", "c"}

// Topography and Street are the two base layers offered by the map.
var (
	Topography = TileProvider{
		Name:        "Topography",
		URLTemplate: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, <a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> (<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`,
		Subdomains:  defaultSubdomains,
	}
	Street = TileProvider{
		Name:        "Street",
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		Subdomains:  defaultSubdomains,
	}
)

// BaseLayers returns the base layers in control order.
func BaseLayers() []TileProvider {
	return []TileProvider{Topography, Street}
}

// FindBaseLayer looks a provider up by name, ignoring case.
func FindBaseLayer(name string) (TileProvider, error) {
	p, ok := lo.Find(BaseLayers(), func(p TileProvider) bool {
		return strings.EqualFold(p.Name, name)
	})
	if !ok {
		return TileProvider{}, fmt.Errorf("%w: %q", ErrUnknownBaseLayer, name)
	}
	return p, nil
}

// TileURL expands the provider template for a tile. The {s} subdomain is
// picked from (x+y) mod len(subdomains).
func (p TileProvider) TileURL(t maptile.Tile) string {
	sub := ""
	if len(p.Subdomains) > 0 {
		sub = p.Subdomains[int((t.X+t.Y)%uint32(len(p.Subdomains)))]
	}
	r := strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)
	return r.Replace(p.URLTemplate)
}

// ValidTile reports whether x and y fall inside the tile grid at zoom z.
func ValidTile(t maptile.Tile) bool {
	if t.Z > 22 {
		return false
	}
	n := uint32(1) << uint32(t.Z)
	return t.X < n && t.Y < n
}
