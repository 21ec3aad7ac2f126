// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-quake/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	View *service.MapView
}

// Types

type NameInput struct {
	Name string `path:"name" doc:"Layer name" example:"Earthquakes"`
}

type MapOutput struct {
	Body service.MapState
}

type OverlayOutput struct {
	Body service.OverlayState
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        *geojson.FeatureCollection
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type SelectBaseInput struct {
	Body struct {
		Name string `json:"name" required:"true" doc:"Base layer name" example:"Topography"`
	}
}

type VisibleInput struct {
	NameInput
	Body struct {
		Visible bool `json:"visible" doc:"Show or hide the overlay"`
	}
}

type TileInput struct {
	Name string `path:"name" doc:"Base layer name" example:"Street"`
	Z    uint32 `path:"z" doc:"Zoom level" maximum:"22"`
	X    uint32 `path:"x" doc:"Tile column"`
	Y    uint32 `path:"y" doc:"Tile row"`
}

type RedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

type LayerTileInput struct {
	Name string `path:"name" doc:"Layer name" example:"Tectonic_Plates"`
	Z    uint32 `path:"z" doc:"Zoom level" maximum:"22"`
	X    uint32 `path:"x" doc:"Tile column"`
	Y    uint32 `path:"y" doc:"Tile row"`
}

type VectorTileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	Body            []byte
}

type BBoxInput struct {
	BBox string `query:"bbox" doc:"Viewport as minLon,minLat,maxLon,maxLat; empty for the whole world" example:"-125,30,-110,45"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers map view routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/map/base", h.PutBase, huma.OperationTags("map"))
}

// RegisterBasemaps registers base layer routes.
func (h *APIHandler) RegisterBasemaps(api huma.API) {
	huma.Get(api, "/api/v1/basemaps", h.GetBasemaps, huma.OperationTags("basemaps"))
	huma.Get(api, "/api/v1/basemaps/{name}/{z}/{x}/{y}", h.GetBasemapTile, huma.OperationTags("basemaps"))
}

// RegisterLayers registers overlay routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{name}", h.GetLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{name}/tiles/{z}/{x}/{y}", h.GetLayerTile, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{name}/visible", h.PutVisible, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{name}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
}

// RegisterLegend registers the legend route.
func (h *APIHandler) RegisterLegend(api huma.API) {
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("legend"))
}

// RegisterEarthquakes registers the viewport query route.
func (h *APIHandler) RegisterEarthquakes(api huma.API) {
	huma.Get(api, "/api/v1/earthquakes", h.GetEarthquakes, huma.OperationTags("layers"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*MapOutput, error) {
	return &MapOutput{Body: h.svc.View.State()}, nil
}

func (h *APIHandler) PutBase(ctx context.Context, input *SelectBaseInput) (*MapOutput, error) {
	if _, err := h.svc.View.SelectBase(input.Body.Name); err != nil {
		return nil, toHumaError(err)
	}
	return &MapOutput{Body: h.svc.View.State()}, nil
}

func (h *APIHandler) GetBasemaps(ctx context.Context, input *struct{}) (*struct{ Body []service.TileProvider }, error) {
	return &struct{ Body []service.TileProvider }{Body: service.BaseLayers()}, nil
}

func (h *APIHandler) GetBasemapTile(ctx context.Context, input *TileInput) (*RedirectOutput, error) {
	p, err := service.FindBaseLayer(input.Name)
	if err != nil {
		return nil, toHumaError(err)
	}
	tile := maptile.New(input.X, input.Y, maptile.Zoom(input.Z))
	if !service.ValidTile(tile) {
		return nil, huma.Error400BadRequest(fmt.Sprintf("tile %d/%d/%d is outside the grid", input.Z, input.X, input.Y))
	}
	return &RedirectOutput{Status: http.StatusFound, Location: p.TileURL(tile)}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []service.OverlayState }, error) {
	return &struct{ Body []service.OverlayState }{Body: h.svc.View.State().Overlays}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *NameInput) (*GeoJSONOutput, error) {
	g, err := h.svc.View.Layers().Get(input.Name)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: service.LayerGeoJSON(g)}, nil
}

func (h *APIHandler) GetLayerTile(ctx context.Context, input *LayerTileInput) (*VectorTileOutput, error) {
	g, err := h.svc.View.Layers().Get(input.Name)
	if err != nil {
		return nil, toHumaError(err)
	}
	tile := maptile.New(input.X, input.Y, maptile.Zoom(input.Z))
	if !service.ValidTile(tile) {
		return nil, huma.Error400BadRequest(fmt.Sprintf("tile %d/%d/%d is outside the grid", input.Z, input.X, input.Y))
	}
	data, err := service.VectorTile(g.Name(), service.LayerGeoJSON(g), tile)
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding tile", err)
	}
	if data == nil {
		return &VectorTileOutput{Status: http.StatusNoContent}, nil
	}
	return &VectorTileOutput{
		Status:          http.StatusOK,
		ContentType:     service.MVTContentType,
		ContentEncoding: "gzip",
		Body:            data,
	}, nil
}

func (h *APIHandler) PutVisible(ctx context.Context, input *VisibleInput) (*OverlayOutput, error) {
	st, err := h.svc.View.SetOverlayVisible(input.Name, input.Body.Visible)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &OverlayOutput{Body: st}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *NameInput) (*OverlayOutput, error) {
	st, err := h.svc.View.ToggleOverlay(input.Name)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &OverlayOutput{Body: st}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body []service.LegendEntry }, error) {
	return &struct{ Body []service.LegendEntry }{Body: service.Legend()}, nil
}

func (h *APIHandler) GetEarthquakes(ctx context.Context, input *BBoxInput) (*GeoJSONOutput, error) {
	bound, err := parseBBox(input.BBox)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	markers, err := h.svc.View.Index().Within(bound)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid bbox: " + err.Error())
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: service.MarkersToGeoJSON(markers)}, nil
}

var world = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (orb.Bound, error) {
	if strings.TrimSpace(s) == "" {
		return world, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox needs 4 comma-separated numbers, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New("bbox minimum exceeds maximum")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func toHumaError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownLayer), errors.Is(err, service.ErrUnknownBaseLayer):
		return huma.Error404NotFound(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
