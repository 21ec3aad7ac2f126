package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-quake/internal/service"
)

const quakes = `{"type":"FeatureCollection","features":[
  {"type":"Feature","id":"ca1","properties":{"mag":4.5,"place":"Ridgecrest"},"geometry":{"type":"Point","coordinates":[-117.5,35.7,12]}},
  {"type":"Feature","id":"jp1","properties":{"mag":6,"place":"Tokyo"},"geometry":{"type":"Point","coordinates":[139.7,35.6,95]}}
]}`

const plates = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"Name":"AF-AN"},"geometry":{"type":"LineString","coordinates":[[-0.4,-54.8],[0.0,-54.3]]}}
]}`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/quakes", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(quakes)) })
	mux.HandleFunc("/plates", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(plates)) })
	feeds := httptest.NewServer(mux)
	t.Cleanup(feeds.Close)

	srv, err := New(context.Background(), Config{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		EarthquakeFeed: feeds.URL + "/quakes",
		PlatesFeed:     feeds.URL + "/plates",
		HTTPClient:     feeds.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Close() })

	srv.Start(context.Background())
	srv.View().Wait()
	return srv
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestEarthquakeLayerGeoJSON(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/layers/Earthquakes", "")
	is.Equal(rec.Code, http.StatusOK)
	is.True(strings.HasPrefix(rec.Header().Get("Content-Type"), "application/geo+json"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	is.NoErr(err)
	is.Equal(len(fc.Features), 2)
	is.Equal(fc.Features[0].Properties["popup"], "Magnitude: 4.5<br>Depth12<br>Location: Ridgecrest")

	style := fc.Features[0].Properties["style"].(map[string]any)
	is.Equal(style["fillColor"], "lightgreen")
	is.Equal(style["radius"], 18.0)
}

func TestPlatesLayerGeoJSON(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/layers/tectonic_plates", "")
	is.Equal(rec.Code, http.StatusOK)

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	is.NoErr(err)
	is.Equal(len(fc.Features), 1)
	style := fc.Features[0].Properties["style"].(map[string]any)
	is.Equal(style["color"], "orange")
	is.Equal(style["weight"], 2.0)
}

func TestUnknownLayer(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	is.Equal(do(srv, http.MethodGet, "/api/v1/layers/Volcanoes", "").Code, http.StatusNotFound)
	is.Equal(do(srv, http.MethodPost, "/api/v1/layers/Volcanoes/toggle", "").Code, http.StatusNotFound)
}

func TestToggleKeepsData(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/v1/layers/Earthquakes/toggle", "")
	is.Equal(rec.Code, http.StatusOK)

	var st service.OverlayState
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &st))
	is.Equal(st.Visible, false)
	is.Equal(st.Count, 2)

	rec = do(srv, http.MethodPut, "/api/v1/layers/Earthquakes/visible", `{"visible":true}`)
	is.Equal(rec.Code, http.StatusOK)
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &st))
	is.Equal(st.Visible, true)
	is.Equal(st.Count, 2)
}

func TestSelectBase(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodPut, "/api/v1/map/base", `{"name":"Topography"}`)
	is.Equal(rec.Code, http.StatusOK)

	var st service.MapState
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &st))
	is.Equal(st.ActiveBase, "Topography")

	is.Equal(do(srv, http.MethodPut, "/api/v1/map/base", `{"name":"Satellite"}`).Code, http.StatusNotFound)
}

func TestBasemapTileRedirect(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/basemaps/Street/4/3/4", "")
	is.Equal(rec.Code, http.StatusFound)
	is.Equal(rec.Header().Get("Location"), "https://b.tile.openstreetmap.org/4/3/4.png")

	is.Equal(do(srv, http.MethodGet, "/api/v1/basemaps/Street/1/5/0", "").Code, http.StatusBadRequest)
}

func TestEarthquakesWithinBBox(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/earthquakes?bbox=-125,30,-110,45", "")
	is.Equal(rec.Code, http.StatusOK)
	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	is.NoErr(err)
	is.Equal(len(fc.Features), 1)
	is.Equal(fc.Features[0].ID, "ca1")

	is.Equal(do(srv, http.MethodGet, "/api/v1/earthquakes?bbox=1,2,3", "").Code, http.StatusBadRequest)
}

func TestLayerVectorTile(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/layers/Tectonic_Plates/tiles/0/0/0", "")
	is.Equal(rec.Code, http.StatusOK)
	is.Equal(rec.Header().Get("Content-Type"), service.MVTContentType)
	is.Equal(rec.Header().Get("Content-Encoding"), "gzip")

	is.Equal(do(srv, http.MethodGet, "/api/v1/layers/Tectonic_Plates/tiles/4/0/0", "").Code, http.StatusNoContent)
}

func TestLegend(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/legend", "")
	is.Equal(rec.Code, http.StatusOK)

	var entries []service.LegendEntry
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &entries))
	is.Equal(len(entries), 6)
	is.Equal(entries[5].Label, "90+")
}

func TestViewerPage(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/", "")
	is.Equal(rec.Code, http.StatusFound)
	is.Equal(rec.Header().Get("Location"), "/viewer")

	rec = do(srv, http.MethodGet, "/viewer", "")
	is.Equal(rec.Code, http.StatusOK)
	is.True(strings.Contains(rec.Body.String(), `id="map"`))
	is.True(strings.Contains(rec.Body.String(), `id="legend"`))
}

func TestHealthLinks(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/health", "")
	is.Equal(rec.Code, http.StatusOK)
	is.True(len(rec.Header().Values("Link")) > 0)
}

func TestViewerLegendStream(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/viewer/legend", "")
	is.Equal(rec.Code, http.StatusOK)
	body := rec.Body.String()
	is.True(strings.Contains(body, "datastar-patch-elements"))
	is.True(strings.Contains(body, "#legend"))
	is.True(strings.Contains(body, "90+"))
}

func TestViewerToggleOverlay(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/v1/viewer/overlays/Earthquakes/toggle", "")
	is.Equal(rec.Code, http.StatusOK)
	body := rec.Body.String()
	is.True(strings.Contains(body, "#layer-control"))
	is.True(strings.Contains(body, "layer-changed"))
	is.True(strings.Contains(body, "hidden"))

	g, err := srv.View().Layers().Get(service.EarthquakesLayer)
	is.NoErr(err)
	is.True(!g.Visible())
	is.Equal(g.Len(), 2)

	is.Equal(do(srv, http.MethodPost, "/api/v1/viewer/overlays/Volcanoes/toggle", "").Code, http.StatusNotFound)
	is.Equal(do(srv, http.MethodPost, "/api/v1/viewer/base/Satellite", "").Code, http.StatusNotFound)
}

func TestViewerSelectBase(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/v1/viewer/base/Topography", "")
	is.Equal(rec.Code, http.StatusOK)
	is.True(strings.Contains(rec.Body.String(), "selected"))
	is.Equal(srv.View().ActiveBase(), "Topography")
}

// readUntil reads SSE lines until one contains want.
func readUntil(r *bufio.Reader, want string) bool {
	for {
		line, err := r.ReadString('\n')
		if strings.Contains(line, want) {
			return true
		}
		if err != nil {
			return false
		}
	}
}

func TestViewerEventsReplayThenLive(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	hs := httptest.NewServer(srv)
	defer hs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.URL+"/api/v1/viewer/events", nil)
	is.NoErr(err)
	resp, err := hs.Client().Do(req)
	is.NoErr(err)
	defer resp.Body.Close()
	is.Equal(resp.StatusCode, http.StatusOK)

	r := bufio.NewReader(resp.Body)
	// Both feeds landed before the stream opened, so they are replayed.
	is.True(readUntil(r, "populated"))
	is.True(readUntil(r, service.TectonicPlatesLayer))

	_, err = srv.View().SelectBase("Topography")
	is.NoErr(err)
	is.True(readUntil(r, "selected"))
}

func TestReplayCoversHiddenGroups(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	_, err := srv.View().SetOverlayVisible(service.TectonicPlatesLayer, false)
	is.NoErr(err)

	hs := httptest.NewServer(srv)
	defer hs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.URL+"/api/v1/viewer/events", nil)
	is.NoErr(err)
	resp, err := hs.Client().Do(req)
	is.NoErr(err)
	defer resp.Body.Close()

	is.True(readUntil(bufio.NewReader(resp.Body), "hidden"))
}

func TestCatalogOverHTTP(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/tables", "")
	is.Equal(rec.Code, http.StatusOK)
	var tables struct{ Tables []string }
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &tables))
	is.Equal(tables.Tables, []string{"earthquakes"})

	rec = do(srv, http.MethodPost, "/api/v1/query", `{"query":"SELECT count(*) AS n FROM earthquakes"}`)
	is.Equal(rec.Code, http.StatusOK)
	var res struct {
		Rows  []map[string]any
		Count int
	}
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &res))
	is.Equal(res.Count, 1)
	is.Equal(res.Rows[0]["n"], 2.0)

	is.Equal(do(srv, http.MethodPost, "/api/v1/query", `{"query":"DROP TABLE earthquakes"}`).Code, http.StatusForbidden)
	is.Equal(do(srv, http.MethodPost, "/api/v1/query", `{"query":"SELECT * FROM nowhere"}`).Code, http.StatusBadRequest)
}
