package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-quake/internal/api"
	"github.com/joeblew999/plat-quake/internal/api/viewer"
	"github.com/joeblew999/plat-quake/internal/db"
	"github.com/joeblew999/plat-quake/internal/logging"
	"github.com/joeblew999/plat-quake/internal/service"
	"github.com/joeblew999/plat-quake/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host           string
	Port           string
	Version        string
	EarthquakeFeed string
	PlatesFeed     string
	FetchTimeout   time.Duration // 0 means no timeout
	WebDir         string        // optional override for the embedded templates
	HTTPClient     *http.Client
}

// Server is the quake map HTTP server.
type Server struct {
	log      zerolog.Logger
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	view     *service.MapView
	catalog  *db.Catalog
	renderer *templates.Renderer
}

// New creates a new server. The feeds are not fetched until Start.
func New(ctx context.Context, cfg Config) (*Server, error) {
	log := logging.GetLoggerFromContext(ctx)
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-quake API", "1.0.0")
	humaConfig.Info.Description = "Earthquake and tectonic plate map server: styled GeoJSON layers, base maps and a depth legend."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, err := newRenderer(cfg.WebDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	catalog, err := db.Open(ctx)
	if err != nil {
		// The map works without the SQL catalog.
		log.Warn().Err(err).Msg("duckdb catalog unavailable")
		catalog = nil
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	feeds := service.NewFeedService(client, cfg.EarthquakeFeed, cfg.PlatesFeed)

	var sinks []service.MarkerSink
	if catalog != nil {
		sinks = append(sinks, catalog)
	}

	s := &Server{
		log:      log,
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		view:     service.NewMapView(feeds, sinks...),
		catalog:  catalog,
		renderer: renderer,
	}
	s.routes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions},
		ExposedHeaders: []string{"Link", "Location"},
	}).Handler(mux)

	return s, nil
}

func newRenderer(webDir string) (*templates.Renderer, error) {
	if webDir != "" {
		return templates.NewFromDir(webDir)
	}
	return templates.New()
}

// Start begins loading both feeds in the background.
func (s *Server) Start(ctx context.Context) {
	s.view.Load(ctx)
}

// View returns the map view.
func (s *Server) View() *service.MapView {
	return s.view
}

// OpenAPI returns the OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.catalog != nil {
		return s.catalog.Close()
	}
	return nil
}

func (s *Server) routes() {
	s.humaAPI.UseMiddleware(s.requestLogger)

	// REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, &api.Services{View: s.view})
	api.NewInfoHandler(s.config.Version, s.catalog != nil).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.catalog).RegisterRoutes(s.humaAPI)

	// Viewer SSE routes using Huma + Datastar SDK
	viewer.NewHandler(s.view, s.renderer).RegisterRoutes(s.humaAPI)

	// Page routes
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/viewer", http.StatusFound)
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if s.config.WebDir != "" {
		// Pick up template edits without a restart.
		if err := s.renderer.Reload(s.config.WebDir); err != nil {
			s.log.Warn().Err(err).Str("dir", s.config.WebDir).Msg("template reload failed, keeping previous templates")
		}
	}
	html, err := s.renderer.Render("viewer", s.view.State())
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// requestLogger logs each API operation and puts the logger on the request
// context for handlers further down.
func (s *Server) requestLogger(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	ctx = huma.WithContext(ctx, logging.NewContextWithLogger(ctx.Context(), s.log))
	next(ctx)

	op := ctx.Operation()
	if op == nil {
		return
	}
	s.log.Debug().
		Str("method", ctx.Method()).
		Str("path", ctx.URL().Path).
		Str("operation", op.OperationID).
		Int("status", ctx.Status()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}
