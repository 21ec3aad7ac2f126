package service

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/joeblew999/plat-quake/internal/logging"
)

// Map defaults.
const (
	DefaultContainer = "map"
	DefaultZoom      = 5
)

// DefaultCenter is the initial map center as [lat, lon].
var DefaultCenter = [2]float64{40.73, -96}

// MarkerSink receives the earthquake markers once they are rendered.
type MarkerSink interface {
	LoadMarkers(ctx context.Context, markers []Marker) error
}

// MapView owns the map state for the lifetime of the process: the viewport,
// the active base layer and the overlay groups.
type MapView struct {
	feeds  *FeedService
	layers *LayerSet
	index  *MarkerIndex
	bus    *EventBus
	sinks  []MarkerSink

	mu         sync.RWMutex
	activeBase string

	loadOnce sync.Once
	wg       sync.WaitGroup
}

// NewMapView creates the view with Street as the active base layer and both
// overlays empty.
func NewMapView(feeds *FeedService, sinks ...MarkerSink) *MapView {
	return &MapView{
		feeds:      feeds,
		layers:     NewLayerSet(EarthquakesLayer, TectonicPlatesLayer),
		index:      NewMarkerIndex(),
		bus:        NewEventBus(),
		sinks:      sinks,
		activeBase: Street.Name,
	}
}

// Bus returns the view's event bus.
func (v *MapView) Bus() *EventBus {
	return v.bus
}

// Layers returns the overlay groups.
func (v *MapView) Layers() *LayerSet {
	return v.layers
}

// Index returns the earthquake viewport index.
func (v *MapView) Index() *MarkerIndex {
	return v.index
}

// Load starts both feed fetches. Each runs on its own goroutine and fills
// only its own group; neither waits for the other. Later calls are no-ops.
func (v *MapView) Load(ctx context.Context) {
	v.loadOnce.Do(func() {
		v.wg.Add(2)
		go func() {
			defer v.wg.Done()
			v.loadEarthquakes(ctx)
		}()
		go func() {
			defer v.wg.Done()
			v.loadPlates(ctx)
		}()
	})
}

// Wait blocks until both fetch tasks have finished.
func (v *MapView) Wait() {
	v.wg.Wait()
}

func (v *MapView) loadEarthquakes(ctx context.Context) {
	log := logging.GetLoggerFromContext(ctx)

	features, err := v.feeds.FetchEarthquakes(ctx)
	if err != nil {
		log.Warn().Err(err).Str("layer", EarthquakesLayer).Msg("feed unavailable, layer stays empty")
		v.bus.Publish(Event{Resource: ResourceOverlay, Action: ActionFailed, ID: EarthquakesLayer})
		return
	}

	markers := RenderAll(features)
	group, _ := v.layers.Get(EarthquakesLayer)
	group.AddMarkers(markers...)
	v.index.Insert(markers...)

	for _, sink := range v.sinks {
		if err := sink.LoadMarkers(ctx, markers); err != nil {
			log.Error().Err(err).Msg("failed to load markers into sink")
		}
	}

	log.Info().Str("layer", EarthquakesLayer).Int("count", len(markers)).Msg("layer populated")
	v.bus.Publish(Event{Resource: ResourceOverlay, Action: ActionPopulated, ID: EarthquakesLayer})
}

func (v *MapView) loadPlates(ctx context.Context) {
	log := logging.GetLoggerFromContext(ctx)

	plates, err := v.feeds.FetchPlates(ctx)
	if err != nil {
		log.Warn().Err(err).Str("layer", TectonicPlatesLayer).Msg("feed unavailable, layer stays empty")
		v.bus.Publish(Event{Resource: ResourceOverlay, Action: ActionFailed, ID: TectonicPlatesLayer})
		return
	}

	group, _ := v.layers.Get(TectonicPlatesLayer)
	group.AddBoundaries(plates)

	log.Info().Str("layer", TectonicPlatesLayer).Int("count", len(plates.Features)).Msg("layer populated")
	v.bus.Publish(Event{Resource: ResourceOverlay, Action: ActionPopulated, ID: TectonicPlatesLayer})
}

// ActiveBase returns the name of the active base layer.
func (v *MapView) ActiveBase() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.activeBase
}

// SelectBase makes name the only active base layer.
func (v *MapView) SelectBase(name string) (TileProvider, error) {
	p, err := FindBaseLayer(name)
	if err != nil {
		return TileProvider{}, err
	}
	v.mu.Lock()
	v.activeBase = p.Name
	v.mu.Unlock()

	v.bus.Publish(Event{Resource: ResourceBase, Action: ActionSelected, ID: p.Name})
	return p, nil
}

// SetOverlayVisible shows or hides an overlay without touching its data.
func (v *MapView) SetOverlayVisible(name string, visible bool) (OverlayState, error) {
	g, err := v.layers.Get(name)
	if err != nil {
		return OverlayState{}, err
	}
	if g.SetVisible(visible) {
		v.publishVisibility(g.Name(), visible)
	}
	return g.State(), nil
}

// ToggleOverlay flips an overlay between shown and hidden.
func (v *MapView) ToggleOverlay(name string) (OverlayState, error) {
	g, err := v.layers.Get(name)
	if err != nil {
		return OverlayState{}, err
	}
	v.publishVisibility(g.Name(), g.Toggle())
	return g.State(), nil
}

func (v *MapView) publishVisibility(name string, visible bool) {
	action := ActionHidden
	if visible {
		action = ActionShown
	}
	v.bus.Publish(Event{Resource: ResourceOverlay, Action: action, ID: name})
}

// State returns a snapshot of the view.
func (v *MapView) State() MapState {
	return MapState{
		Container:  DefaultContainer,
		Center:     DefaultCenter,
		Zoom:       DefaultZoom,
		ActiveBase: v.ActiveBase(),
		BaseLayers: BaseLayers(),
		Overlays: lo.Map(v.layers.All(), func(g *LayerGroup, _ int) OverlayState {
			return g.State()
		}),
	}
}
