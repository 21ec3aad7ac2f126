package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// ErrUnknownLayer is returned for an overlay name that is not registered.
var ErrUnknownLayer = errors.New("unknown layer")

// LayerGroup is a named, insert-only collection of rendered map objects.
// A group starts hidden and is shown when its data arrives. After that only
// the control changes visibility, and hiding a group keeps its data.
type LayerGroup struct {
	name string

	mu         sync.RWMutex
	visible    bool
	populated  bool
	markers    []Marker
	boundaries []*geojson.Feature
}

// NewLayerGroup creates an empty, hidden group.
func NewLayerGroup(name string) *LayerGroup {
	return &LayerGroup{name: name}
}

// Name returns the group name.
func (g *LayerGroup) Name() string {
	return g.name
}

// AddMarkers appends earthquake markers. The first population shows the group.
func (g *LayerGroup) AddMarkers(markers ...Marker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markers = append(g.markers, markers...)
	g.markPopulated()
}

// AddBoundaries appends the features of a boundary collection.
func (g *LayerGroup) AddBoundaries(fc *geojson.FeatureCollection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fc != nil {
		g.boundaries = append(g.boundaries, fc.Features...)
	}
	g.markPopulated()
}

func (g *LayerGroup) markPopulated() {
	if !g.populated {
		g.populated = true
		g.visible = true
	}
}

// Markers returns a copy of the group's markers.
func (g *LayerGroup) Markers() []Marker {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Marker, len(g.markers))
	copy(out, g.markers)
	return out
}

// Boundaries returns the group's boundary features as a collection.
func (g *LayerGroup) Boundaries() *geojson.FeatureCollection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, g.boundaries...)
	return fc
}

// Len returns the number of rendered objects in the group.
func (g *LayerGroup) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.markers) + len(g.boundaries)
}

// Populated reports whether the group has received its data.
func (g *LayerGroup) Populated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.populated
}

// Visible reports whether the group is shown.
func (g *LayerGroup) Visible() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.visible
}

// SetVisible shows or hides the group and reports whether the state changed.
func (g *LayerGroup) SetVisible(visible bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := g.visible != visible
	g.visible = visible
	return changed
}

// Toggle flips visibility and returns the new state.
func (g *LayerGroup) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = !g.visible
	return g.visible
}

// State returns the control state of the group.
func (g *LayerGroup) State() OverlayState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return OverlayState{
		Name:      g.name,
		Visible:   g.visible,
		Populated: g.populated,
		Count:     len(g.markers) + len(g.boundaries),
	}
}

// LayerSet holds the overlay groups in control order.
type LayerSet struct {
	order  []string
	groups map[string]*LayerGroup
}

// NewLayerSet creates one group per name.
func NewLayerSet(names ...string) *LayerSet {
	s := &LayerSet{groups: make(map[string]*LayerGroup, len(names))}
	for _, n := range names {
		s.order = append(s.order, n)
		s.groups[n] = NewLayerGroup(n)
	}
	return s
}

// Get returns a group by name, ignoring case.
func (s *LayerSet) Get(name string) (*LayerGroup, error) {
	if g, ok := s.groups[name]; ok {
		return g, nil
	}
	for n, g := range s.groups {
		if strings.EqualFold(n, name) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}

// All returns the groups in control order.
func (s *LayerSet) All() []*LayerGroup {
	out := make([]*LayerGroup, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.groups[n])
	}
	return out
}
