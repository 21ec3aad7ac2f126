package service

import (
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	indexDimensions  = 2
	indexMinChildren = 25
	indexMaxChildren = 50
	indexTolerance   = 1e-9
)

type indexedMarker struct {
	marker Marker
	rect   *rtreego.Rect
}

func (m *indexedMarker) Bounds() *rtreego.Rect {
	return m.rect
}

// MarkerIndex is an R-tree over marker positions for viewport queries.
type MarkerIndex struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
}

// NewMarkerIndex creates an empty index.
func NewMarkerIndex() *MarkerIndex {
	return &MarkerIndex{tree: rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren)}
}

// Insert adds markers to the index.
func (idx *MarkerIndex) Insert(markers ...Marker) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, m := range markers {
		p := rtreego.Point{m.Feature.Position.Lon(), m.Feature.Position.Lat()}
		idx.tree.Insert(&indexedMarker{marker: m, rect: p.ToRect(indexTolerance)})
	}
}

// Size returns the number of indexed markers.
func (idx *MarkerIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Size()
}

// Within returns the markers inside b, edges included.
func (idx *MarkerIndex) Within(b orb.Bound) ([]Marker, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	// rtreego rejects zero-length sides, so pad degenerate bounds.
	lengths := []float64{
		max(b.Max.Lon()-b.Min.Lon(), indexTolerance),
		max(b.Max.Lat()-b.Min.Lat(), indexTolerance),
	}
	rect, err := rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, lengths)
	if err != nil {
		return nil, err
	}

	var out []Marker
	for _, s := range idx.tree.SearchIntersect(rect) {
		im, ok := s.(*indexedMarker)
		if !ok {
			continue
		}
		if b.Contains(im.marker.Feature.Position) {
			out = append(out, im.marker)
		}
	}
	return out, nil
}
