package bucket

import (
	"github.com/dhconnelly/rtreego"

	"github.com/hupe1980/giscore/model"
)

// Minimum R-tree extent for degenerate boxes, about 11 meters at the equator.
const epsilon = 0.0001

func toRect(b model.Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinLon, b.MinLat}
	lengths := []float64{max(b.Width(), epsilon), max(b.Height(), epsilon)}
	rect, _ := rtreego.NewRect(point, lengths) // lengths are positive
	return rect
}

// indexedBucket implements rtreego.Spatial.
type indexedBucket struct {
	seq    int // discovery position
	key    Key
	bounds model.Bounds
}

func (e *indexedBucket) Bounds() rtreego.Rect { return toRect(e.bounds) }

// spatialIndex is an R-tree over bucket bounds, rebuilt on demand after
// bounds changed.
type spatialIndex struct {
	tree  *rtreego.Rtree
	dirty bool
}

func (idx *spatialIndex) invalidate() { idx.dirty = true }

func (idx *spatialIndex) rebuild(entries []*indexedBucket) {
	// 2D, min=25 children, max=50 children
	idx.tree = rtreego.NewTree(2, 25, 50)
	for _, e := range entries {
		idx.tree.Insert(e)
	}
	idx.dirty = false
}

func (idx *spatialIndex) search(b model.Bounds) []*indexedBucket {
	if idx.tree == nil {
		return nil
	}
	// Widen the query so boxes that only touch it are candidates too; the
	// exact test below drops false positives.
	q := model.Bounds{
		MinLon: b.MinLon - epsilon, MaxLon: b.MaxLon + epsilon,
		MinLat: b.MinLat - epsilon, MaxLat: b.MaxLat + epsilon,
	}
	var out []*indexedBucket
	for _, s := range idx.tree.SearchIntersect(toRect(q)) {
		e := s.(*indexedBucket) //nolint:forcetypeassert // only indexedBucket is inserted
		if e.bounds.Intersects(b) {
			out = append(out, e)
		}
	}
	return out
}
