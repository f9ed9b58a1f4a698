package geom

import (
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// Index is a bounding-box rtree over feature samples, keyed by the
// sample's position in the rasterization pass.
type Index struct {
	tree rtree.RTreeG[int]
}

// NewIndex creates an empty spatial index.
func NewIndex() *Index {
	return &Index{}
}

// Insert adds a sample id covering the given bound.
func (ix *Index) Insert(id int, b orb.Bound) {
	ix.tree.Insert(
		[2]float64{b.Min.Lon(), b.Min.Lat()},
		[2]float64{b.Max.Lon(), b.Max.Lat()},
		id,
	)
}

// Within returns the ids of all samples whose bounds intersect a box of
// radiusKm kilometers around p.
func (ix *Index) Within(p orb.Point, radiusKm float64) []int {
	dLon, dLat := KmToDegrees(radiusKm, p.Lat())
	var ids []int
	ix.tree.Search(
		[2]float64{p.Lon() - dLon, p.Lat() - dLat},
		[2]float64{p.Lon() + dLon, p.Lat() + dLat},
		func(min, max [2]float64, id int) bool {
			ids = append(ids, id)
			return true
		},
	)
	return ids
}

// Len returns the number of indexed samples.
func (ix *Index) Len() int {
	return ix.tree.Len()
}
