package l4perception

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// KDIndex is a k-d tree over candidate positions. Tree nodes carry the
// candidate index, so building the tree may reorder its own storage without
// affecting the handles returned to callers.
type KDIndex struct {
	positions []r3.Vec
	tree      *kdtree.Tree
}

// BuildKDIndex builds a k-d tree over positions in O(n log n).
func BuildKDIndex(positions []r3.Vec) *KDIndex {
	pts := make(indexedPoints, len(positions))
	for i, p := range positions {
		pts[i] = indexedPoint{pos: p, idx: i}
	}
	return &KDIndex{
		positions: positions,
		tree:      kdtree.New(pts, false),
	}
}

// Len implements SpatialIndex.
func (ix *KDIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.positions)
}

// Neighbors implements SpatialIndex.
func (ix *KDIndex) Neighbors(i int, radius float64) []int {
	mustBeBuilt(ix != nil && ix.tree != nil)

	// Distances in the tree are squared, so the keeper bound is radius².
	keep := kdtree.NewDistKeeper(radius * radius)
	ix.tree.NearestSet(keep, indexedPoint{pos: ix.positions[i], idx: i})

	out := make([]int, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue // keeper sentinel
		}
		if j := c.Comparable.(indexedPoint).idx; j != i {
			out = append(out, j)
		}
	}
	sort.Ints(out)
	return out
}

// indexedPoint is a tree element tagged with its candidate index.
type indexedPoint struct {
	pos r3.Vec
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return axis(p.pos, d) - axis(q.pos, d)
}

func (p indexedPoint) Dims() int { return 3 }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.pos, c.(indexedPoint).pos))
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int                { return plane{Dim: d, points: p}.Pivot() }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts indexedPoints along one axis for median pivoting.
type plane struct {
	kdtree.Dim
	points indexedPoints
}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	return axis(p.points[i].pos, p.Dim) < axis(p.points[j].pos, p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }

func axis(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

var (
	_ SpatialIndex     = (*KDIndex)(nil)
	_ kdtree.Interface = indexedPoints(nil)
)
