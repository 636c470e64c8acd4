package l4perception

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// EstimatedPointsPerCell is used for initial grid capacity estimation.
const EstimatedPointsPerCell = 4

// cellKey identifies one cubic cell of a GridIndex.
type cellKey struct {
	x, y, z int64
}

// GridIndex is a uniform voxel hash over candidate positions. Cell size
// should approximately match the query radius; a query then touches the
// 3x3x3 block of cells around the candidate.
type GridIndex struct {
	cellSize  float64
	positions []r3.Vec
	grid      map[cellKey][]int // cell → candidate indices
}

// BuildGridIndex populates a grid with the given cell size. A non-positive
// or non-finite cell size puts every candidate into a single cell.
func BuildGridIndex(positions []r3.Vec, cellSize float64) *GridIndex {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		cellSize = math.Inf(1)
	}
	g := &GridIndex{
		cellSize:  cellSize,
		positions: positions,
		grid:      make(map[cellKey][]int, len(positions)/EstimatedPointsPerCell+1),
	}
	for i, p := range positions {
		k := g.cellOf(p)
		g.grid[k] = append(g.grid[k], i)
	}
	return g
}

// CellSize returns the edge length of one cell.
func (g *GridIndex) CellSize() float64 {
	return g.cellSize
}

func (g *GridIndex) cellOf(p r3.Vec) cellKey {
	if math.IsInf(g.cellSize, 1) {
		return cellKey{}
	}
	return cellKey{
		x: int64(math.Floor(p.X / g.cellSize)),
		y: int64(math.Floor(p.Y / g.cellSize)),
		z: int64(math.Floor(p.Z / g.cellSize)),
	}
}

// Len implements SpatialIndex.
func (g *GridIndex) Len() int {
	if g == nil {
		return 0
	}
	return len(g.positions)
}

// Neighbors implements SpatialIndex. When the radius spans more cells than
// there are candidates, every candidate is checked directly instead.
func (g *GridIndex) Neighbors(i int, radius float64) []int {
	mustBeBuilt(g != nil && g.grid != nil)

	p := g.positions[i]
	r2 := radius * radius
	neighbors := []int{}
	within := func(j int) {
		if j != i && r3.Norm2(r3.Sub(g.positions[j], p)) <= r2 {
			neighbors = append(neighbors, j)
		}
	}

	reach := math.Ceil(radius / g.cellSize)
	if math.IsInf(g.cellSize, 1) {
		reach = 0
	}
	span := 2*reach + 1
	if math.IsNaN(reach) || math.IsInf(reach, 0) || span*span*span > float64(len(g.positions)) {
		for j := range g.positions {
			within(j)
		}
		return neighbors
	}

	r := int64(reach)
	base := g.cellOf(p)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				for _, j := range g.grid[cellKey{base.x + dx, base.y + dy, base.z + dz}] {
					within(j)
				}
			}
		}
	}
	sort.Ints(neighbors)
	return neighbors
}

var _ SpatialIndex = (*GridIndex)(nil)
