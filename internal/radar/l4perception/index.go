package l4perception

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/radarcluster/internal/radar"
)

// SpatialIndex answers radius queries over one frame's candidates. An index
// is built once per frame and never mutated afterwards.
type SpatialIndex interface {
	// Len returns the number of indexed candidates.
	Len() int

	// Neighbors returns, in ascending order, every candidate whose Euclidean
	// distance to candidate i is ≤ radius. Candidate i itself is never part
	// of the result; other candidates at the same position are.
	Neighbors(i int, radius float64) []int
}

// IndexKind names a SpatialIndex implementation.
type IndexKind string

const (
	// IndexKDTree selects KDIndex.
	IndexKDTree IndexKind = "kdtree"
	// IndexGrid selects GridIndex.
	IndexGrid IndexKind = "grid"
)

// ParseIndexKind maps a configuration string to an IndexKind. The empty
// string selects the k-d tree.
func ParseIndexKind(s string) (IndexKind, error) {
	switch IndexKind(s) {
	case "", IndexKDTree:
		return IndexKDTree, nil
	case IndexGrid:
		return IndexGrid, nil
	}
	return "", fmt.Errorf("%w: unknown spatial index %q (want %q or %q)",
		radar.ErrInvalidParameter, s, IndexKDTree, IndexGrid)
}

// BuildIndex builds the index selected by kind over positions. cellSize is
// only used by the grid index.
func BuildIndex(kind IndexKind, positions []r3.Vec, cellSize float64) (SpatialIndex, error) {
	switch kind {
	case "", IndexKDTree:
		return BuildKDIndex(positions), nil
	case IndexGrid:
		return BuildGridIndex(positions, cellSize), nil
	}
	return nil, fmt.Errorf("%w: unknown spatial index %q", radar.ErrInvalidParameter, kind)
}

func mustBeBuilt(built bool) {
	if !built {
		panic(fmt.Errorf("%w: spatial index queried before build", radar.ErrContractViolation))
	}
}
