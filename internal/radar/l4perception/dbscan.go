package l4perception

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/radarcluster/internal/radar"
)

// Defaults match the radar processing filter this engine replaces.
const (
	// DefaultDBSCANEps is the default neighbourhood radius in metres.
	DefaultDBSCANEps = 1.0
	// DefaultDBSCANMinPts is the default minimum neighbourhood size of a core point.
	DefaultDBSCANMinPts = 5
)

// Params holds DBSCAN configuration.
type Params struct {
	Epsilon float64 // Neighbourhood radius, in sensor frame units
	MinPts  int     // Minimum neighbourhood size, the candidate included, of a core point

	Index        IndexKind // Spatial index implementation; empty selects the k-d tree
	GridCellSize float64   // Grid index cell size; zero uses Epsilon
}

// DefaultDBSCANParams returns the production defaults.
func DefaultDBSCANParams() Params {
	return Params{
		Epsilon: DefaultDBSCANEps,
		MinPts:  DefaultDBSCANMinPts,
		Index:   IndexKDTree,
	}
}

// Validate checks the parameters before any frame work is done.
func (p Params) Validate() error {
	if math.IsNaN(p.Epsilon) || p.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be > 0, got %g", radar.ErrInvalidParameter, p.Epsilon)
	}
	if p.MinPts < 1 {
		return fmt.Errorf("%w: minPts must be >= 1, got %d", radar.ErrInvalidParameter, p.MinPts)
	}
	if _, err := ParseIndexKind(string(p.Index)); err != nil {
		return err
	}
	if math.IsNaN(p.GridCellSize) || p.GridCellSize < 0 {
		return fmt.Errorf("%w: grid cell size must be >= 0, got %g", radar.ErrInvalidParameter, p.GridCellSize)
	}
	return nil
}

func (p Params) cellSize() float64 {
	if p.GridCellSize > 0 {
		return p.GridCellSize
	}
	return p.Epsilon
}

// Partition is the result of one DBSCAN run. Clusters hold candidate
// indices in discovery order; Noise lists every unassigned candidate in
// index order.
type Partition struct {
	Clusters [][]int
	Noise    []int
	Labels   *Labeling

	// Queries is the number of index queries executed, which equals the
	// number of visited transitions.
	Queries int
}

// NumClusters returns the number of clusters.
func (p *Partition) NumClusters() int {
	return len(p.Clusters)
}

// Members returns the number of clustered candidates.
func (p *Partition) Members() int {
	n := 0
	for _, c := range p.Clusters {
		n += len(c)
	}
	return n
}

// DBSCAN clusters positions. It validates params first, builds the
// configured spatial index (skipped when there are no positions) and runs
// the expansion over candidates in index order.
func DBSCAN(positions []r3.Vec, params Params) (*Partition, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return &Partition{Labels: NewLabeling(0)}, nil
	}

	index, err := BuildIndex(params.Index, positions, params.cellSize())
	if err != nil {
		return nil, err
	}
	return DBSCANWithIndex(index, params.Epsilon, params.MinPts), nil
}

// DBSCANWithIndex runs DBSCAN over a prebuilt index. eps and minPts must
// already be valid.
func DBSCANWithIndex(index SpatialIndex, eps float64, minPts int) *Partition {
	run := &dbscanRun{
		index:  index,
		eps:    eps,
		minPts: minPts,
		labels: NewLabeling(index.Len()),
		stamp:  make([]int, index.Len()),
	}
	for i := 0; i < index.Len(); i++ {
		if !run.labels.visit(i) {
			continue
		}
		neighbors := run.query(i)
		if !run.isCore(neighbors) {
			continue // tentative noise; may still join a later expansion
		}
		run.expand(i, neighbors)
	}
	return run.partition()
}

// dbscanRun owns all mutable state of one clustering pass.
type dbscanRun struct {
	index    SpatialIndex
	eps      float64
	minPts   int
	labels   *Labeling
	clusters [][]int
	queries  int

	// stamp[i] == expansion number when i was enqueued in that expansion.
	// Comparing against the current expansion scopes the enqueued set to a
	// single expansion without clearing it.
	stamp     []int
	expansion int
}

func (r *dbscanRun) query(i int) []int {
	r.queries++
	return r.index.Neighbors(i, r.eps)
}

// isCore counts the candidate itself as part of its neighbourhood.
func (r *dbscanRun) isCore(neighbors []int) bool {
	return len(neighbors)+1 >= r.minPts
}

func (r *dbscanRun) enqueue(queue []int, j int) []int {
	if r.stamp[j] == r.expansion {
		return queue
	}
	r.stamp[j] = r.expansion
	return append(queue, j)
}

// expand grows a new cluster from core point seed. Visited gates querying:
// a candidate is queried only on its first visit. Assigned gates
// membership: any popped candidate that is not yet in a cluster joins this
// one, including earlier failed seeds, which are not queried again.
func (r *dbscanRun) expand(seed int, neighbors []int) {
	cid := len(r.clusters)
	r.clusters = append(r.clusters, []int{seed})
	r.labels.assign(seed, cid)

	r.expansion++
	r.stamp[seed] = r.expansion
	queue := make([]int, 0, len(neighbors))
	for _, j := range neighbors {
		queue = r.enqueue(queue, j)
	}

	for head := 0; head < len(queue); head++ {
		q := queue[head]
		if r.labels.visit(q) {
			qn := r.query(q)
			if r.isCore(qn) {
				for _, j := range qn {
					queue = r.enqueue(queue, j)
				}
			}
		}
		if r.labels.assign(q, cid) {
			r.clusters[cid] = append(r.clusters[cid], q)
		}
	}
}

func (r *dbscanRun) partition() *Partition {
	p := &Partition{
		Clusters: r.clusters,
		Labels:   r.labels,
		Queries:  r.queries,
	}
	for i := 0; i < r.labels.Len(); i++ {
		if !r.labels.Assigned(i) {
			p.Noise = append(p.Noise, i)
		}
	}
	return p
}
