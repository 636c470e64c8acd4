package l6objects

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/radar/l2frames"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
)

// Build aggregates a clustered frame. Cluster i becomes object i+1: the ID
// is written to each member's host record, members are copied to the
// compacted output and their positions and velocities are averaged.
// Returns that belong to no cluster are dropped. A nil partition is an
// empty frame.
func Build(staged *l2frames.StagedFrame, part *l4perception.Partition) *OutputBuffer {
	out := &OutputBuffer{
		Meta: FrameMetadata{
			Width:       staged.Width,
			Height:      staged.Height,
			Timestamp:   staged.Timestamp,
			LaunchCount: staged.LaunchCount,
		},
	}
	if part == nil || part.NumClusters() == 0 {
		out.Meta.InvalidReturns = staged.Candidates.Len()
		return out
	}

	n := part.NumClusters()
	out.Returns = make([]l1device.Return, 0, part.Members())
	out.Centroids = make([][3]float32, 0, n)
	out.AvgVelocities = make([][3]float32, 0, n)
	out.MemberCounts = make([]int, 0, n)

	for ci, members := range part.Clusters {
		objectID := int32(ci + 1)
		var pos, vel r3.Vec
		for _, m := range members {
			src := staged.Candidates.Source[m]
			staged.Returns[src].ObjectID = objectID
			r := staged.Returns[src]
			out.Returns = append(out.Returns, r)
			pos = r3.Add(pos, toVec(r.Position))
			vel = r3.Add(vel, toVec(r.Velocity))
		}
		// Members ≥ minPts ≥ 1, so the division is safe.
		inv := 1 / float64(len(members))
		out.Centroids = append(out.Centroids, toArray(r3.Scale(inv, pos)))
		out.AvgVelocities = append(out.AvgVelocities, toArray(r3.Scale(inv, vel)))
		out.MemberCounts = append(out.MemberCounts, len(members))
	}

	out.Meta.ValidReturns = len(out.Returns)
	out.Meta.InvalidReturns = staged.Candidates.Len() - len(out.Returns)
	out.Meta.NumClusters = n
	return out
}

func toVec(a [3]float32) r3.Vec {
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

func toArray(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
