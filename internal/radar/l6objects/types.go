package l6objects

import (
	"math"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

// ClusterAggregate summarises one object of one frame.
type ClusterAggregate struct {
	ObjectID    int32
	Centroid    [3]float32
	AvgVelocity [3]float32
	Count       int
}

// Speed returns the magnitude of the average velocity in m/s.
func (a ClusterAggregate) Speed() float64 {
	vx, vy, vz := float64(a.AvgVelocity[0]), float64(a.AvgVelocity[1]), float64(a.AvgVelocity[2])
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}

// FrameMetadata describes one published frame.
type FrameMetadata struct {
	Width       int
	Height      int
	Timestamp   time.Time
	LaunchCount uint64

	// ValidReturns is the number of clustered returns kept in the output.
	ValidReturns int
	// InvalidReturns is the number of candidates rejected as noise.
	InvalidReturns int
	NumClusters    int
}

// Candidates returns the number of returns that passed the intensity filter.
func (m FrameMetadata) Candidates() int {
	return m.ValidReturns + m.InvalidReturns
}

// OutputBuffer is the host-resident result of one frame. Returns holds only
// clustered records, ordered by object then discovery. Centroids,
// AvgVelocities and MemberCounts are indexed by ObjectID-1.
//
// The engine owns an OutputBuffer until it is handed to a sink; after the
// handoff the receiver owns it outright.
type OutputBuffer struct {
	Returns       []l1device.Return
	Centroids     [][3]float32
	AvgVelocities [][3]float32
	MemberCounts  []int
	Meta          FrameMetadata
}

// NumObjects returns the number of objects in the frame.
func (o *OutputBuffer) NumObjects() int {
	return len(o.Centroids)
}

// Object returns the aggregate for objectID, which must be in
// [1, NumObjects()].
func (o *OutputBuffer) Object(objectID int32) (ClusterAggregate, bool) {
	i := int(objectID) - 1
	if i < 0 || i >= len(o.Centroids) {
		return ClusterAggregate{}, false
	}
	return ClusterAggregate{
		ObjectID:    objectID,
		Centroid:    o.Centroids[i],
		AvgVelocity: o.AvgVelocities[i],
		Count:       o.MemberCounts[i],
	}, true
}

// Objects lists every object aggregate in ObjectID order.
func (o *OutputBuffer) Objects() []ClusterAggregate {
	objs := make([]ClusterAggregate, 0, len(o.Centroids))
	for i := range o.Centroids {
		a, _ := o.Object(int32(i + 1))
		objs = append(objs, a)
	}
	return objs
}
