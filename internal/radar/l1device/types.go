package l1device

import (
	"math"
	"time"
)

// Return is one radar beam return for one azimuth/elevation bin of a frame.
// Position and velocity are Cartesian, in the sensor frame. The engine only
// ever writes ObjectID; zero means the return belongs to no object.
type Return struct {
	Position  [3]float32
	Velocity  [3]float32
	Intensity float32
	ObjectID  int32
}

// Valid reports whether the beam produced a usable return.
func (r Return) Valid() bool {
	return r.Intensity > 0
}

// Speed returns the magnitude of the velocity vector in m/s.
func (r Return) Speed() float64 {
	vx, vy, vz := float64(r.Velocity[0]), float64(r.Velocity[1]), float64(r.Velocity[2])
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}

// Frame is one full scan cycle across the Width×Height beam grid, still
// resident on the device. Whoever holds a *Frame owns its buffer
// exclusively until it is handed on.
type Frame struct {
	Buffer DeviceBuffer
	// Stream is the execution stream the producing kernel was launched on.
	Stream Stream

	Width  int
	Height int

	// LaunchCount increases monotonically with every kernel launch.
	LaunchCount uint64
	Timestamp   time.Time
}

// Len returns the number of beam returns the frame should hold.
func (f *Frame) Len() int {
	return f.Width * f.Height
}
