// Package synthetic renders deterministic radar frames for demos and tests.
package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

// Scene describes moving objects on circular paths around the sensor,
// plus background clutter and empty beams.
type Scene struct {
	Width  int // beams per row
	Height int // rows

	ObjectCount     int
	PointsPerObject int     // returns per object per frame
	ObjectRadius    float64 // metres, spread of an object's returns
	TrackRadius     float64 // metres, radius of the circular paths
	TrackSpeedMPS   float64

	// ClutterFraction of the beams not hit by an object return a random
	// point; the rest are empty.
	ClutterFraction float64
	AreaRadius      float64 // metres, radius of the clutter disc

	// FrameInterval is the simulated time between launches.
	FrameInterval time.Duration

	Seed int64
}

// ObjectTruth is the state of one simulated object in one frame.
type ObjectTruth struct {
	Centre   [3]float64
	Velocity [3]float64
}

// NewScene returns a scene with demo defaults over a width×height grid.
func NewScene(width, height int, seed int64) *Scene {
	return &Scene{
		Width:           width,
		Height:          height,
		ObjectCount:     6,
		PointsPerObject: 40,
		ObjectRadius:    0.8,
		TrackRadius:     20,
		TrackSpeedMPS:   5,
		ClutterFraction: 0.3,
		AreaRadius:      50,
		FrameInterval:   100 * time.Millisecond,
		Seed:            seed,
	}
}

// Truth returns where each object is in the launchCount-th frame.
func (s *Scene) Truth(launchCount uint64) []ObjectTruth {
	elapsed := (time.Duration(launchCount) * s.FrameInterval).Seconds()
	angularSpeed := 0.0
	if s.TrackRadius > 0 {
		angularSpeed = s.TrackSpeedMPS / s.TrackRadius
	}

	truth := make([]ObjectTruth, s.ObjectCount)
	for i := range truth {
		baseAngle := float64(i) * 2 * math.Pi / float64(s.ObjectCount)
		angle := baseAngle + elapsed*angularSpeed
		sin, cos := math.Sincos(angle)
		truth[i] = ObjectTruth{
			Centre:   [3]float64{s.TrackRadius * cos, s.TrackRadius * sin, 0.8},
			Velocity: [3]float64{-s.TrackSpeedMPS * sin, s.TrackSpeedMPS * cos, 0},
		}
	}
	return truth
}

// Kernel returns the kernel that renders the launchCount-th frame. The same
// scene and launch count always render the same returns.
func (s *Scene) Kernel(launchCount uint64, _ time.Time) func(dst []l1device.Return) {
	truth := s.Truth(launchCount)
	seed := s.Seed ^ int64(launchCount)*0x5DEECE66D

	return func(dst []l1device.Return) {
		rng := rand.New(rand.NewSource(seed))
		for i := range dst {
			dst[i] = l1device.Return{}
		}

		beams := rng.Perm(len(dst))
		next := 0
		for _, obj := range truth {
			for k := 0; k < s.PointsPerObject && next < len(beams); k++ {
				dst[beams[next]] = s.objectReturn(rng, obj)
				next++
			}
		}
		for ; next < len(beams); next++ {
			if rng.Float64() < s.ClutterFraction {
				dst[beams[next]] = s.clutterReturn(rng)
			}
		}
	}
}

func (s *Scene) objectReturn(rng *rand.Rand, obj ObjectTruth) l1device.Return {
	// Uniform in a ball: random direction, radius ∝ cbrt(u).
	dx, dy, dz := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
	norm := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if norm == 0 {
		norm = 1
	}
	r := s.ObjectRadius * math.Cbrt(rng.Float64()) / norm

	var ret l1device.Return
	for a, d := range [3]float64{dx, dy, dz} {
		ret.Position[a] = float32(obj.Centre[a] + d*r)
		ret.Velocity[a] = float32(obj.Velocity[a] + rng.NormFloat64()*0.1)
	}
	ret.Intensity = float32(0.5 + rng.Float64()*0.5)
	return ret
}

func (s *Scene) clutterReturn(rng *rand.Rand) l1device.Return {
	angle := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(rng.Float64()) * s.AreaRadius
	return l1device.Return{
		Position:  [3]float32{float32(r * math.Cos(angle)), float32(r * math.Sin(angle)), float32(rng.Float64()*3.5 - 0.5)},
		Intensity: float32(0.05 + rng.Float64()*0.3),
	}
}
