package testutil

import (
	"time"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

// FixtureTime is the capture time of every fixture frame.
var FixtureTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Returns builds valid returns at the given positions, each with
// intensity 1 and no velocity.
func Returns(positions ...[3]float32) []l1device.Return {
	out := make([]l1device.Return, len(positions))
	for i, p := range positions {
		out[i] = l1device.Return{Position: p, Intensity: 1}
	}
	return out
}

// LoadedFrame returns a 1×len(returns) device frame whose buffer holds
// returns once its stream is synchronized.
func LoadedFrame(returns []l1device.Return, launchCount uint64) *l1device.Frame {
	buf := l1device.NewSimBuffer(len(returns))
	stream := l1device.NewSimStream()
	buf.Launch(stream, func(dst []l1device.Return) {
		copy(dst, returns)
	})
	return &l1device.Frame{
		Buffer:      buf,
		Stream:      stream,
		Width:       len(returns),
		Height:      1,
		LaunchCount: launchCount,
		Timestamp:   FixtureTime.Add(time.Duration(launchCount) * 100 * time.Millisecond),
	}
}

// TwoObjectReturns is a frame with two well separated objects of four
// returns each, two noise returns and two empty beams. With ε=1 and
// minPts=3 it yields exactly two objects.
func TwoObjectReturns() []l1device.Return {
	rs := Returns(
		[3]float32{0, 0, 0}, [3]float32{0.5, 0, 0}, [3]float32{0, 0.5, 0}, [3]float32{0.5, 0.5, 0},
		[3]float32{10, 10, 1}, [3]float32{10.5, 10, 1}, [3]float32{10, 10.5, 1}, [3]float32{10.5, 10.5, 1},
		[3]float32{30, 0, 0}, [3]float32{0, 30, 0},
	)
	for i := 0; i < 4; i++ {
		rs[i].Velocity = [3]float32{2, 0, 0}
		rs[4+i].Velocity = [3]float32{0, -3, 0}
	}
	return append(rs, l1device.Return{}, l1device.Return{Position: [3]float32{5, 5, 5}})
}
