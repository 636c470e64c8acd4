package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/testutil"
	"github.com/banshee-data/radarcluster/internal/timeutil"
)

// fixedSource fills every frame with the same returns, shifted along x by
// the launch count.
type fixedSource struct {
	returns []l1device.Return
}

func (s fixedSource) Kernel(launchCount uint64, _ time.Time) func([]l1device.Return) {
	return func(dst []l1device.Return) {
		copy(dst, s.returns)
		for i := range dst {
			dst[i].Position[0] += float32(launchCount)
		}
	}
}

func TestNewProducer_Validates(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	assert.Error(t, err)
}

func TestProducer_DoubleBufferedRun(t *testing.T) {
	rs := testutil.TwoObjectReturns()
	ring, err := NewBufferRing(2, len(rs), 1)
	require.NoError(t, err)

	clock := timeutil.NewMockClock(testutil.FixtureTime)
	clock.SetAutoStep(time.Millisecond)
	prod, err := NewProducer(ProducerConfig{
		Ring:   ring,
		Source: fixedSource{returns: rs},
		Frames: 20,
		Clock:  clock,
	})
	require.NoError(t, err)

	sink := &collector{}
	runner := newTestRunner(t, sink, ring)

	frames := make(chan *l1device.Frame)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return prod.Run(ctx, frames) })
	g.Go(func() error { return runner.Run(ctx, frames) })
	require.NoError(t, g.Wait())

	assert.Equal(t, uint64(20), prod.Launches())
	outs := sink.frames()
	require.Len(t, outs, 20)
	for i, out := range outs {
		launch := uint64(i + 1)
		assert.Equal(t, launch, out.Meta.LaunchCount)
		require.Equal(t, 2, out.NumObjects())
		// Each frame sees its own kernel's output, never its neighbour's.
		obj, _ := out.Object(1)
		assert.InDelta(t, 0.25+float64(launch), obj.Centroid[0], 1e-4)
	}
	assert.Equal(t, 2, ring.Free())
}

func TestProducer_Cancelled(t *testing.T) {
	ring, err := NewBufferRing(1, 4, 1)
	require.NoError(t, err)
	prod, err := NewProducer(ProducerConfig{Ring: ring, Source: fixedSource{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan *l1device.Frame)
	done := make(chan error, 1)
	go func() { done <- prod.Run(ctx, frames) }()

	// Nobody reads frames, so the producer blocks on submit.
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	_, open := <-frames
	assert.False(t, open)
	assert.Equal(t, 1, ring.Free())
}

func TestProducer_Interval(t *testing.T) {
	ring, err := NewBufferRing(2, 4, 1)
	require.NoError(t, err)
	clock := timeutil.NewMockClock(testutil.FixtureTime)
	prod, err := NewProducer(ProducerConfig{
		Ring:     ring,
		Source:   fixedSource{},
		Interval: 100 * time.Millisecond,
		Frames:   2,
		Clock:    clock,
	})
	require.NoError(t, err)

	frames := make(chan *l1device.Frame, 2)
	done := make(chan error, 1)
	go func() { done <- prod.Run(context.Background(), frames) }()

	first := <-frames
	assert.Equal(t, uint64(1), first.LaunchCount)
	// The second launch waits for the next tick.
	select {
	case <-frames:
		t.Fatal("second frame produced before the tick")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Eventually(t, func() bool {
		clock.Advance(100 * time.Millisecond)
		return len(frames) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, <-done)
}
