package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/radar/l2frames"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
	"github.com/banshee-data/radarcluster/internal/timeutil"
)

// Processor runs one frame at a time through the engine. A Processor is not
// safe for concurrent ProcessFrame calls; clustering parameters may be
// changed concurrently through Clusterer().SetParams.
type Processor struct {
	stager    *l2frames.Stager
	clusterer l4perception.ClustererInterface
	clock     timeutil.Clock
}

// NewProcessor validates params and creates a Processor using DBSCAN. It
// fails with radar.ErrInvalidParameter before any frame is touched.
func NewProcessor(params l4perception.Params) (*Processor, error) {
	c, err := l4perception.NewDBSCANClusterer(params)
	if err != nil {
		return nil, err
	}
	return NewProcessorWithClusterer(c, nil), nil
}

// NewProcessorWithClusterer creates a Processor around an existing
// clusterer. A nil clock uses the wall clock.
func NewProcessorWithClusterer(c l4perception.ClustererInterface, clock timeutil.Clock) *Processor {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Processor{
		stager:    l2frames.NewStager(),
		clusterer: c,
		clock:     clock,
	}
}

// Clusterer returns the clusterer used for every frame.
func (p *Processor) Clusterer() l4perception.ClustererInterface {
	return p.clusterer
}

// ProcessFrame stages, clusters and aggregates one frame. On error no
// output is produced.
func (p *Processor) ProcessFrame(ctx context.Context, frame *l1device.Frame) (*l6objects.OutputBuffer, error) {
	staged, err := p.Stage(ctx, frame)
	if err != nil {
		return nil, err
	}
	return p.Aggregate(staged)
}

// Stage copies frame to host memory. After Stage returns the device buffer
// is no longer read and may be reused.
func (p *Processor) Stage(ctx context.Context, frame *l1device.Frame) (*l2frames.StagedFrame, error) {
	return p.stager.Stage(ctx, frame)
}

// Aggregate clusters a staged frame and builds its output.
func (p *Processor) Aggregate(staged *l2frames.StagedFrame) (*l6objects.OutputBuffer, error) {
	start := p.clock.Now()
	part, err := p.clusterer.Cluster(staged.Candidates.Positions)
	if err != nil {
		return nil, fmt.Errorf("clustering frame %d: %w", staged.LaunchCount, err)
	}
	elapsed := p.clock.Since(start)

	out := l6objects.Build(staged, part)
	traceFrame(out, part.Queries, elapsed)
	return out, nil
}

func traceFrame(out *l6objects.OutputBuffer, queries int, elapsed time.Duration) {
	if traceLogger == nil {
		return
	}
	m := out.Meta
	tracef("frame %d: dbscan %v over %d candidates (%d queries), %d objects, %d clustered, %d noise",
		m.LaunchCount, elapsed, m.Candidates(), queries, m.NumClusters, m.ValidReturns, m.InvalidReturns)
	for _, obj := range out.Objects() {
		tracef("frame %d: object %d: %d returns, centroid (%.2f, %.2f, %.2f), velocity (%.2f, %.2f, %.2f)",
			m.LaunchCount, obj.ObjectID, obj.Count,
			obj.Centroid[0], obj.Centroid[1], obj.Centroid[2],
			obj.AvgVelocity[0], obj.AvgVelocity[1], obj.AvgVelocity[2])
	}
}
