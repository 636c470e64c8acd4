package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
)

// Stats is a snapshot of a Runner's counters.
type Stats struct {
	FramesProcessed  uint64 `json:"frames_processed"`
	FramesDropped    uint64 `json:"frames_dropped"`
	ObjectsPublished uint64 `json:"objects_published"`
	SinkErrors       uint64 `json:"sink_errors"`

	// LastFrame is the metadata of the most recent published frame, nil
	// before the first one.
	LastFrame *l6objects.FrameMetadata `json:"last_frame,omitempty"`
}

// RunnerConfig holds the dependencies of a Runner.
type RunnerConfig struct {
	Processor *Processor
	Sink      Sink        // Optional: defaults to Discard
	Ring      *BufferRing // Optional: device buffers are released here once staged
}

// Runner drains device frames through a Processor into a Sink.
type Runner struct {
	proc *Processor
	sink Sink
	ring *BufferRing

	framesProcessed  atomic.Uint64
	framesDropped    atomic.Uint64
	objectsPublished atomic.Uint64
	sinkErrors       atomic.Uint64
	lastFrame        atomic.Pointer[l6objects.FrameMetadata]
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Processor == nil {
		return nil, errors.New("runner needs a processor")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = Discard
	}
	return &Runner{proc: cfg.Processor, sink: sink, ring: cfg.Ring}, nil
}

// Stats returns a snapshot of the runner's counters. It is safe to call
// while Run is active.
func (r *Runner) Stats() Stats {
	s := Stats{
		FramesProcessed:  r.framesProcessed.Load(),
		FramesDropped:    r.framesDropped.Load(),
		ObjectsPublished: r.objectsPublished.Load(),
		SinkErrors:       r.sinkErrors.Load(),
	}
	if m := r.lastFrame.Load(); m != nil {
		meta := *m
		s.LastFrame = &meta
	}
	return s
}

// Run processes frames until the channel is closed, ctx is done or a
// contract violation occurs. Frames whose transfer fails are dropped and
// counted. Cancellation is only observed between frames. Run returns nil
// when frames is closed and ctx.Err() when cancelled.
func (r *Runner) Run(ctx context.Context, frames <-chan *l1device.Frame) error {
	start := r.proc.clock.Now()
	defer func() {
		s := r.Stats()
		diagf("runner stopped after %v: %d frames processed, %d dropped, %d objects published, %d sink errors",
			r.proc.clock.Since(start).Round(time.Millisecond), s.FramesProcessed, s.FramesDropped, s.ObjectsPublished, s.SinkErrors)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := r.step(ctx, frame); err != nil {
				opsf("runner stopped: %v", err)
				return err
			}
		}
	}
}

// step processes one frame. It only returns errors that stop the runner.
func (r *Runner) step(ctx context.Context, frame *l1device.Frame) error {
	staged, err := r.proc.Stage(ctx, frame)
	if rerr := r.release(frame); rerr != nil {
		return rerr
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, radar.ErrContractViolation) {
			return err
		}
		if errors.Is(err, radar.ErrUpstreamTransfer) {
			r.framesDropped.Add(1)
			opsf("dropping frame: %v", err)
			return nil
		}
		return err
	}

	out, err := r.proc.Aggregate(staged)
	if err != nil {
		return err
	}

	meta := out.Meta
	objects := out.NumObjects()
	// out belongs to the sink from here on.
	if err := r.sink.Handoff(ctx, out); err != nil {
		r.sinkErrors.Add(1)
		opsf("sink failed for frame %d: %v", meta.LaunchCount, err)
	}
	r.framesProcessed.Add(1)
	r.objectsPublished.Add(uint64(objects))
	r.lastFrame.Store(&meta)
	return nil
}

func (r *Runner) release(frame *l1device.Frame) error {
	if r.ring == nil || frame == nil || frame.Buffer == nil {
		return nil
	}
	if err := r.ring.Release(frame.Buffer); err != nil {
		return fmt.Errorf("releasing frame %d: %w", frame.LaunchCount, err)
	}
	return nil
}
