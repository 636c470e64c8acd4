package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar/l1device"
	"github.com/banshee-data/radarcluster/internal/timeutil"
)

// FrameSource supplies the kernel that fills one frame on the device.
type FrameSource interface {
	// Kernel returns the kernel for the launchCount-th frame, captured at ts.
	Kernel(launchCount uint64, ts time.Time) func(dst []l1device.Return)
}

// ProducerConfig holds the settings of a Producer.
type ProducerConfig struct {
	Ring   *BufferRing
	Source FrameSource

	// Interval between kernel launches. Zero launches as soon as a buffer
	// is free.
	Interval time.Duration

	// Frames stops the producer after this many launches. Zero means no limit.
	Frames uint64

	Clock timeutil.Clock // Optional: defaults to the wall clock
}

// Producer launches kernels into ring buffers and submits the frames.
type Producer struct {
	cfg      ProducerConfig
	launches uint64
}

// NewProducer creates a Producer.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if cfg.Ring == nil || cfg.Source == nil {
		return nil, errors.New("producer needs a buffer ring and a frame source")
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Producer{cfg: cfg}, nil
}

// Launches returns the number of kernels launched so far. Not safe to call
// concurrently with Run.
func (p *Producer) Launches() uint64 {
	return p.launches
}

// Run produces frames into out until the frame limit is reached or ctx is
// done, then closes out.
func (p *Producer) Run(ctx context.Context, out chan<- *l1device.Frame) error {
	defer close(out)

	var tick <-chan time.Time
	if p.cfg.Interval > 0 {
		ticker := p.cfg.Clock.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C()
	}

	for p.cfg.Frames == 0 || p.launches < p.cfg.Frames {
		if tick != nil && p.launches > 0 {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		slot, err := p.cfg.Ring.Acquire(ctx)
		if err != nil {
			return err
		}

		p.launches++
		ts := p.cfg.Clock.Now()
		slot.Buffer.Launch(slot.Stream, p.cfg.Source.Kernel(p.launches, ts))
		frame := slot.Frame(p.launches, ts)

		select {
		case out <- frame:
		case <-ctx.Done():
			_ = p.cfg.Ring.Release(slot.Buffer)
			return ctx.Err()
		}
	}
	diagf("producer finished after %d frames", p.launches)
	return nil
}
