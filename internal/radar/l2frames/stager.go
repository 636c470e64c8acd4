package l2frames

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

// CandidateSet is the ordered list of valid returns of one frame. Source[i]
// is the index in the host return array of the record owning Positions[i].
type CandidateSet struct {
	Positions []r3.Vec
	Source    []int
}

// Len returns the number of candidates.
func (c *CandidateSet) Len() int {
	return len(c.Positions)
}

// StagedFrame is a frame after the device→host copy and validity filter.
type StagedFrame struct {
	// Returns is the full host-side copy of the device buffer.
	Returns    []l1device.Return
	Candidates CandidateSet

	Width       int
	Height      int
	LaunchCount uint64
	Timestamp   time.Time
}

// Stager copies frames from the device and filters them to candidates.
type Stager struct{}

// NewStager creates a Stager.
func NewStager() *Stager {
	return &Stager{}
}

// Stage copies the whole frame to host memory over the frame's stream and
// blocks until the copy has completed. Returns with Intensity > 0 become
// candidates, in beam order. Every host record leaves with ObjectID 0.
//
// A failed copy aborts the frame with radar.ErrUpstreamTransfer.
func (s *Stager) Stage(ctx context.Context, frame *l1device.Frame) (*StagedFrame, error) {
	if frame == nil || frame.Buffer == nil || frame.Stream == nil {
		return nil, fmt.Errorf("%w: frame has no device buffer or stream", radar.ErrContractViolation)
	}
	n := frame.Len()
	if frame.Width < 0 || frame.Height < 0 || frame.Buffer.Len() != n {
		return nil, fmt.Errorf("%w: frame %d is %dx%d but buffer holds %d returns",
			radar.ErrContractViolation, frame.LaunchCount, frame.Width, frame.Height, frame.Buffer.Len())
	}

	host := make([]l1device.Return, n)
	if err := frame.Buffer.CopyToHost(host, frame.Stream); err != nil {
		if errors.Is(err, radar.ErrContractViolation) {
			return nil, fmt.Errorf("frame %d: %w", frame.LaunchCount, err)
		}
		return nil, fmt.Errorf("%w: frame %d: %w", radar.ErrUpstreamTransfer, frame.LaunchCount, err)
	}
	if err := frame.Stream.Synchronize(ctx); err != nil {
		return nil, fmt.Errorf("%w: frame %d: %w", radar.ErrUpstreamTransfer, frame.LaunchCount, err)
	}

	staged := &StagedFrame{
		Returns:     host,
		Width:       frame.Width,
		Height:      frame.Height,
		LaunchCount: frame.LaunchCount,
		Timestamp:   frame.Timestamp,
	}
	staged.Candidates = filterValid(host)
	return staged, nil
}

// filterValid selects valid returns in a single pass.
func filterValid(host []l1device.Return) CandidateSet {
	var cs CandidateSet
	for i := range host {
		host[i].ObjectID = 0
		r := host[i]
		if !r.Valid() {
			continue
		}
		cs.Positions = append(cs.Positions, r3.Vec{
			X: float64(r.Position[0]),
			Y: float64(r.Position[1]),
			Z: float64(r.Position[2]),
		})
		cs.Source = append(cs.Source, i)
	}
	return cs
}
