package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

// Slot is one device buffer of a BufferRing together with the stream its
// kernels and copies run on.
type Slot struct {
	Buffer *l1device.SimBuffer
	Stream *l1device.SimStream

	width  int
	height int
}

// Frame wraps the slot as a device frame ready to hand to a Runner.
func (s *Slot) Frame(launchCount uint64, ts time.Time) *l1device.Frame {
	return &l1device.Frame{
		Buffer:      s.Buffer,
		Stream:      s.Stream,
		Width:       s.width,
		Height:      s.height,
		LaunchCount: launchCount,
		Timestamp:   ts,
	}
}

// BufferRing is a fixed set of device buffers passed between a producer and
// a Runner. Two slots give double buffering: the producer fills one while
// the other is being copied to the host. A slot is owned by exactly one
// side at a time.
type BufferRing struct {
	free  chan *Slot
	mu    sync.Mutex
	owned map[l1device.DeviceBuffer]*Slot // slots handed out by Acquire
	slots map[l1device.DeviceBuffer]*Slot
}

// NewBufferRing allocates n device buffers for width×height frames.
func NewBufferRing(n, width, height int) (*BufferRing, error) {
	if n < 1 || width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: ring of %d buffers of %dx%d", radar.ErrInvalidParameter, n, width, height)
	}
	r := &BufferRing{
		free:  make(chan *Slot, n),
		owned: make(map[l1device.DeviceBuffer]*Slot, n),
		slots: make(map[l1device.DeviceBuffer]*Slot, n),
	}
	for i := 0; i < n; i++ {
		s := &Slot{
			Buffer: l1device.NewSimBuffer(width * height),
			Stream: l1device.NewSimStream(),
			width:  width,
			height: height,
		}
		r.slots[s.Buffer] = s
		r.free <- s
	}
	return r, nil
}

// Size returns the number of slots.
func (r *BufferRing) Size() int {
	return len(r.slots)
}

// Free returns the number of slots waiting to be acquired.
func (r *BufferRing) Free() int {
	return len(r.free)
}

// Acquire blocks until a slot is free or ctx is done.
func (r *BufferRing) Acquire(ctx context.Context) (*Slot, error) {
	select {
	case s := <-r.free:
		r.mu.Lock()
		r.owned[s.Buffer] = s
		r.mu.Unlock()
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns the slot owning buf to the ring. Releasing a buffer that
// does not belong to the ring, or one that is not currently acquired, is a
// contract violation.
func (r *BufferRing) Release(buf l1device.DeviceBuffer) error {
	r.mu.Lock()
	s, ok := r.owned[buf]
	if ok {
		delete(r.owned, buf)
	}
	_, known := r.slots[buf]
	r.mu.Unlock()

	if !ok {
		if known {
			return fmt.Errorf("%w: device buffer released twice", radar.ErrContractViolation)
		}
		return fmt.Errorf("%w: device buffer does not belong to this ring", radar.ErrContractViolation)
	}
	r.free <- s
	return nil
}
