package l1device

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/radarcluster/internal/radar"
)

// SimStream is a host-memory Stream. Queued operations run only when the
// stream is synchronized, in the order they were queued, which mirrors the
// asynchronous behaviour of a device stream.
type SimStream struct {
	mu      sync.Mutex
	pending []func() error
}

// NewSimStream returns an empty simulated stream.
func NewSimStream() *SimStream {
	return &SimStream{}
}

// Enqueue appends op to the stream.
func (s *SimStream) Enqueue(op func() error) {
	s.mu.Lock()
	s.pending = append(s.pending, op)
	s.mu.Unlock()
}

// Pending returns the number of operations waiting for Synchronize.
func (s *SimStream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Synchronize runs every queued operation and returns the first error.
// Operations queued after a failure still run; the error is sticky for the
// remainder of this call only.
func (s *SimStream) Synchronize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	var first error
	for _, op := range ops {
		if err := op(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SimBuffer is a host-memory DeviceBuffer backed by a plain slice. Kernels
// launched into it run on the stream they were launched on.
type SimBuffer struct {
	mu       sync.Mutex
	data     []Return
	failNext error
}

// NewSimBuffer allocates a simulated device buffer of n returns.
func NewSimBuffer(n int) *SimBuffer {
	return &SimBuffer{data: make([]Return, n)}
}

// Len implements DeviceBuffer.
func (b *SimBuffer) Len() int {
	return len(b.data)
}

// Launch queues kernel on s. The kernel receives the whole buffer and may
// overwrite every record.
func (b *SimBuffer) Launch(s *SimStream, kernel func(dst []Return)) {
	s.Enqueue(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		kernel(b.data)
		return nil
	})
}

// FailNextCopy makes the next queued copy fail with err when it executes.
func (b *SimBuffer) FailNextCopy(err error) {
	b.mu.Lock()
	b.failNext = err
	b.mu.Unlock()
}

// CopyToHost implements DeviceBuffer. s must be a *SimStream.
func (b *SimBuffer) CopyToHost(dst []Return, s Stream) error {
	ss, ok := s.(*SimStream)
	if !ok {
		return fmt.Errorf("%w: simulated buffer needs a *SimStream, got %T", radar.ErrContractViolation, s)
	}
	if len(dst) < len(b.data) {
		return fmt.Errorf("%w: host buffer holds %d returns, device buffer %d",
			radar.ErrContractViolation, len(dst), len(b.data))
	}

	ss.Enqueue(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		if err := b.failNext; err != nil {
			b.failNext = nil
			return err
		}
		copy(dst, b.data)
		return nil
	})
	return nil
}

var (
	_ Stream       = (*SimStream)(nil)
	_ DeviceBuffer = (*SimBuffer)(nil)
)
