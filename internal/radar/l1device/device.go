package l1device

import "context"

// Stream is an ordered queue of asynchronous device work.
type Stream interface {
	// Synchronize blocks until every operation queued on the stream has
	// completed and returns the first failure, if any.
	Synchronize(ctx context.Context) error
}

// DeviceBuffer is a device-resident array of beam returns.
type DeviceBuffer interface {
	// Len returns the number of returns held by the buffer.
	Len() int

	// CopyToHost queues a copy of the whole buffer into dst on stream s.
	// dst is only valid after s has been synchronized.
	CopyToHost(dst []Return, s Stream) error
}
