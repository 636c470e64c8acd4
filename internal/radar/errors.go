package radar

import "errors"

var (
	// ErrInvalidParameter reports a clustering configuration that cannot be
	// used: epsilon must be > 0 and minPts must be ≥ 1. It is returned before
	// any frame work starts.
	ErrInvalidParameter = errors.New("invalid clustering parameter")

	// ErrUpstreamTransfer reports a failed device→host copy. The frame is
	// aborted and no OutputBuffer is published for it.
	ErrUpstreamTransfer = errors.New("device to host transfer failed")

	// ErrContractViolation reports misuse between stages, for example a frame
	// whose buffer length does not match its width×height, or a spatial index
	// queried before it was built. It is not recoverable at runtime.
	ErrContractViolation = errors.New("contract violation")
)
