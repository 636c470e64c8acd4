// Package pipeline runs radar frames through the clustering engine.
//
// A frame flows stage → index → cluster → aggregate on one goroutine
// (Processor). The Runner drains a channel of device frames, hands every
// finished OutputBuffer to a Sink and returns device buffers to a
// BufferRing as soon as their contents reach host memory, so the producer
// can fill the next buffer while the host is still clustering.
//
// The pipeline owns no domain logic. It delegates to l2frames,
// l4perception and l6objects and to adapter sinks (storage, serial,
// monitor).
package pipeline
