// Package l6objects owns Layer 6 (Objects) of the radar data model.
//
// Responsibilities: turning a clustering partition into per-frame objects
// (centroid, mean velocity, member count), stamping object IDs onto the
// member returns and compacting the frame into an OutputBuffer.
// Key types: OutputBuffer, ClusterAggregate, FrameMetadata.
//
// Dependency rule: L6 may depend on L1-L4.
package l6objects
