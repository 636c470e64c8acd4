// Package radar holds the shared error taxonomy for the radar point-cloud
// clustering engine and documents its layer model.
//
// Layers:
//   - l1device: device-resident beam returns, execution streams and the
//     in-memory simulated device.
//   - l2frames: the blocking device→host staging step and intensity filter
//     that produces the per-frame CandidateSet.
//   - l4perception: spatial indexes and DBSCAN clustering.
//   - l6objects: per-object aggregation and the compacted OutputBuffer.
//
// Dependency rule: a layer may depend on lower layers, never on higher ones.
// The pipeline package is the composition root; storage, monitor and
// serialsink are adapters that consume OutputBuffers.
//
// No state survives from one frame to the next inside the layer packages.
package radar
