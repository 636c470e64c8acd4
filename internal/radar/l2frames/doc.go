// Package l2frames owns Layer 2 (Frames) of the radar data model.
//
// Responsibilities: moving a device-resident frame to host memory across
// an explicit synchronization boundary and filtering it to the valid
// candidates that perception clusters.
// Key types: Stager, StagedFrame, CandidateSet.
//
// Dependency rule: L2 may depend on L1, never on L4+.
package l2frames
