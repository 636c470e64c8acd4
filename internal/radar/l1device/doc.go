// Package l1device owns Layer 1 (Device) of the radar data model.
//
// Responsibilities: the per-beam Return record produced by the upstream
// ranging kernel, the device-resident Frame handed to the engine, and the
// DeviceBuffer/Stream contracts used for the device→host copy.
// Key types: Return, Frame, DeviceBuffer, Stream, SimBuffer, SimStream.
//
// Dependency rule: L1 depends on nothing above it.
package l1device
