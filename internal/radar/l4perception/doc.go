// Package l4perception owns Layer 4 (Perception) of the radar data model.
//
// Responsibilities: frame-scoped spatial indexes over candidate positions
// and DBSCAN clustering of candidates into objects.
// Key types: SpatialIndex, KDIndex, GridIndex, Params, Labeling, Partition,
// DBSCANClusterer.
//
// Dependency rule: L4 may depend on L1-L2, but never on L6+.
// All indices exchanged with callers are candidate indices: positions in
// the CandidateSet the index was built from.
package l4perception
