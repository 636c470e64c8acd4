package l4perception

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// ClustererInterface abstracts the clustering implementation so the
// pipeline can be tested with alternative strategies.
type ClustererInterface interface {
	// Cluster partitions one frame's candidate positions.
	Cluster(positions []r3.Vec) (*Partition, error)

	// GetParams returns the current clustering parameters.
	GetParams() Params

	// SetParams validates and installs new parameters for subsequent frames.
	SetParams(params Params) error
}

// DBSCANClusterer implements ClustererInterface using DBSCAN. Parameters
// may be changed at runtime; a frame in progress keeps the parameters it
// started with.
type DBSCANClusterer struct {
	mu     sync.RWMutex
	params Params
}

// NewDBSCANClusterer creates a clusterer, failing with
// radar.ErrInvalidParameter on invalid parameters.
func NewDBSCANClusterer(params Params) (*DBSCANClusterer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &DBSCANClusterer{params: params}, nil
}

// NewDefaultDBSCANClusterer creates a DBSCAN clusterer with default parameters.
func NewDefaultDBSCANClusterer() *DBSCANClusterer {
	return &DBSCANClusterer{params: DefaultDBSCANParams()}
}

// Cluster implements ClustererInterface.
func (c *DBSCANClusterer) Cluster(positions []r3.Vec) (*Partition, error) {
	return DBSCAN(positions, c.GetParams())
}

// GetParams returns the current clustering parameters.
func (c *DBSCANClusterer) GetParams() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParams updates the clustering parameters. Invalid parameters are
// rejected and the previous ones kept.
func (c *DBSCANClusterer) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = params
	c.mu.Unlock()
	return nil
}

// Verify at compile time that *DBSCANClusterer implements ClustererInterface.
var _ ClustererInterface = (*DBSCANClusterer)(nil)
