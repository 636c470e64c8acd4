package l4perception

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBSCANClusterer_NewDefaultDBSCANClusterer(t *testing.T) {
	clusterer := NewDefaultDBSCANClusterer()
	if clusterer == nil {
		t.Fatal("expected non-nil clusterer")
	}

	params := clusterer.GetParams()
	if params.Epsilon != DefaultDBSCANEps {
		t.Errorf("expected Epsilon=%f, got %f", DefaultDBSCANEps, params.Epsilon)
	}
	if params.MinPts != DefaultDBSCANMinPts {
		t.Errorf("expected MinPts=%d, got %d", DefaultDBSCANMinPts, params.MinPts)
	}
}

func TestDBSCANClusterer_NewDBSCANClusterer(t *testing.T) {
	c, err := NewDBSCANClusterer(Params{Epsilon: 0.8, MinPts: 15})
	require.NoError(t, err)
	assert.Equal(t, 0.8, c.GetParams().Epsilon)
	assert.Equal(t, 15, c.GetParams().MinPts)

	c, err = NewDBSCANClusterer(Params{Epsilon: 0.8, MinPts: 0})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, radar.ErrInvalidParameter)
}

func TestDBSCANClusterer_SetParams(t *testing.T) {
	clusterer := NewDefaultDBSCANClusterer()

	require.NoError(t, clusterer.SetParams(Params{Epsilon: 2.0, MinPts: 3, Index: IndexGrid}))
	assert.Equal(t, Params{Epsilon: 2.0, MinPts: 3, Index: IndexGrid}, clusterer.GetParams())

	err := clusterer.SetParams(Params{Epsilon: -1, MinPts: 3})
	assert.ErrorIs(t, err, radar.ErrInvalidParameter)
	assert.Equal(t, 2.0, clusterer.GetParams().Epsilon, "rejected params leave the old ones in place")
}

func TestDBSCANClusterer_Cluster(t *testing.T) {
	clusterer, err := NewDBSCANClusterer(Params{Epsilon: 1, MinPts: 2})
	require.NoError(t, err)

	p, err := clusterer.Cluster([]r3.Vec{{Z: 0}, {Z: 0.5}, {Z: 5}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumClusters())
	assert.Equal(t, 2, p.Members())

	p, err = clusterer.Cluster(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.NumClusters())
}
