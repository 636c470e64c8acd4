package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l1device"
)

func TestNewBufferRing_Invalid(t *testing.T) {
	_, err := NewBufferRing(0, 4, 4)
	assert.ErrorIs(t, err, radar.ErrInvalidParameter)
	_, err = NewBufferRing(2, -1, 4)
	assert.ErrorIs(t, err, radar.ErrInvalidParameter)
}

func TestBufferRing_AcquireRelease(t *testing.T) {
	ring, err := NewBufferRing(2, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, ring.Size())

	ctx := context.Background()
	a, err := ring.Acquire(ctx)
	require.NoError(t, err)
	b, err := ring.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, a.Buffer, b.Buffer)
	assert.Equal(t, 12, a.Buffer.Len())
	assert.Equal(t, 0, ring.Free())

	// Both slots are out; a third Acquire blocks until the deadline.
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = ring.Acquire(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, ring.Release(a.Buffer))
	assert.Equal(t, 1, ring.Free())
	err = ring.Release(a.Buffer)
	assert.ErrorIs(t, err, radar.ErrContractViolation)

	err = ring.Release(l1device.NewSimBuffer(12))
	assert.ErrorIs(t, err, radar.ErrContractViolation)
}

func TestSlot_Frame(t *testing.T) {
	ring, err := NewBufferRing(1, 8, 2)
	require.NoError(t, err)
	slot, err := ring.Acquire(context.Background())
	require.NoError(t, err)

	ts := time.Unix(100, 0)
	f := slot.Frame(9, ts)
	assert.Equal(t, 16, f.Len())
	assert.Equal(t, uint64(9), f.LaunchCount)
	assert.Equal(t, ts, f.Timestamp)
	assert.Same(t, slot.Buffer, f.Buffer)
}
