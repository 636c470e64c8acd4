package l1device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarcluster/internal/radar"
)

func TestSimStream_RunsOnlyOnSynchronize(t *testing.T) {
	s := NewSimStream()
	buf := NewSimBuffer(3)
	buf.Launch(s, func(dst []Return) {
		for i := range dst {
			dst[i].Intensity = float32(i + 1)
		}
	})

	host := make([]Return, 3)
	require.NoError(t, buf.CopyToHost(host, s))
	assert.Equal(t, 2, s.Pending())
	assert.Zero(t, host[2].Intensity, "copy must not complete before Synchronize")

	require.NoError(t, s.Synchronize(context.Background()))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, float32(3), host[2].Intensity)
}

func TestSimBuffer_FailNextCopy(t *testing.T) {
	s := NewSimStream()
	buf := NewSimBuffer(1)
	boom := errors.New("bus error")
	buf.FailNextCopy(boom)

	host := make([]Return, 1)
	require.NoError(t, buf.CopyToHost(host, s))
	err := s.Synchronize(context.Background())
	assert.ErrorIs(t, err, boom)

	// The failure is consumed by the first copy.
	require.NoError(t, buf.CopyToHost(host, s))
	assert.NoError(t, s.Synchronize(context.Background()))
}

type otherStream struct{}

func (otherStream) Synchronize(context.Context) error { return nil }

func TestSimBuffer_CopyToHostContract(t *testing.T) {
	buf := NewSimBuffer(4)

	err := buf.CopyToHost(make([]Return, 4), otherStream{})
	assert.ErrorIs(t, err, radar.ErrContractViolation)

	err = buf.CopyToHost(make([]Return, 2), NewSimStream())
	assert.ErrorIs(t, err, radar.ErrContractViolation)
}

func TestSimStream_SynchronizeCancelled(t *testing.T) {
	s := NewSimStream()
	s.Enqueue(func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Synchronize(ctx), context.Canceled)
	assert.Equal(t, 1, s.Pending())
}

func TestReturn_ValidAndSpeed(t *testing.T) {
	r := Return{Velocity: [3]float32{3, 4, 0}, Intensity: 0.5}
	assert.True(t, r.Valid())
	assert.InDelta(t, 5.0, r.Speed(), 1e-9)

	assert.False(t, Return{}.Valid())
	assert.False(t, Return{Intensity: -1}.Valid())
}
