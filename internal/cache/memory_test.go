package cache

import (
	"context"
	"testing"

	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(n int) []*simulator.Frame {
	out := make([]*simulator.Frame, n)
	for i := range out {
		out[i] = &simulator.Frame{Sequence: uint64(i + 1)}
	}
	return out
}

func sequences(fs []*simulator.Frame) []uint64 {
	out := make([]uint64, len(fs))
	for i, f := range fs {
		out[i] = f.Sequence
	}
	return out
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report empty before the first frame", func(t *testing.T) {
		c := NewMemoryCache(3)
		_, err := c.Latest(ctx)
		assert.ErrorIs(t, err, ErrEmpty)

		recent, err := c.Recent(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("Should keep the newest frames once full", func(t *testing.T) {
		c := NewMemoryCache(3)
		for _, f := range frames(5) {
			require.NoError(t, c.Publish(ctx, f))
		}

		latest, err := c.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), latest.Sequence)

		recent, err := c.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint64{5, 4, 3}, sequences(recent))

		recent, err = c.Recent(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []uint64{5, 4}, sequences(recent))
	})

	t.Run("Should fall back to the default capacity", func(t *testing.T) {
		c := NewMemoryCache(0)
		assert.Equal(t, defaultCapacity, c.capacity)
	})
}
