package disf

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGradientFlatImage(t *testing.T) {
	img, err := NewImage(8, 8, 1)
	require.NoError(t, err)

	grad, err := ComputeGradient(context.Background(), buildGraph(t, img), 0)
	require.NoError(t, err)
	for _, v := range grad {
		assert.Zero(t, v)
	}
}

func TestComputeGradientPeaksAtEdges(t *testing.T) {
	img, err := NewImage(6, 6, 1)
	require.NoError(t, err)
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			img.Pix[y*6+x] = 255
		}
	}

	g := buildGraph(t, img)
	grad, err := ComputeGradient(context.Background(), g, 2)
	require.NoError(t, err)

	assert.Zero(t, grad[g.Index(Coords{X: 0, Y: 3})])
	assert.Greater(t, grad[g.Index(Coords{X: 2, Y: 3})], 0.0)
	assert.Greater(t, grad[g.Index(Coords{X: 3, Y: 3})], 0.0)
}

func TestGridSamplingSeeds(t *testing.T) {
	g := buildGraph(t, blocksImage(t, 100, 100))

	seeds, err := GridSampling(context.Background(), g, 400, 0)
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	assert.True(t, sort.IsSorted(sort.Reverse(sort.IntSlice(seeds))))
	seen := make(map[int]bool, len(seeds))
	for _, s := range seeds {
		assert.False(t, seen[s], "duplicate seed %d", s)
		seen[s] = true
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, g.NumNodes)
	}
	assert.LessOrEqual(t, len(seeds), 400)
}

func TestGridSamplingFlatImageIsRegular(t *testing.T) {
	img, err := NewImage(20, 20, 1)
	require.NoError(t, err)

	// stride ~3.42 from delta ~1.71: grid points 1, 4, 7, 10, ...
	seeds, err := GridSampling(context.Background(), buildGraph(t, img), 50, 0)
	require.NoError(t, err)

	// listed from the last grid point back to the first
	n := len(seeds)
	assert.Equal(t, 1*20+1, seeds[n-1])
	assert.Equal(t, 1*20+4, seeds[n-2])
	assert.Equal(t, 1*20+7, seeds[n-3])
}

func TestGridSamplingTooManySeeds(t *testing.T) {
	g := buildGraph(t, blocksImage(t, 10, 10))

	_, err := GridSampling(context.Background(), g, 100, 0)
	assert.ErrorIs(t, err, ErrTooManySeeds)
}

func TestMaxSeeds(t *testing.T) {
	assert.Equal(t, 0, MaxSeeds(1))

	n := MaxSeeds(10000)
	require.Positive(t, n)
	_, delta := samplingStride(10000, n)
	assert.GreaterOrEqual(t, delta, float32(1.0))
	_, delta = samplingStride(10000, n+1)
	assert.Less(t, delta, float32(1.0))
}
