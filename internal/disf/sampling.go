package disf

import (
	"context"
	"fmt"
	"math"
)

// ComputeGradient estimates, for every node, the weighted L1 feature
// difference to its 8 neighbours. Closer neighbours weigh more.
func ComputeGradient(ctx context.Context, g *Graph, workers int) ([]float64, error) {
	adj := EightNeighborhood()

	maxDist := float32(math.Sqrt2)
	weights := make([]float32, adj.Size())
	var sum float32
	for i := range weights {
		div := float32(math.Sqrt(float64(adj.DX[i]*adj.DX[i] + adj.DY[i]*adj.DY[i])))
		weights[i] = maxDist / div
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}

	grad := make([]float64, g.NumNodes)
	err := forEachRowBand(ctx, g.Rows, workers, func(y0, y1 int) {
		for i := y0 * g.Cols; i < y1*g.Cols; i++ {
			feat := g.Feat(i)
			c := g.CoordsOf(i)
			for j := 0; j < adj.Size(); j++ {
				nc := adj.Neighbor(c, j)
				if !g.Valid(nc) {
					continue
				}
				grad[i] += float64(TaxicabDistance(g.Feat(g.Index(nc)), feat) * float64(weights[j]))
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("computing gradient: %w", err)
	}
	return grad, nil
}

// samplingStride returns the grid step and the offset of the first grid
// point for numSeeds seeds over numNodes pixels. The arithmetic stays in
// single precision so grid positions round the same way as libdisf.
func samplingStride(numNodes, numSeeds int) (stride, delta float32) {
	size := float32(0.5) + float32(numNodes)/float32(numSeeds)
	stride = float32(math.Sqrt(float64(size))) + 0.5
	return stride, stride / 2.0
}

// MaxSeeds is the largest seed count whose sampling grid still has a
// stride of at least two pixels. It returns 0 when not even one fits.
func MaxSeeds(numNodes int) int {
	n := int(float64(numNodes) / 1.75)
	for n > 0 {
		if _, delta := samplingStride(numNodes, n); delta >= 1.0 {
			break
		}
		n--
	}
	return n
}

// GridSampling places roughly numSeeds seeds on a regular grid and moves
// each one to the lowest-gradient pixel of its 8-neighbourhood. The result
// is free of duplicates and ordered by descending node index, which fixes
// the label each seed gets in the first pass.
func GridSampling(ctx context.Context, g *Graph, numSeeds, workers int) ([]int, error) {
	if numSeeds <= 0 {
		return nil, fmt.Errorf("%w: %d seeds", ErrInvalidParams, numSeeds)
	}
	stride, delta := samplingStride(g.NumNodes, numSeeds)
	if delta < 1.0 {
		return nil, fmt.Errorf("%w: %d seeds for %d pixels", ErrTooManySeeds, numSeeds, g.NumNodes)
	}

	grad, err := ComputeGradient(ctx, g, workers)
	if err != nil {
		return nil, err
	}

	adj := EightNeighborhood()
	isSeed := make([]bool, g.NumNodes)

	// The grid position accumulates in float and truncates back to int on
	// every step.
	for y := int(delta); y < g.Rows; y = int(float32(y) + stride) {
		for x := int(delta); x < g.Cols; x = int(float32(x) + stride) {
			c := Coords{X: x, Y: y}
			best := g.Index(c)

			for i := 0; i < adj.Size(); i++ {
				nc := adj.Neighbor(c, i)
				if !g.Valid(nc) {
					continue
				}
				if idx := g.Index(nc); grad[idx] < grad[best] {
					best = idx
				}
			}
			isSeed[best] = true
		}
	}

	seeds := make([]int, 0, numSeeds)
	for i := len(isSeed) - 1; i >= 0; i-- {
		if isSeed[i] {
			seeds = append(seeds, i)
		}
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: %dx%d image", ErrNoSeeds, g.Cols, g.Rows)
	}
	return seeds, nil
}
