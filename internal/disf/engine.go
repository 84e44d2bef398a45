package disf

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	borderValue = 255

	// cancellation is polled once per this many conquered pixels
	ctxPollInterval = 1 << 14
)

// Params are the two knobs of the segmentation.
type Params struct {
	// InitSeeds (N0) is the number of seeds oversampled on the grid.
	InitSeeds int
	// FinalSuperpixels (Nf) is the number of superpixels to keep.
	FinalSuperpixels int
	// StrictSampling rejects an InitSeeds value the image cannot hold
	// instead of lowering it to the densest possible grid.
	StrictSampling bool
}

func (p Params) Validate() error {
	if p.InitSeeds <= 1 {
		return fmt.Errorf("%w: number of initial seeds must be greater than 1, got %d", ErrInvalidParams, p.InitSeeds)
	}
	if p.FinalSuperpixels <= 1 {
		return fmt.Errorf("%w: number of final superpixels must be greater than 1, got %d", ErrInvalidParams, p.FinalSuperpixels)
	}
	if p.InitSeeds < p.FinalSuperpixels {
		return fmt.Errorf("%w: initial seeds (%d) must not be fewer than final superpixels (%d)",
			ErrInvalidParams, p.InitSeeds, p.FinalSuperpixels)
	}
	return nil
}

// IterationStats describes one finished IFT pass.
type IterationStats struct {
	Iteration int
	Seeds     int
	Kept      int
	Elapsed   time.Duration
}

// Observer is notified after every IFT pass. It runs on the engine
// goroutine and must not block.
type Observer func(IterationStats)

type Options struct {
	// Workers bounds the goroutines used for the parallel stages.
	// Zero uses GOMAXPROCS.
	Workers  int
	Observer Observer
}

type Result struct {
	Labels       *Grid
	Borders      *Grid
	Superpixels  int
	Iterations   int
	InitialSeeds int
	// EffectiveSeeds differs from the requested InitSeeds when the value was
	// lowered to fit the sampling grid.
	EffectiveSeeds int
}

// forest is the state of one IFT pass.
type forest struct {
	trees []*tree
	adj   [][]int
}

func (f *forest) link(a, b int) {
	if slices.Contains(f.adj[a], b) {
		return
	}
	f.adj[a] = append(f.adj[a], b)
	f.adj[b] = append(f.adj[b], a)
}

// FitSeeds returns the number of seeds sampled for p on an image of
// numNodes pixels. Unless p.StrictSampling is set, an InitSeeds value the
// sampling grid cannot hold is lowered to MaxSeeds, even below
// FinalSuperpixels; the result then simply has fewer superpixels.
func FitSeeds(numNodes int, p Params) (int, error) {
	maxSeeds := MaxSeeds(numNodes)
	switch {
	case p.InitSeeds <= maxSeeds:
		return p.InitSeeds, nil
	case p.StrictSampling:
		return 0, fmt.Errorf("%w: %d seeds for %d pixels", ErrTooManySeeds, p.InitSeeds, numNodes)
	case maxSeeds == 0:
		return 0, fmt.Errorf("%w: %d pixels", ErrNoSeeds, numNodes)
	}
	return maxSeeds, nil
}

// Run segments the graph into at most p.FinalSuperpixels superpixels.
func Run(ctx context.Context, g *Graph, p Params, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.NumNodes == 0 {
		return nil, ErrEmptyImage
	}

	n0, err := FitSeeds(g.NumNodes, p)
	if err != nil {
		return nil, err
	}

	seeds, err := GridSampling(ctx, g, n0, opts.Workers)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Labels:         NewGrid(g.Rows, g.Cols),
		Borders:        NewGrid(g.Rows, g.Cols),
		InitialSeeds:   len(seeds),
		EffectiveSeeds: n0,
	}

	cost := make([]float64, g.NumNodes)
	queue := NewPriorityQueue(cost, MinValuePolicy)
	adj := EightNeighborhood()

	for iter := 1; ; iter++ {
		start := time.Now()

		f, err := conquer(ctx, g, adj, queue, cost, seeds, res.Labels, res.Borders)
		if err != nil {
			return nil, err
		}

		numMaintain := int(math.Max(float64(n0)*math.Exp(-float64(iter)), float64(p.FinalSuperpixels)))
		numTrees := len(seeds)
		seeds = selectRelevantSeeds(f, g.NumNodes, numMaintain)
		queue.Reset()

		res.Iterations = iter
		res.Superpixels = numTrees

		if opts.Observer != nil {
			opts.Observer(IterationStats{
				Iteration: iter,
				Seeds:     numTrees,
				Kept:      len(seeds),
				Elapsed:   time.Since(start),
			})
		}

		// A pass that removed nothing while more trees than requested remain
		// only happens when sampling produced far fewer seeds than N0. The
		// budget keeps decaying, so iterating again eventually removes some.
		if numTrees == len(seeds) && numTrees <= p.FinalSuperpixels {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// conquer runs one Image Foresting Transform pass from seeds, writing the
// label and border maps and returning the trees with their adjacency.
func conquer(ctx context.Context, g *Graph, adj *Adjacency, queue *PriorityQueue, cost []float64,
	seeds []int, labels, borders *Grid) (*forest, error) {
	for i := range cost {
		cost[i] = posInf
	}
	labels.Fill(-1)
	borders.Fill(0)

	f := &forest{
		trees: make([]*tree, len(seeds)),
		adj:   make([][]int, len(seeds)),
	}
	for label, seed := range seeds {
		cost[seed] = 0
		labels.Values[seed] = int32(label)
		f.trees[label] = newTree(seed)
		queue.Insert(seed)
	}

	for popped := 0; !queue.Empty(); popped++ {
		if popped%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		node := queue.Pop()
		nodeLabel := labels.Values[node]
		t := f.trees[nodeLabel]
		t.add(g.Feat(node))
		mean := t.mean()
		c := g.CoordsOf(node)

		for i := 0; i < adj.Size(); i++ {
			nc := adj.Neighbor(c, i)
			if !g.Valid(nc) {
				continue
			}
			next := g.Index(nc)

			if queue.State(next) != StateBlack {
				pathCost := math.Max(cost[node], EuclDistance(mean[:], g.Feat(next)))
				if pathCost < cost[next] {
					cost[next] = pathCost
					labels.Values[next] = nodeLabel
					if queue.State(next) == StateGray {
						queue.MoveUp(next)
					} else {
						queue.Insert(next)
					}
				}
				continue
			}

			if nextLabel := labels.Values[next]; nextLabel != nodeLabel {
				borders.Values[node] = borderValue
				borders.Values[next] = borderValue
				f.link(int(nodeLabel), int(nextLabel))
			}
		}
	}
	return f, nil
}

// selectRelevantSeeds keeps the roots of the numMaintain most relevant
// trees, least relevant first. Relevance is the tree's share of the image
// times the colour distance to its most similar adjacent tree.
func selectRelevantSeeds(f *forest, numNodes, numMaintain int) []int {
	prio := make([]float64, len(f.trees))
	queue := NewPriorityQueue(prio, MaxValuePolicy)

	means := make([][NumFeats]float32, len(f.trees))
	for i, t := range f.trees {
		means[i] = t.mean()
	}

	for i, t := range f.trees {
		area := float64(float32(t.count) / float32(numNodes))
		grad := posInf
		for _, j := range f.adj[i] {
			grad = math.Min(grad, EuclDistance(means[i][:], means[j][:]))
		}
		prio[i] = area * grad
		queue.Insert(i)
	}

	kept := make([]int, 0, min(numMaintain, len(f.trees)))
	for i := 0; i < numMaintain && !queue.Empty(); i++ {
		kept = append(kept, f.trees[queue.Pop()].root)
	}
	slices.Reverse(kept)
	return kept
}
