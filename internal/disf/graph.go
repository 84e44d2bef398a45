package disf

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// NumFeats is the feature dimension of every node (L*, a*, b*).
const NumFeats = 3

// Coords addresses a node by column (X) and row (Y).
type Coords struct {
	X, Y int
}

// Adjacency lists coordinate shifts around a node.
type Adjacency struct {
	DX []int
	DY []int
}

func (a *Adjacency) Size() int {
	return len(a.DX)
}

// Neighbor returns the coordinates of the id-th neighbour of c.
func (a *Adjacency) Neighbor(c Coords, id int) Coords {
	return Coords{X: c.X + a.DX[id], Y: c.Y + a.DY[id]}
}

// FourNeighborhood: left, right, top, bottom.
func FourNeighborhood() *Adjacency {
	return &Adjacency{
		DX: []int{-1, 1, 0, 0},
		DY: []int{0, 0, -1, 1},
	}
}

// EightNeighborhood: left, right, top, bottom, bottom-left, top-right,
// top-left, bottom-right.
func EightNeighborhood() *Adjacency {
	return &Adjacency{
		DX: []int{-1, 1, 0, 0, -1, 1, -1, 1},
		DY: []int{0, 0, -1, 1, 1, -1, -1, 1},
	}
}

// Graph holds one CIELAB feature vector per pixel.
type Graph struct {
	Cols     int
	Rows     int
	NumNodes int
	Feats    []float32
}

// NewGraph converts img to Lab features, spreading rows over workers
// goroutines. workers <= 0 uses GOMAXPROCS.
func NewGraph(ctx context.Context, img *Image, workers int) (*Graph, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	normVal, err := img.NormValue()
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Cols:     img.Cols,
		Rows:     img.Rows,
		NumNodes: img.NumPixels(),
		Feats:    make([]float32, img.NumPixels()*NumFeats),
	}

	err = forEachRowBand(ctx, g.Rows, workers, func(y0, y1 int) {
		for i := y0 * g.Cols; i < y1*g.Cols; i++ {
			lab := pixelToLab(img.Pixel(i), normVal)
			copy(g.Feats[i*NumFeats:(i+1)*NumFeats], lab[:])
		}
	})
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	return g, nil
}

// Feat returns the feature vector of node i. The slice aliases the graph.
func (g *Graph) Feat(i int) []float32 {
	return g.Feats[i*NumFeats : (i+1)*NumFeats]
}

func (g *Graph) Valid(c Coords) bool {
	return c.X >= 0 && c.X < g.Cols && c.Y >= 0 && c.Y < g.Rows
}

func (g *Graph) Index(c Coords) int {
	return c.Y*g.Cols + c.X
}

func (g *Graph) CoordsOf(index int) Coords {
	return Coords{X: index % g.Cols, Y: index / g.Cols}
}

// EuclDistance is the L2 norm between two feature vectors. Squares are
// taken in single precision and the root is rounded to single precision,
// as libdisf does.
func EuclDistance(a, b []float32) float64 {
	var dist float64
	for i := range a {
		d := a[i] - b[i]
		dist += float64(d * d)
	}
	return float64(float32(math.Sqrt(float64(float32(dist)))))
}

// TaxicabDistance is the L1 norm between two feature vectors.
func TaxicabDistance(a, b []float32) float64 {
	var dist float64
	for i := range a {
		dist += math.Abs(float64(a[i] - b[i]))
	}
	return dist
}

// forEachRowBand splits [0, rows) into contiguous bands processed
// concurrently. Cancellation is checked before each band starts.
func forEachRowBand(ctx context.Context, rows, workers int, fn func(y0, y1 int)) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}
	band := (rows + workers - 1) / workers

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for y0 := 0; y0 < rows; y0 += band {
		y1 := min(y0+band, rows)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(y0, y1)
			return nil
		})
	}
	return eg.Wait()
}
