package disf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// blocksImage draws a gray image made of flat rectangles with a soft ramp
// inside each, giving the segmentation clear edges to follow.
func blocksImage(t *testing.T, rows, cols int) *Image {
	t.Helper()

	img, err := NewImage(rows, cols, 1)
	require.NoError(t, err)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			block := (x/20 + 3*(y/25)) % 5
			img.Pix[y*cols+x] = int32(block*50 + (x % 20))
		}
	}
	return img
}

func colorImage(t *testing.T, rows, cols int) *Image {
	t.Helper()

	img, err := NewImage(rows, cols, 3)
	require.NoError(t, err)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			px := img.Pixel(y*cols + x)
			px[0] = int32((x * 255) / cols)
			px[1] = int32((y * 255) / rows)
			if (x/16+y/16)%2 == 0 {
				px[2] = 200
			}
		}
	}
	return img
}

func buildGraph(t *testing.T, img *Image) *Graph {
	t.Helper()

	g, err := NewGraph(context.Background(), img, 0)
	require.NoError(t, err)
	return g
}

// forEachNeighborPair calls fn for every unordered pair of 8-adjacent
// pixels.
func forEachNeighborPair(rows, cols int, fn func(a, b int)) {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for _, d := range [][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= cols || ny >= rows {
					continue
				}
				fn(y*cols+x, ny*cols+nx)
			}
		}
	}
}
