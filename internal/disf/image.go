// Package disf implements the Dynamic and Iterative Spanning Forest (DISF)
// superpixel segmentation: an image is turned into a CIELAB pixel graph,
// seeds are oversampled on a grid, and repeated Image Foresting Transform
// passes grow one tree per seed while the least relevant trees are removed
// until the requested number of superpixels remains.
package disf

import (
	"fmt"
	"image"
	"image/color"
)

const (
	maxValue8Bit  = 255
	maxValue16Bit = 65535
)

// Image is a rows x cols grid of integer samples with 1 to 4 interleaved
// channels per pixel (gray, gray+alpha, RGB, RGBA). Pix is row-major.
type Image struct {
	Rows     int
	Cols     int
	Channels int
	Pix      []int32
}

func NewImage(rows, cols, channels int) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrEmptyImage, cols, rows)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShape, channels)
	}

	return &Image{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Pix:      make([]int32, rows*cols*channels),
	}, nil
}

// NewImageFromSamples wraps an existing sample buffer without copying it.
// A 2-D array is passed with channels == 1; a 3-D array carries its channel
// axis last.
func NewImageFromSamples(rows, cols, channels int, samples []int32) (*Image, error) {
	img := &Image{Rows: rows, Cols: cols, Channels: channels, Pix: samples}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// FromImage converts a decoded Go image. 16-bit sources keep their full
// range; everything else is read as 8-bit samples.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	switch typed := src.(type) {
	case *image.Gray:
		img := &Image{Rows: rows, Cols: cols, Channels: 1, Pix: make([]int32, rows*cols)}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				img.Pix[y*cols+x] = int32(typed.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return img
	case *image.Gray16:
		img := &Image{Rows: rows, Cols: cols, Channels: 1, Pix: make([]int32, rows*cols)}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				img.Pix[y*cols+x] = int32(typed.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return img
	case *image.RGBA64, *image.NRGBA64:
		img := &Image{Rows: rows, Cols: cols, Channels: 3, Pix: make([]int32, rows*cols*3)}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c := color.NRGBA64Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
				i := (y*cols + x) * 3
				img.Pix[i] = int32(c.R)
				img.Pix[i+1] = int32(c.G)
				img.Pix[i+2] = int32(c.B)
			}
		}
		return img
	default:
		img := &Image{Rows: rows, Cols: cols, Channels: 3, Pix: make([]int32, rows*cols*3)}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				i := (y*cols + x) * 3
				img.Pix[i] = int32(c.R)
				img.Pix[i+1] = int32(c.G)
				img.Pix[i+2] = int32(c.B)
			}
		}
		return img
	}
}

func (img *Image) Validate() error {
	if img == nil || img.Rows <= 0 || img.Cols <= 0 {
		return ErrEmptyImage
	}
	if img.Channels < 1 || img.Channels > 4 {
		return fmt.Errorf("%w: got %d", ErrInvalidShape, img.Channels)
	}
	if want := img.Rows * img.Cols * img.Channels; len(img.Pix) != want {
		return fmt.Errorf("%w: %d samples for %dx%dx%d", ErrInvalidShape, len(img.Pix), img.Rows, img.Cols, img.Channels)
	}
	return nil
}

func (img *Image) NumPixels() int {
	return img.Rows * img.Cols
}

// Pixel returns the channel samples of the pixel at index. The slice aliases
// the image buffer.
func (img *Image) Pixel(index int) []int32 {
	start := index * img.Channels
	return img.Pix[start : start+img.Channels]
}

// MaxValue returns the maximum sample over all channels.
func (img *Image) MaxValue() int32 {
	maxVal := int32(-1)
	for _, v := range img.Pix {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// MinValue returns the minimum sample over all channels.
func (img *Image) MinValue() int32 {
	if len(img.Pix) == 0 {
		return -1
	}
	minVal := img.Pix[0]
	for _, v := range img.Pix[1:] {
		if v < minVal {
			minVal = v
		}
	}
	return minVal
}

// NormValue is the full-scale value used to bring samples into [0,1]:
// 255 for 8-bit content and 65535 for 16-bit content.
func (img *Image) NormValue() (int, error) {
	maxVal := img.MaxValue()
	if maxVal > maxValue16Bit {
		return 0, fmt.Errorf("%w: maximum sample %d", ErrUnsupportedDepth, maxVal)
	}
	if img.MinValue() < 0 {
		return 0, fmt.Errorf("%w: negative sample %d", ErrUnsupportedDepth, img.MinValue())
	}
	if maxVal <= maxValue8Bit {
		return maxValue8Bit, nil
	}
	return maxValue16Bit, nil
}

// Grid is a single-channel rows x cols map such as a label or border map.
type Grid struct {
	Rows   int
	Cols   int
	Values []int32
}

func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Values: make([]int32, rows*cols)}
}

func (g *Grid) At(y, x int) int32 {
	return g.Values[y*g.Cols+x]
}

func (g *Grid) Set(y, x int, v int32) {
	g.Values[y*g.Cols+x] = v
}

func (g *Grid) Fill(v int32) {
	for i := range g.Values {
		g.Values[i] = v
	}
}

// MinMax returns the smallest and largest value of the grid.
func (g *Grid) MinMax() (int32, int32) {
	if len(g.Values) == 0 {
		return 0, 0
	}
	lo, hi := g.Values[0], g.Values[0]
	for _, v := range g.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Distinct counts the number of different values in the grid.
func (g *Grid) Distinct() int {
	seen := make(map[int32]struct{})
	for _, v := range g.Values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.Rows == other.Rows && g.Cols == other.Cols
}

func (g *Grid) Clone() *Grid {
	values := make([]int32, len(g.Values))
	copy(values, g.Values)
	return &Grid{Rows: g.Rows, Cols: g.Cols, Values: values}
}
