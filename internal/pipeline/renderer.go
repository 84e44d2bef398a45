package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/opencv/conversion"
)

// NewRenderer returns the OpenCV renderer for the opencv backend and a pure
// Go one otherwise. Both produce identical pictures.
func NewRenderer(backend string) Renderer {
	if backend == BackendNative {
		return nativeRenderer{}
	}
	return opencvRenderer{}
}

type opencvRenderer struct{}

func (opencvRenderer) SideBySide(labels, borders *disf.Grid) (image.Image, error) {
	if !labels.SameShape(borders) {
		return nil, disf.ErrShapeMismatch
	}

	left, err := conversion.ScaleToGray(labels)
	if err != nil {
		return nil, fmt.Errorf("scaling labels: %w", err)
	}
	defer left.Close()

	right, err := conversion.ScaleToGray(borders)
	if err != nil {
		return nil, fmt.Errorf("scaling borders: %w", err)
	}
	defer right.Close()

	both, err := conversion.SideBySide(left, right)
	if err != nil {
		return nil, err
	}
	defer both.Close()

	return conversion.MatToGoImage(both)
}

func (opencvRenderer) Overlay(labels, borders *disf.Grid) (image.Image, error) {
	return overlay(labels, borders)
}

type nativeRenderer struct{}

func (nativeRenderer) SideBySide(labels, borders *disf.Grid) (image.Image, error) {
	if !labels.SameShape(borders) {
		return nil, disf.ErrShapeMismatch
	}

	out := image.NewGray(image.Rect(0, 0, labels.Cols*2, labels.Rows))
	scaleInto(out, labels, 0)
	scaleInto(out, borders, labels.Cols)
	return out, nil
}

func (nativeRenderer) Overlay(labels, borders *disf.Grid) (image.Image, error) {
	return overlay(labels, borders)
}

// scaleInto maps [min, max] of grid onto [0, 255] with the same rounding as
// OpenCV's min/max normalisation.
func scaleInto(dst *image.Gray, grid *disf.Grid, offsetX int) {
	lo, hi := grid.MinMax()
	scale := 0.0
	if hi > lo {
		scale = 255.0 / float64(hi-lo)
	}
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			v := math.RoundToEven(float64(grid.At(y, x)-lo) * scale)
			dst.SetGray(offsetX+x, y, color.Gray{Y: uint8(v)})
		}
	}
}

// Palette spreads n colours around the hue circle by the golden angle so
// that neighbouring labels rarely look alike.
func Palette(n int) []color.RGBA {
	palette := make([]color.RGBA, n)
	for i := range palette {
		hue := math.Mod(float64(i)*137.507764, 360)
		sat := 0.55 + 0.3*float64(i%3)/2
		c := colorful.Hsv(hue, sat, 0.9)
		r, g, b := c.RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return palette
}

func overlay(labels, borders *disf.Grid) (image.Image, error) {
	if !labels.SameShape(borders) {
		return nil, disf.ErrShapeMismatch
	}
	lo, hi := labels.MinMax()
	if lo < 0 {
		return nil, fmt.Errorf("negative label %d", lo)
	}

	palette := Palette(int(hi) + 1)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	out := image.NewRGBA(image.Rect(0, 0, labels.Cols, labels.Rows))
	for y := 0; y < labels.Rows; y++ {
		for x := 0; x < labels.Cols; x++ {
			if borders.At(y, x) != 0 {
				out.SetRGBA(x, y, white)
				continue
			}
			out.SetRGBA(x, y, palette[labels.At(y, x)])
		}
	}
	return out, nil
}

// ScaleToGray min/max-scales grid onto an 8-bit gray image.
func ScaleToGray(grid *disf.Grid) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, grid.Cols, grid.Rows))
	scaleInto(out, grid, 0)
	return out
}
