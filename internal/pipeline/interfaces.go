package pipeline

import (
	"context"
	"image"
	"io"

	"disf-superpixels/internal/disf"
)

// ImageLoader decodes a raster file into samples the engine can consume.
type ImageLoader interface {
	Load(ctx context.Context, path string) (*ImageData, error)
	LoadFromBytes(ctx context.Context, data []byte, format string) (*ImageData, error)
	Backend() string
}

// ImageSaver writes segmentation outputs.
type ImageSaver interface {
	WritePGM(writer io.Writer, grid *disf.Grid) error
	SavePGM(path string, grid *disf.Grid) error
	SavePNG(path string, img image.Image) error
}

// Renderer turns label and border maps into something a person can look at.
type Renderer interface {
	// SideBySide min/max-scales both grids to gray and places them next to
	// each other, labels on the left.
	SideBySide(labels, borders *disf.Grid) (image.Image, error)
	// Overlay paints every superpixel in its own colour with borders in
	// white.
	Overlay(labels, borders *disf.Grid) (image.Image, error)
}

// ImageData is a decoded input image.
type ImageData struct {
	Image    *disf.Image
	Width    int
	Height   int
	Channels int
	Depth    int
	Format   string
	Path     string
}
