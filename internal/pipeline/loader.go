package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/opencv/conversion"
	"disf-superpixels/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	BackendOpenCV = "opencv"
	BackendNative = "native"
)

// NewLoader picks a decoding backend. OpenCV keeps 16-bit colour; the
// native backend needs no cgo at run time.
func NewLoader(backend string, logger Logger, timingTracker TimingTracker) (ImageLoader, error) {
	base := baseLoader{logger: logger, timingTracker: timingTracker}
	switch backend {
	case BackendOpenCV, "":
		return &opencvLoader{base}, nil
	case BackendNative:
		return &nativeLoader{base}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

type baseLoader struct {
	logger        Logger
	timingTracker TimingTracker
}

func (b baseLoader) readFile(ctx context.Context, path string) ([]byte, error) {
	tctx := b.timingTracker.StartTiming(ctx, "read_file")
	defer b.timingTracker.EndTiming(tctx)

	b.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path": path,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return data, nil
}

func (b baseLoader) finish(img *disf.Image, depth int, format, path string) *ImageData {
	imageData := &ImageData{
		Image:    img,
		Width:    img.Cols,
		Height:   img.Rows,
		Channels: img.Channels,
		Depth:    depth,
		Format:   format,
		Path:     path,
	}

	b.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": imageData.Channels,
		"depth":    depth,
		"format":   format,
	})
	return imageData
}

type opencvLoader struct {
	baseLoader
}

func (l *opencvLoader) Backend() string { return BackendOpenCV }

func (l *opencvLoader) Load(ctx context.Context, path string) (*ImageData, error) {
	data, err := l.readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	imageData, err := l.LoadFromBytes(ctx, data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	imageData.Path = path
	return imageData, nil
}

func (l *opencvLoader) LoadFromBytes(ctx context.Context, data []byte, format string) (*ImageData, error) {
	tctx := l.timingTracker.StartTiming(ctx, "opencv_decode")
	defer l.timingTracker.EndTiming(tctx)

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("%w: OpenCV decode: %w", ErrLoadFailed, err)
	}
	safeMat, err := safe.TakeMat(mat, "loaded_image")
	if err != nil {
		return nil, fmt.Errorf("%w: OpenCV could not decode the data", ErrLoadFailed)
	}
	defer safeMat.Close()

	img, err := conversion.MatToImage(safeMat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	depth := 8
	if safe.Is16Bit(safeMat.Type()) {
		depth = 16
	}
	return l.finish(img, depth, determineActualFormat(format, ""), ""), nil
}

type nativeLoader struct {
	baseLoader
}

func (l *nativeLoader) Backend() string { return BackendNative }

func (l *nativeLoader) Load(ctx context.Context, path string) (*ImageData, error) {
	data, err := l.readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	imageData, err := l.LoadFromBytes(ctx, data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	imageData.Path = path
	return imageData, nil
}

func (l *nativeLoader) LoadFromBytes(ctx context.Context, data []byte, format string) (*ImageData, error) {
	tctx := l.timingTracker.StartTiming(ctx, "stdlib_decode")
	defer l.timingTracker.EndTiming(tctx)

	decoded, stdFormat, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("%w: %w %q", ErrLoadFailed, ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	img := disf.FromImage(decoded)
	depth := 8
	if normVal, err := img.NormValue(); err == nil && normVal > 255 {
		depth = 16
	}
	return l.finish(img, depth, determineActualFormat(format, stdFormat), ""), nil
}

func determineActualFormat(extension, stdLibFormat string) string {
	switch strings.ToLower(extension) {
	case ".tiff", ".tif", "tiff", "tif":
		return "tiff"
	case ".jpg", ".jpeg", "jpg", "jpeg":
		return "jpeg"
	case ".png", "png":
		return "png"
	case ".bmp", "bmp":
		return "bmp"
	case ".gif", "gif":
		return "gif"
	case ".webp", "webp":
		return "webp"
	case ".pgm", ".ppm", ".pnm":
		return "pnm"
	default:
		if stdLibFormat != "" {
			return stdLibFormat
		}
		return "unknown"
	}
}
