package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disf-superpixels/internal/algorithms"
	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/debug/timing"
	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/logger"
)

func gridOf(rows, cols int, values ...int32) *disf.Grid {
	return &disf.Grid{Rows: rows, Cols: cols, Values: values}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// quadrants paints four flat colour blocks.
func quadrants(size int) *image.RGBA {
	colors := []color.RGBA{
		{R: 220, G: 30, B: 30, A: 255},
		{R: 30, G: 200, B: 40, A: 255},
		{R: 20, G: 40, B: 210, A: 255},
		{R: 240, G: 230, B: 40, A: 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			q := 0
			if x >= half {
				q++
			}
			if y >= half {
				q += 2
			}
			img.SetRGBA(x, y, colors[q])
		}
	}
	return img
}

func TestWritePGM8Bit(t *testing.T) {
	var buf bytes.Buffer
	err := NewSaver(logger.NoOp{}).WritePGM(&buf, gridOf(2, 3, 0, 1, 2, 3, 4, 5))
	require.NoError(t, err)

	want := append([]byte("P5\n3 2\n5\n"), 0, 1, 2, 3, 4, 5)
	assert.Equal(t, want, buf.Bytes())
}

func TestWritePGM16BitBigEndian(t *testing.T) {
	var buf bytes.Buffer
	err := NewSaver(logger.NoOp{}).WritePGM(&buf, gridOf(1, 2, 300, 7))
	require.NoError(t, err)

	want := append([]byte("P5\n2 1\n300\n"), 0x01, 0x2C, 0x00, 0x07)
	assert.Equal(t, want, buf.Bytes())
}

func TestWritePGMConstantZeroGrid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSaver(logger.NoOp{}).WritePGM(&buf, gridOf(1, 2, 0, 0)))
	assert.Equal(t, append([]byte("P5\n2 1\n1\n"), 0, 0), buf.Bytes())
}

func TestWritePGMRejectsOutOfRange(t *testing.T) {
	saver := NewSaver(logger.NoOp{})
	var buf bytes.Buffer

	assert.ErrorIs(t, saver.WritePGM(&buf, gridOf(1, 1, -1)), ErrSaveFailed)
	assert.ErrorIs(t, saver.WritePGM(&buf, gridOf(1, 1, 70000)), ErrSaveFailed)
	assert.ErrorIs(t, saver.WritePGM(&buf, nil), ErrSaveFailed)
}

func TestSavePGMWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pgm")
	require.NoError(t, NewSaver(logger.NoOp{}).SavePGM(path, gridOf(1, 1, 9)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("P5\n1 1\n9\n"), 9), data)
}

func TestNativeLoaderReadsPNG(t *testing.T) {
	path := writePNG(t, quadrants(8))

	loader, err := NewLoader(BackendNative, logger.NoOp{}, timing.NewTracker(nil))
	require.NoError(t, err)
	assert.Equal(t, BackendNative, loader.Backend())

	data, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 8, data.Width)
	assert.Equal(t, 8, data.Height)
	assert.Equal(t, 3, data.Channels)
	assert.Equal(t, 8, data.Depth)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, path, data.Path)
	assert.Equal(t, []int32{220, 30, 30}, data.Image.Pixel(0))
}

func TestNativeLoaderKeeps16BitGray(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 1000})
	src.SetGray16(1, 0, color.Gray16{Y: 40000})
	path := writePNG(t, src)

	loader, err := NewLoader(BackendNative, logger.NoOp{}, timing.NewTracker(nil))
	require.NoError(t, err)

	data, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, data.Channels)
	assert.Equal(t, 16, data.Depth)
	assert.Equal(t, []int32{1000, 40000}, data.Image.Pix)
}

func TestLoaderErrors(t *testing.T) {
	_, err := NewLoader("bogus", logger.NoOp{}, timing.NewTracker(nil))
	assert.ErrorIs(t, err, ErrUnknownBackend)

	loader, err := NewLoader(BackendNative, logger.NoOp{}, timing.NewTracker(nil))
	require.NoError(t, err)

	_, err = loader.LoadFromBytes(context.Background(), []byte("not an image"), "png")
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	// a known signature with a broken body is a decode failure, not a format one
	_, err = loader.LoadFromBytes(context.Background(), []byte("\x89PNG\r\n\x1a\n broken"), "png")
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestDetermineActualFormat(t *testing.T) {
	assert.Equal(t, "tiff", determineActualFormat(".TIF", ""))
	assert.Equal(t, "jpeg", determineActualFormat("jpg", ""))
	assert.Equal(t, "webp", determineActualFormat("", "webp"))
	assert.Equal(t, "unknown", determineActualFormat(".xyz", ""))
}

func TestNativeSideBySide(t *testing.T) {
	labels := gridOf(1, 2, 0, 2)
	borders := gridOf(1, 2, 255, 0)

	out, err := NewRenderer(BackendNative).SideBySide(labels, borders)
	require.NoError(t, err)

	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 4, 1), gray.Bounds())
	assert.Equal(t, []uint8{0, 255, 255, 0}, gray.Pix)
}

func TestSideBySideConstantGridIsBlack(t *testing.T) {
	out, err := NewRenderer(BackendNative).SideBySide(gridOf(1, 2, 3, 3), gridOf(1, 2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 0}, out.(*image.Gray).Pix)
}

func TestRendererShapeMismatch(t *testing.T) {
	r := NewRenderer(BackendNative)
	_, err := r.SideBySide(gridOf(1, 2, 0, 0), gridOf(2, 1, 0, 0))
	assert.ErrorIs(t, err, disf.ErrShapeMismatch)
	_, err = r.Overlay(gridOf(1, 2, 0, 0), gridOf(2, 1, 0, 0))
	assert.ErrorIs(t, err, disf.ErrShapeMismatch)
}

func TestOverlay(t *testing.T) {
	labels := gridOf(1, 3, 0, 1, 1)
	borders := gridOf(1, 3, 0, 255, 0)

	out, err := NewRenderer(BackendNative).Overlay(labels, borders)
	require.NoError(t, err)

	palette := Palette(2)
	rgba := out.(*image.RGBA)
	assert.Equal(t, palette[0], rgba.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgba.RGBAAt(1, 0))
	assert.Equal(t, palette[1], rgba.RGBAAt(2, 0))
}

func TestPaletteColorsAreDistinct(t *testing.T) {
	palette := Palette(12)
	seen := make(map[color.RGBA]bool)
	for _, c := range palette {
		assert.Equal(t, uint8(255), c.A)
		seen[c] = true
	}
	assert.Len(t, seen, 12)
}

func TestCoordinatorEndToEnd(t *testing.T) {
	path := writePNG(t, quadrants(40))
	tracker := timing.NewTracker(nil)

	loader, err := NewLoader(BackendNative, logger.NoOp{}, tracker)
	require.NoError(t, err)
	coord := NewCoordinator(loader, NewSaver(logger.NoOp{}), NewRenderer(BackendNative),
		algorithms.NewManager(), logger.NoOp{}, tracker)

	values := params.Defaults()
	values[params.InitSeeds] = 200
	values[params.FinalSuperpixels] = 4

	var iterations int
	input, result, err := coord.Process(context.Background(), path, "", values, func(disf.IterationStats) {
		iterations++
	})
	require.NoError(t, err)
	assert.Equal(t, 40, input.Width)
	assert.LessOrEqual(t, result.Superpixels, 4)
	assert.Equal(t, result.Iterations, iterations)
	assert.Same(t, result, coord.GetLastResult())
	assert.Same(t, input, coord.GetLastInput())
	assert.Len(t, tracker.GetTimings("segment"), 1)

	outDir := filepath.Join(t.TempDir(), "out")
	outputs, err := coord.SaveOutputs(context.Background(), result, outDir, true)
	require.NoError(t, err)

	for _, p := range []string{outputs.Labels, outputs.Borders, outputs.SideBySide, outputs.Overlay} {
		assert.FileExists(t, p)
	}
	labels, err := os.ReadFile(outputs.Labels)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(labels, []byte("P5\n40 40\n")))
}

func TestCoordinatorErrors(t *testing.T) {
	tracker := timing.NewTracker(nil)
	loader, err := NewLoader(BackendNative, logger.NoOp{}, tracker)
	require.NoError(t, err)
	coord := NewCoordinator(loader, NewSaver(logger.NoOp{}), NewRenderer(BackendNative),
		algorithms.NewManager(), logger.NoOp{}, tracker)

	_, err = coord.SegmentImage(context.Background(), nil, "", nil, nil)
	assert.Error(t, err)

	img, err := disf.NewImage(4, 4, 1)
	require.NoError(t, err)
	_, err = coord.SegmentImage(context.Background(), &ImageData{Image: img}, "missing", nil, nil)
	assert.Error(t, err)

	_, err = coord.SaveOutputs(context.Background(), nil, t.TempDir(), false)
	assert.Error(t, err)
}
