package pipeline

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"go.uber.org/multierr"

	"disf-superpixels/internal/disf"
)

type imageSaver struct {
	logger Logger
}

func NewSaver(logger Logger) ImageSaver {
	return &imageSaver{logger: logger}
}

// WritePGM writes grid as a binary PGM. The header carries the grid maximum;
// grids below 256 are written with one byte per sample, larger ones with two
// big-endian bytes.
func (s *imageSaver) WritePGM(writer io.Writer, grid *disf.Grid) error {
	if grid == nil || len(grid.Values) == 0 {
		return fmt.Errorf("%w: empty grid", ErrSaveFailed)
	}

	lo, hi := grid.MinMax()
	if lo < 0 || hi > 65535 {
		return fmt.Errorf("%w: invalid min/max sample values <%d,%d>", ErrSaveFailed, lo, hi)
	}

	// a zero maxval is not a valid PGM
	maxVal := max(hi, 1)
	if _, err := fmt.Fprintf(writer, "P5\n%d %d\n%d\n", grid.Cols, grid.Rows, maxVal); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	var data []byte
	if hi < 256 {
		data = make([]byte, len(grid.Values))
		for i, v := range grid.Values {
			data[i] = byte(v)
		}
	} else {
		data = make([]byte, len(grid.Values)*2)
		for i, v := range grid.Values {
			data[2*i] = byte(v >> 8)
			data[2*i+1] = byte(v)
		}
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

func (s *imageSaver) SavePGM(path string, grid *disf.Grid) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	w := bufio.NewWriter(file)
	if err := s.WritePGM(w, grid); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.logger.Debug("ImageSaver", "grid saved", map[string]interface{}{
		"path": path,
		"rows": grid.Rows,
		"cols": grid.Cols,
	})
	return nil
}

func (s *imageSaver) SavePNG(path string, img image.Image) (err error) {
	if img == nil {
		return fmt.Errorf("%w: no image data to save", ErrSaveFailed)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	if err := png.Encode(file, img); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"path": path,
		})
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.logger.Debug("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": "png",
	})
	return nil
}
