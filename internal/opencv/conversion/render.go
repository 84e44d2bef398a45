package conversion

import (
	"encoding/binary"
	"fmt"
	"math"

	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GridToMat copies a label or border grid into a single-channel float Mat.
func GridToMat(grid *disf.Grid) (*safe.Mat, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid is nil")
	}
	if err := safe.ValidateDimensions(grid.Cols, grid.Rows, "grid to Mat"); err != nil {
		return nil, err
	}

	buf := make([]byte, len(grid.Values)*4)
	for i, v := range grid.Values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}

	mat, err := gocv.NewMatFromBytes(grid.Rows, grid.Cols, gocv.MatTypeCV32FC1, buf)
	if err != nil {
		return nil, fmt.Errorf("creating Mat from grid: %w", err)
	}
	defer mat.Close()

	return safe.NewMatFromMat(mat, "grid")
}

// ScaleToGray stretches the grid's [min, max] range over [0, 255]. A
// constant grid becomes black.
func ScaleToGray(grid *disf.Grid) (*safe.Mat, error) {
	src, err := GridToMat(grid)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	normalized := gocv.NewMat()
	defer normalized.Close()
	gocv.Normalize(src.GetMat(), &normalized, 0, 255, gocv.NormMinMax)

	gray := gocv.NewMat()
	normalized.ConvertTo(&gray, gocv.MatTypeCV8U)

	return safe.TakeMat(gray, "scaled_gray")
}

// SideBySide concatenates two equally tall Mats horizontally.
func SideBySide(left, right *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(left, "side by side"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(right, "side by side"); err != nil {
		return nil, err
	}
	if left.Rows() != right.Rows() || left.Type() != right.Type() {
		return nil, fmt.Errorf("cannot concatenate %dx%d type %d with %dx%d type %d",
			left.Cols(), left.Rows(), int(left.Type()), right.Cols(), right.Rows(), int(right.Type()))
	}

	dst := gocv.NewMat()
	gocv.Hconcat(left.GetMat(), right.GetMat(), &dst)

	return safe.TakeMat(dst, "side_by_side")
}
