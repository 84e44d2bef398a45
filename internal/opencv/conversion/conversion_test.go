package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/opencv/safe"
)

func matFromBytes(t *testing.T, rows, cols int, matType gocv.MatType, data []byte) *safe.Mat {
	t.Helper()

	m, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	require.NoError(t, err)
	defer m.Close()

	sm, err := safe.NewMatFromMat(m, "test")
	require.NoError(t, err)
	return sm
}

func TestMatToImageReordersBGR(t *testing.T) {
	tests := []struct {
		name    string
		matType gocv.MatType
		data    []byte
		want    []int32
	}{
		{"gray", gocv.MatTypeCV8UC1, []byte{7, 9}, []int32{7, 9}},
		{"bgr", gocv.MatTypeCV8UC3, []byte{30, 20, 10, 3, 2, 1}, []int32{10, 20, 30, 1, 2, 3}},
		{"bgra", gocv.MatTypeCV8UC4, []byte{30, 20, 10, 40, 3, 2, 1, 4}, []int32{10, 20, 30, 40, 1, 2, 3, 4}},
		{"gray 16-bit", gocv.MatTypeCV16UC1, []byte{0x34, 0x12, 0xff, 0xff}, []int32{0x1234, 0xffff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat := matFromBytes(t, 1, 2, tt.matType, tt.data)
			defer mat.Close()

			img, err := MatToImage(mat)
			require.NoError(t, err)
			assert.Equal(t, 1, img.Rows)
			assert.Equal(t, 2, img.Cols)
			assert.Equal(t, tt.want, img.Pix)
		})
	}
}

func TestMatToImageRejectsFloat(t *testing.T) {
	mat := matFromBytes(t, 1, 1, gocv.MatTypeCV32FC1, make([]byte, 4))
	defer mat.Close()

	_, err := MatToImage(mat)
	assert.Error(t, err)
}

func TestScaleToGrayAndSideBySide(t *testing.T) {
	labels := disf.NewGrid(2, 3)
	copy(labels.Values, []int32{0, 1, 2, 3, 4, 5})
	borders := disf.NewGrid(2, 3)
	borders.Set(0, 1, 255)

	left, err := ScaleToGray(labels)
	require.NoError(t, err)
	defer left.Close()
	right, err := ScaleToGray(borders)
	require.NoError(t, err)
	defer right.Close()

	lm := left.GetMat()
	assert.Equal(t, uint8(0), lm.GetUCharAt(0, 0))
	assert.Equal(t, uint8(255), lm.GetUCharAt(1, 2))

	both, err := SideBySide(left, right)
	require.NoError(t, err)
	defer both.Close()
	assert.Equal(t, 6, both.Cols())
	assert.Equal(t, 2, both.Rows())

	img, err := MatToGoImage(both)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
}
