package conversion

import (
	"fmt"
	"image"

	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MatToImage copies an 8- or 16-bit Mat into a disf.Image. OpenCV stores
// colour as BGR(A); the samples are reordered to RGB(A).
func MatToImage(src *safe.Mat) (*disf.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateSampleType(src.Type(), "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows, cols, channels := src.Rows(), src.Cols(), src.Channels()
	img, err := disf.NewImage(rows, cols, channels)
	if err != nil {
		return nil, err
	}

	mat := src.GetMat()
	if !mat.IsContinuous() {
		cont := mat.Clone()
		defer cont.Close()
		mat = cont
	}

	order := channelOrder(channels)
	if safe.Is16Bit(src.Type()) {
		data, err := mat.DataPtrUint16()
		if err != nil {
			return nil, fmt.Errorf("reading 16-bit samples: %w", err)
		}
		for i := 0; i < rows*cols; i++ {
			for c, from := range order {
				img.Pix[i*channels+c] = int32(data[i*channels+from])
			}
		}
		return img, nil
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("reading 8-bit samples: %w", err)
	}
	for i := 0; i < rows*cols; i++ {
		for c, from := range order {
			img.Pix[i*channels+c] = int32(data[i*channels+from])
		}
	}
	return img, nil
}

// MatToGoImage renders a Mat as a Go image for encoders and the viewer.
func MatToGoImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to Go image conversion"); err != nil {
		return nil, err
	}
	mat := src.GetMat()
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting Mat to image: %w", err)
	}
	return img, nil
}

// channelOrder maps an RGB(A) channel to its index in the BGR(A) layout.
func channelOrder(channels int) []int {
	switch channels {
	case 3:
		return []int{2, 1, 0}
	case 4:
		return []int{2, 1, 0, 3}
	case 2:
		return []int{0, 1}
	default:
		return []int{0}
	}
}
