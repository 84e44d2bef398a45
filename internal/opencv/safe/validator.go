package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

const maxDimension = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("%s is invalid for operation: %s", mat, operation)
	}

	if mat.Empty() {
		return fmt.Errorf("%s is empty for operation: %s", mat, operation)
	}

	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// ValidateSampleType accepts the unsigned 8- and 16-bit layouts with 1 to 4
// channels, which is what the segmentation consumes.
func ValidateSampleType(matType gocv.MatType, operation string) error {
	switch matType {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC2, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	case gocv.MatTypeCV16UC1, gocv.MatTypeCV16UC2, gocv.MatTypeCV16UC3, gocv.MatTypeCV16UC4:
		return nil
	default:
		return fmt.Errorf("unsupported MatType %d for operation: %s", int(matType), operation)
	}
}

// Is16Bit reports whether matType stores unsigned 16-bit samples.
func Is16Bit(matType gocv.MatType) bool {
	switch matType {
	case gocv.MatTypeCV16UC1, gocv.MatTypeCV16UC2, gocv.MatTypeCV16UC3, gocv.MatTypeCV16UC4:
		return true
	}
	return false
}
