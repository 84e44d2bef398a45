package disf

import "errors"

var (
	ErrEmptyImage       = errors.New("disf: image is empty")
	ErrInvalidShape     = errors.New("disf: image must have 1 to 4 channels")
	ErrInvalidParams    = errors.New("disf: invalid segmentation parameters")
	ErrUnsupportedDepth = errors.New("disf: only 8-bit and 16-bit images are supported")
	ErrTooManySeeds     = errors.New("disf: the number of seeds is too high for the image")
	ErrNoSeeds          = errors.New("disf: no seed fits on the sampling grid")
	ErrShapeMismatch    = errors.New("disf: grid shapes do not match")
)
