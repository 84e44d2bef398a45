//go:build !disf_native || !cgo

package native

import "disf-superpixels/internal/disf"

const available = false

func segmentImpl(*disf.Image, int, int) (*disf.Grid, *disf.Grid, error) {
	return nil, nil, ErrNativeUnavailable
}
