// Package native binds the reference DISF C library (libdisf).
//
// The binding is compiled only with the disf_native build tag and cgo:
//
//	CGO_CFLAGS="-I/path/to/disf/include" \
//	CGO_LDFLAGS="-L/path/to/disf/lib -ldisf -lgomp" \
//	go build -tags disf_native ./...
//
// Without the tag every call returns ErrNativeUnavailable.
package native

import (
	"context"
	"fmt"

	"disf-superpixels/internal/disf"
)

// Available reports whether the binary was built against libdisf.
func Available() bool {
	return available
}

// Segment runs the C implementation on img. The library terminates the
// process on invalid input, so everything it would reject is checked here
// first. The call itself cannot be interrupted; ctx is only consulted
// before it starts.
func Segment(ctx context.Context, img *disf.Image, n0, nf int) (labels, borders *disf.Grid, err error) {
	if !available {
		return nil, nil, ErrNativeUnavailable
	}
	if err := validate(img, n0, nf); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	labels, borders, err = segmentImpl(img, n0, nf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNativeFailed, err)
	}
	return labels, borders, nil
}

func validate(img *disf.Image, n0, nf int) error {
	if err := img.Validate(); err != nil {
		return err
	}
	p := disf.Params{InitSeeds: n0, FinalSuperpixels: nf}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := img.NormValue(); err != nil {
		return err
	}
	if n0 > disf.MaxSeeds(img.NumPixels()) {
		return fmt.Errorf("%w: %d seeds for %d pixels", disf.ErrTooManySeeds, n0, img.NumPixels())
	}
	return nil
}
