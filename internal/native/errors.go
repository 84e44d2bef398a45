package native

import "errors"

var (
	ErrNativeUnavailable = errors.New("native: libdisf binding not compiled in (build with -tags disf_native)")
	ErrNativeFailed      = errors.New("native: libdisf segmentation failed")
)
