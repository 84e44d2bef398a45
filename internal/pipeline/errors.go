package pipeline

import "errors"

var (
	ErrLoadFailed        = errors.New("pipeline: failed to load image")
	ErrUnsupportedFormat = errors.New("pipeline: unsupported image format")
	ErrSaveFailed        = errors.New("pipeline: failed to save output")
	ErrUnknownBackend    = errors.New("pipeline: unknown loader backend")
)
