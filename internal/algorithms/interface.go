package algorithms

import (
	"context"

	"disf-superpixels/internal/disf"
)

// Segmenter is one DISF engine. Parameters travel as a loosely typed map so
// that config files, CLI flags and queued jobs can share them.
type Segmenter interface {
	Segment(ctx context.Context, input *disf.Image, params map[string]interface{}, progress disf.Observer) (*disf.Result, error)
	ValidateParameters(params map[string]interface{}) error
	GetDefaultParameters() map[string]interface{}
	GetName() string
}
