// Package spanning is the in-process Go DISF engine.
package spanning

import (
	"context"
	"fmt"

	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/disf"
)

type Processor struct {
	name string
}

func NewProcessor() *Processor {
	return &Processor{name: "go"}
}

func (p *Processor) GetName() string {
	return p.name
}

func (p *Processor) GetDefaultParameters() map[string]interface{} {
	return params.Defaults()
}

func (p *Processor) ValidateParameters(values map[string]interface{}) error {
	_, _, err := params.Parse(values)
	return err
}

func (p *Processor) Segment(ctx context.Context, input *disf.Image, values map[string]interface{}, progress disf.Observer) (*disf.Result, error) {
	dp, opts, err := params.Parse(values)
	if err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}
	opts.Observer = progress

	return disf.SegmentImage(ctx, input, dp, opts)
}
