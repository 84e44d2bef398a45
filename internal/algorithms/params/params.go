// Package params decodes segmentation parameters from loosely typed maps.
package params

import (
	"fmt"

	"disf-superpixels/internal/disf"
)

const (
	InitSeeds        = "initial_seeds"
	FinalSuperpixels = "final_superpixels"
	StrictSampling   = "strict_sampling"
	Workers          = "workers"
)

// Defaults match the reference demo: 8000 seeds down to 50 superpixels.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		InitSeeds:        8000,
		FinalSuperpixels: 50,
		StrictSampling:   false,
		Workers:          0,
	}
}

// Parse reads the engine parameters, falling back to the defaults
// for missing keys. Integers may arrive as int, int64 or float64 (JSON).
func Parse(values map[string]interface{}) (disf.Params, disf.Options, error) {
	merged := Defaults()
	for k, v := range values {
		merged[k] = v
	}

	n0, err := intParam(merged, InitSeeds)
	if err != nil {
		return disf.Params{}, disf.Options{}, err
	}
	nf, err := intParam(merged, FinalSuperpixels)
	if err != nil {
		return disf.Params{}, disf.Options{}, err
	}
	workers, err := intParam(merged, Workers)
	if err != nil {
		return disf.Params{}, disf.Options{}, err
	}
	strict, ok := merged[StrictSampling].(bool)
	if !ok {
		return disf.Params{}, disf.Options{}, fmt.Errorf("%w: %s must be a boolean, got %T",
			disf.ErrInvalidParams, StrictSampling, merged[StrictSampling])
	}

	p := disf.Params{InitSeeds: n0, FinalSuperpixels: nf, StrictSampling: strict}
	if err := p.Validate(); err != nil {
		return disf.Params{}, disf.Options{}, err
	}
	return p, disf.Options{Workers: workers}, nil
}

func intParam(values map[string]interface{}, name string) (int, error) {
	switch v := values[name].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", disf.ErrInvalidParams, name, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", disf.ErrInvalidParams, name, v)
	}
}
