package spanning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/disf"
)

func TestSegmentReportsProgress(t *testing.T) {
	img, err := disf.NewImage(30, 30, 1)
	require.NoError(t, err)
	for i := range img.Pix {
		if i%30 >= 15 {
			img.Pix[i] = 200
		}
	}

	values := params.Defaults()
	values[params.InitSeeds] = 150
	values[params.FinalSuperpixels] = 3

	var calls int
	res, err := NewProcessor().Segment(context.Background(), img, values, func(disf.IterationStats) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, res.Iterations, calls)
	assert.LessOrEqual(t, res.Labels.Distinct(), 3)
}

func TestValidateParameters(t *testing.T) {
	p := NewProcessor()
	assert.Equal(t, "go", p.GetName())
	assert.NoError(t, p.ValidateParameters(p.GetDefaultParameters()))

	values := p.GetDefaultParameters()
	values[params.InitSeeds] = "many"
	assert.ErrorIs(t, p.ValidateParameters(values), disf.ErrInvalidParams)
}
