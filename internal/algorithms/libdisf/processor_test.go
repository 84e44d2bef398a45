package libdisf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/native"
)

func TestDefaults(t *testing.T) {
	p := NewProcessor()
	assert.Equal(t, "native", p.GetName())
	assert.Equal(t, params.Defaults(), p.GetDefaultParameters())
	assert.NoError(t, p.ValidateParameters(p.GetDefaultParameters()))
}

func TestSegment(t *testing.T) {
	img, err := disf.NewImage(20, 20, 1)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = int32(i % 200)
	}

	values := params.Defaults()
	values[params.InitSeeds] = 100
	values[params.FinalSuperpixels] = 5

	res, err := NewProcessor().Segment(context.Background(), img, values, nil)
	if !native.Available() {
		assert.ErrorIs(t, err, native.ErrNativeUnavailable)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, 100, res.EffectiveSeeds)
	assert.Equal(t, 20, res.Labels.Rows)
	assert.LessOrEqual(t, res.Superpixels, 5)
}

func TestSegmentLowersOversampling(t *testing.T) {
	img, err := disf.NewImage(10, 10, 1)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = int32(i * 2)
	}

	values := params.Defaults()
	values[params.InitSeeds] = 500
	values[params.FinalSuperpixels] = 90

	values[params.StrictSampling] = true
	_, err = NewProcessor().Segment(context.Background(), img, values, nil)
	assert.ErrorIs(t, err, disf.ErrTooManySeeds)

	values[params.StrictSampling] = false
	res, err := NewProcessor().Segment(context.Background(), img, values, nil)
	if !native.Available() {
		// lowering happened; only the missing library stops the run
		assert.ErrorIs(t, err, native.ErrNativeUnavailable)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, disf.MaxSeeds(100), res.EffectiveSeeds)
}

func TestSegmentRejectsBadParams(t *testing.T) {
	values := params.Defaults()
	values[params.FinalSuperpixels] = 1
	_, err := NewProcessor().Segment(context.Background(), nil, values, nil)
	assert.ErrorIs(t, err, disf.ErrInvalidParams)
}
