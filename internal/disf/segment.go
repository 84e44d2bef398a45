package disf

import "context"

// Segment computes the label and border maps of img with n0 initial seeds
// and at most nf final superpixels. Both maps share the image's spatial
// shape; labels lie in [0, nf) and borders are 0 or 255.
func Segment(ctx context.Context, img *Image, n0, nf int) (labels, borders *Grid, err error) {
	res, err := SegmentImage(ctx, img, Params{InitSeeds: n0, FinalSuperpixels: nf}, Options{})
	if err != nil {
		return nil, nil, err
	}
	return res.Labels, res.Borders, nil
}

// SegmentImage validates the inputs, builds the pixel graph and runs the
// iterative forest.
func SegmentImage(ctx context.Context, img *Image, p Params, opts Options) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g, err := NewGraph(ctx, img, opts.Workers)
	if err != nil {
		return nil, err
	}
	return Run(ctx, g, p, opts)
}
