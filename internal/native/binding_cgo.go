//go:build disf_native && cgo

package native

/*
#cgo CFLAGS: -O3 -fopenmp
#cgo LDFLAGS: -ldisf -lgomp -lm

#include <stdlib.h>
#include "Image.h"
#include "DISF.h"

static void disf_set(Image *img, int px, int ch, int v) { img->val[px][ch] = v; }
static int disf_get(Image *img, int px) { return img->val[px][0]; }
*/
import "C"

import (
	"errors"

	"disf-superpixels/internal/disf"
)

const available = true

func segmentImpl(img *disf.Image, n0, nf int) (*disf.Grid, *disf.Grid, error) {
	cimg := C.createImage(C.int(img.Rows), C.int(img.Cols), C.int(img.Channels))
	if cimg == nil {
		return nil, nil, errors.New("createImage returned NULL")
	}
	for i := 0; i < img.NumPixels(); i++ {
		for f, v := range img.Pixel(i) {
			C.disf_set(cimg, C.int(i), C.int(f), C.int(v))
		}
	}

	graph := C.createGraph(cimg)
	C.freeImage(&cimg)
	if graph == nil {
		return nil, nil, errors.New("createGraph returned NULL")
	}
	defer C.freeGraph(&graph)

	cborders := C.createImage(C.int(img.Rows), C.int(img.Cols), 1)
	clabels := C.runDISF(graph, C.int(n0), C.int(nf), &cborders)
	if clabels == nil {
		C.freeImage(&cborders)
		return nil, nil, errors.New("runDISF returned NULL")
	}
	defer C.freeImage(&clabels)
	defer C.freeImage(&cborders)

	labels := disf.NewGrid(img.Rows, img.Cols)
	borders := disf.NewGrid(img.Rows, img.Cols)
	for i := range labels.Values {
		labels.Values[i] = int32(C.disf_get(clabels, C.int(i)))
		borders.Values[i] = int32(C.disf_get(cborders, C.int(i)))
	}
	return labels, borders, nil
}
